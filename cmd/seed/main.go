package main

import (
	"fmt"
	"time"

	"clinic-management-api/config"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/infrastructure/database"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	doctorCount  = 8
	patientCount = 40
	scheduleDays = 7
	seedPassword = "password123"
)

// Seeds a development database with a receptionist, doctors, patients and a
// week of schedules. Idempotence is not attempted; run against a fresh DB.
func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := database.RunMigrations(cfg.DB); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	gofakeit.Seed(42)

	hashed, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.Fatalf("Failed to hash seed password: %v", err)
	}
	password := string(hashed)

	if err := seedReceptionist(db, password); err != nil {
		logrus.Fatalf("Failed to seed receptionist: %v", err)
	}

	doctors, err := seedDoctors(db, password)
	if err != nil {
		logrus.Fatalf("Failed to seed doctors: %v", err)
	}

	if err := seedPatients(db, password); err != nil {
		logrus.Fatalf("Failed to seed patients: %v", err)
	}

	if err := seedSchedules(db, doctors); err != nil {
		logrus.Fatalf("Failed to seed schedules: %v", err)
	}

	logrus.Infof("Seed complete: 1 receptionist, %d doctors, %d patients, %d days of schedules",
		doctorCount, patientCount, scheduleDays)
}

func seedReceptionist(db *gorm.DB, password string) error {
	active := true
	user := &entity.User{
		RoleID:   entity.RoleIDReceptionist,
		Email:    "frontdesk@clinic.local",
		Password: password,
		FullName: "Front Desk",
		Phone:    gofakeit.Phone(),
		IsActive: &active,
	}
	return db.Create(user).Error
}

func seedDoctors(db *gorm.DB, password string) ([]entity.DoctorProfile, error) {
	var specialties []entity.Specialty
	if err := db.Find(&specialties).Error; err != nil {
		return nil, err
	}
	if len(specialties) == 0 {
		return nil, fmt.Errorf("no specialties found, run migrations first")
	}

	doctors := make([]entity.DoctorProfile, 0, doctorCount)
	for i := 0; i < doctorCount; i++ {
		active := true
		user := &entity.User{
			RoleID:   entity.RoleIDDoctor,
			Email:    fmt.Sprintf("doctor%d@clinic.local", i+1),
			Password: password,
			FullName: "Dr. " + gofakeit.Name(),
			Phone:    gofakeit.Phone(),
			IsActive: &active,
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}

		profile := entity.DoctorProfile{
			UserID:      user.ID,
			SpecialtyID: specialties[i%len(specialties)].ID,
			Bio:         gofakeit.Sentence(12),
			Room:        fmt.Sprintf("%d%02d", gofakeit.Number(1, 4), gofakeit.Number(1, 20)),
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, err
		}
		doctors = append(doctors, profile)
	}
	return doctors, nil
}

func seedPatients(db *gorm.DB, password string) error {
	genders := []string{entity.GenderMale, entity.GenderFemale}
	for i := 0; i < patientCount; i++ {
		active := true
		user := &entity.User{
			RoleID:   entity.RoleIDPatient,
			Email:    fmt.Sprintf("patient%d@example.com", i+1),
			Password: password,
			FullName: gofakeit.Name(),
			Phone:    gofakeit.Phone(),
			IsActive: &active,
		}
		if err := db.Create(user).Error; err != nil {
			return err
		}

		profile := entity.PatientProfile{
			UserID:      user.ID,
			DateOfBirth: gofakeit.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC)),
			Gender:      genders[i%2],
			Address:     gofakeit.Address().Address,
		}
		if err := db.Create(&profile).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedSchedules(db *gorm.DB, doctors []entity.DoctorProfile) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	starts := []string{"08:00", "09:00", "10:00", "13:00", "14:00", "15:00"}
	ends := []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

	for day := 0; day < scheduleDays; day++ {
		date := today.AddDate(0, 0, day)
		for _, doctor := range doctors {
			raw := make([]entity.Slot, len(starts))
			for i := range starts {
				raw[i] = entity.Slot{
					Start:    starts[i],
					End:      ends[i],
					Capacity: gofakeit.Number(2, 5),
				}
			}
			slots, err := entity.ValidateNewSlots(raw)
			if err != nil {
				return err
			}

			schedule := entity.Schedule{
				DoctorID:     doctor.UserID,
				ScheduleDate: date,
				Slots:        slots,
			}
			if err := db.Create(&schedule).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
