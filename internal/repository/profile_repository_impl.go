package repository

import (
	"context"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.WithContext(ctx).Preload("User").Preload("Specialty").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *doctorProfileRepository) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, int64, error) {
	query := db.WithContext(ctx).Model(&entity.DoctorProfile{}).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ?", true)

	if filter != nil {
		if filter.SpecialtyID > 0 {
			query = query.Where("doctor_profiles.specialty_id = ?", filter.SpecialtyID)
		}
		if filter.Keyword != "" {
			pattern := "%" + filter.Keyword + "%"
			query = query.Where("users.full_name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []entity.DoctorProfile
	err := query.
		Preload("User").Preload("Specialty").
		Order("doctor_profiles.user_id").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *doctorProfileRepository) FindUserIDsBySpecialty(ctx context.Context, db *gorm.DB, specialtyID int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&entity.DoctorProfile{}).
		Where("specialty_id = ?", specialtyID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *patientProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *patientProfileRepository) FindAll(ctx context.Context, db *gorm.DB, keyword string) ([]entity.PatientProfile, error) {
	query := db.WithContext(ctx).Model(&entity.PatientProfile{}).
		Joins("JOIN users ON users.id = patient_profiles.user_id").
		Where("users.is_active = ?", true)

	if keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where("users.full_name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}

	var profiles []entity.PatientProfile
	err := query.Preload("User").Order("patient_profiles.user_id").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
