package repository

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return db.WithContext(ctx).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Patient.User").
		Preload("Doctor.User").Preload("Doctor.Specialty").
		Preload("Schedule").
		Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	query := db.WithContext(ctx).Model(&entity.Appointment{})

	if filter != nil {
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.DoctorID != nil {
			query = query.Where("doctor_id = ?", *filter.DoctorID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.DateFrom != "" {
			query = query.Where("created_at >= ?", filter.DateFrom)
		}
		if filter.DateTo != "" {
			query = query.Where("created_at <= ?", filter.DateTo+" 23:59:59")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []entity.Appointment
	err := query.
		Preload("Patient.User").
		Preload("Doctor.User").Preload("Doctor.Specialty").
		Preload("Schedule").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) CancelConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, actor entity.CancelActor, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusConfirmed).
		Updates(map[string]interface{}{
			"status":      entity.AppointmentStatusCanceled,
			"canceled_by": actor,
			"canceled_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) TransitionConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, target entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusConfirmed).
		Update("status", target)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CountConfirmedBySchedule(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("schedule_id = ? AND status = ?", scheduleID, entity.AppointmentStatusConfirmed).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) ConfirmedCountsBySlot(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) ([]domainRepo.SlotBookingCount, error) {
	var counts []domainRepo.SlotBookingCount
	err := db.WithContext(ctx).Model(&entity.Appointment{}).
		Select("schedule_id, slot_id, COUNT(*) as confirmed").
		Where("schedule_id = ? AND status = ?", scheduleID, entity.AppointmentStatusConfirmed).
		Group("schedule_id, slot_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
