package repository

import (
	"context"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type feedbackRepository struct{}

func NewFeedbackRepository() domainRepo.FeedbackRepository {
	return &feedbackRepository{}
}

func (r *feedbackRepository) Create(ctx context.Context, db *gorm.DB, feedback *entity.Feedback) error {
	return db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) FindByAppointmentID(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) (*entity.Feedback, error) {
	var feedback entity.Feedback
	err := db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&feedback).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.FeedbackFilter) ([]entity.Feedback, int64, error) {
	query := db.WithContext(ctx).Model(&entity.Feedback{})

	if filter != nil {
		if filter.DoctorID != nil {
			query = query.Where("doctor_id = ?", *filter.DoctorID)
		}
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.Rating > 0 {
			query = query.Where("rating = ?", filter.Rating)
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

	var feedbacks []entity.Feedback
	err := query.
		Preload("Patient.User").
		Preload("Doctor.User").
		Preload("Appointment").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}
