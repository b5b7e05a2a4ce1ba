package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackRepository interface {
	Create(ctx context.Context, db *gorm.DB, feedback *entity.Feedback) error
	FindByAppointmentID(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) (*entity.Feedback, error)
	FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.FeedbackFilter) ([]entity.Feedback, int64, error)
}
