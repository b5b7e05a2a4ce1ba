package repository

import (
	"context"
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotBookingCount pairs a slot's stable ID with its confirmed-appointment
// count; used to rebuild the slot ledger from the source-of-truth rows.
type SlotBookingCount struct {
	ScheduleID uuid.UUID
	SlotID     string
	Confirmed  int
}

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error)

	// CancelConfirmed flips confirmed -> canceled in one conditional update;
	// 0 rows affected means the appointment was not in the confirmed state.
	CancelConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, actor entity.CancelActor, at time.Time) (int64, error)
	// TransitionConfirmed flips confirmed -> completed/no_show the same way.
	TransitionConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, target entity.AppointmentStatus) (int64, error)

	CountConfirmedBySchedule(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) (int64, error)
	ConfirmedCountsBySlot(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) ([]SlotBookingCount, error)
}
