package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(ctx context.Context, db *gorm.DB, schedule *entity.Schedule) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error)
	// FindByIDForUpdate locks the schedule row for the duration of the
	// surrounding transaction. Used by slot-sequence edits so a concurrent
	// booking cannot slip between the validation read and the write.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error)
	FindByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date string) (*entity.Schedule, error)
	FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.ScheduleFilter) ([]entity.Schedule, error)
	FindFromDate(ctx context.Context, db *gorm.DB, from string) ([]entity.Schedule, error)
	UpdateSlots(ctx context.Context, db *gorm.DB, id uuid.UUID, slots entity.SlotList) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)

	// IncrementSlotBooked bumps booked_count for one slot in a single
	// conditional statement; 0 rows affected means the slot is missing or at
	// capacity. DecrementSlotBooked is the mirror floored at zero; 0 rows
	// affected there signals a ledger desync, not a caller error.
	IncrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error)
	DecrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error)
}
