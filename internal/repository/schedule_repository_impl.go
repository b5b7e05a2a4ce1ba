package repository

import (
	"context"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type scheduleRepository struct{}

func NewScheduleRepository() domainRepo.ScheduleRepository {
	return &scheduleRepository{}
}

func (r *scheduleRepository) Create(ctx context.Context, db *gorm.DB, schedule *entity.Schedule) error {
	return db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := db.WithContext(ctx).
		Preload("Doctor").Preload("Doctor.User").Preload("Doctor.Specialty").
		Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date string) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND schedule_date = ?", doctorID, date).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.ScheduleFilter) ([]entity.Schedule, error) {
	query := db.WithContext(ctx).Model(&entity.Schedule{}).
		Joins("JOIN doctor_profiles ON doctor_profiles.user_id = schedules.doctor_id").
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ?", true)

	if filter != nil {
		if filter.DoctorID != nil {
			query = query.Where("schedules.doctor_id = ?", *filter.DoctorID)
		}
		if filter.Date != "" {
			query = query.Where("schedules.schedule_date = ?", filter.Date)
		}
		if filter.SpecialtyID > 0 {
			query = query.Where("doctor_profiles.specialty_id = ?", filter.SpecialtyID)
		}
	}

	var schedules []entity.Schedule
	err := query.
		Preload("Doctor").Preload("Doctor.User").Preload("Doctor.Specialty").
		Order("schedules.schedule_date ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) FindFromDate(ctx context.Context, db *gorm.DB, from string) ([]entity.Schedule, error) {
	var schedules []entity.Schedule
	err := db.WithContext(ctx).
		Where("schedule_date >= ?", from).
		Order("schedule_date ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) UpdateSlots(ctx context.Context, db *gorm.DB, id uuid.UUID, slots entity.SlotList) error {
	return db.WithContext(ctx).Model(&entity.Schedule{}).
		Where("id = ?", id).
		Update("slots", slots).Error
}

func (r *scheduleRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Schedule{})
	return result.RowsAffected, result.Error
}

// incrementSlotSQL bumps booked_count for exactly one slot of the JSONB slots
// array, guarded by the capacity check in the same statement. The WHERE clause
// makes the read-check-write atomic: concurrent increments on a full slot see
// zero rows affected instead of overshooting.
const incrementSlotSQL = `
UPDATE schedules
SET slots = (
	SELECT jsonb_agg(
		CASE WHEN elem->>'id' = @slot_id
			THEN jsonb_set(elem, '{booked_count}', to_jsonb((elem->>'booked_count')::int + 1))
			ELSE elem
		END ORDER BY ord)
	FROM jsonb_array_elements(schedules.slots) WITH ORDINALITY AS t(elem, ord)
),
updated_at = NOW()
WHERE id = @schedule_id
  AND EXISTS (
	SELECT 1 FROM jsonb_array_elements(schedules.slots) AS elem
	WHERE elem->>'id' = @slot_id
	  AND (elem->>'booked_count')::int < (elem->>'capacity')::int
  )`

// decrementSlotSQL is the mirror, floored at zero by its guard.
const decrementSlotSQL = `
UPDATE schedules
SET slots = (
	SELECT jsonb_agg(
		CASE WHEN elem->>'id' = @slot_id
			THEN jsonb_set(elem, '{booked_count}', to_jsonb((elem->>'booked_count')::int - 1))
			ELSE elem
		END ORDER BY ord)
	FROM jsonb_array_elements(schedules.slots) WITH ORDINALITY AS t(elem, ord)
),
updated_at = NOW()
WHERE id = @schedule_id
  AND EXISTS (
	SELECT 1 FROM jsonb_array_elements(schedules.slots) AS elem
	WHERE elem->>'id' = @slot_id
	  AND (elem->>'booked_count')::int > 0
  )`

func (r *scheduleRepository) IncrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error) {
	result := db.WithContext(ctx).Exec(incrementSlotSQL,
		map[string]interface{}{"schedule_id": scheduleID, "slot_id": slotID})
	return result.RowsAffected, result.Error
}

func (r *scheduleRepository) DecrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error) {
	result := db.WithContext(ctx).Exec(decrementSlotSQL,
		map[string]interface{}{"schedule_id": scheduleID, "slot_id": slotID})
	return result.RowsAffected, result.Error
}
