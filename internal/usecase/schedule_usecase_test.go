package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

type scheduleEnv struct {
	scheduleRepo *fakeScheduleRepo
	apptRepo     *fakeAppointmentRepo
	doctorRepo   *fakeDoctorProfileRepo
	ledger       *fakeSlotLedger

	doctorID uuid.UUID
	uc       ScheduleUsecase
}

func newScheduleEnv(t *testing.T) *scheduleEnv {
	t.Helper()

	env := &scheduleEnv{
		scheduleRepo: newFakeScheduleRepo(),
		apptRepo:     newFakeAppointmentRepo(),
		doctorRepo:   newFakeDoctorProfileRepo(),
		ledger:       newFakeSlotLedger(),
	}
	env.doctorID = uuid.New()
	env.doctorRepo.add(&entity.DoctorProfile{UserID: env.doctorID, SpecialtyID: 1})

	env.uc = NewScheduleUsecase(nil, testLogger(), passthroughTxManager{},
		env.scheduleRepo, env.apptRepo, env.doctorRepo, env.ledger, &fakeAuditService{})
	return env
}

func (e *scheduleEnv) createRequest(date string) *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		DoctorID:     e.doctorID,
		ScheduleDate: date,
		Slots: []dto.SlotRequest{
			{Start: "08:00", End: "09:00", Capacity: 2},
			{Start: "09:00", End: "10:00", Capacity: 3},
		},
	}
}

func TestCreateSchedule(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	resp, err := env.uc.CreateSchedule(ctx, env.createRequest("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(resp.Slots))
	}
	for i, slot := range resp.Slots {
		if slot.ID == "" {
			t.Errorf("slot %d: expected generated ID", i)
		}
		if slot.BookedCount != 0 {
			t.Errorf("slot %d: expected zero booked count, got %d", i, slot.BookedCount)
		}
		if slot.Available != slot.Capacity {
			t.Errorf("slot %d: expected available == capacity, got %d", i, slot.Available)
		}
	}

	// The ledger is primed for the new schedule.
	if len(env.ledger.synced) != 1 || env.ledger.synced[0] != resp.ID {
		t.Errorf("expected ledger sync for schedule %s, got %v", resp.ID, env.ledger.synced)
	}
}

func TestCreateScheduleDuplicateDoctorDate(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	if _, err := env.uc.CreateSchedule(ctx, env.createRequest("2026-09-01")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.uc.CreateSchedule(ctx, env.createRequest("2026-09-01")); !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("expected ErrDuplicateSchedule, got %v", err)
	}

	// A different date for the same doctor is fine.
	if _, err := env.uc.CreateSchedule(ctx, env.createRequest("2026-09-02")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateScheduleDoctorNotFound(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	req := env.createRequest("2026-09-01")
	req.DoctorID = uuid.New()
	if _, err := env.uc.CreateSchedule(ctx, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCreateScheduleInvalidDate(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	if _, err := env.uc.CreateSchedule(ctx, env.createRequest("01-09-2026")); !errors.Is(err, ErrInvalidDateFormat) {
		t.Fatalf("expected ErrInvalidDateFormat, got %v", err)
	}
}

func TestCreateScheduleInvalidSlots(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	req := env.createRequest("2026-09-01")
	req.Slots = []dto.SlotRequest{{Start: "10:00", End: "09:00", Capacity: 1}}
	if _, err := env.uc.CreateSchedule(ctx, req); !errors.Is(err, entity.ErrInvalidSlotTimes) {
		t.Fatalf("expected ErrInvalidSlotTimes, got %v", err)
	}
}

// seedBookedSchedule creates a schedule and marks booked units on its first
// slot, with matching confirmed appointment rows.
func (e *scheduleEnv) seedBookedSchedule(t *testing.T, ctx context.Context, booked int) *dto.ScheduleResponse {
	t.Helper()

	resp, err := e.uc.CreateSchedule(ctx, e.createRequest("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < booked; i++ {
		if rows, err := e.scheduleRepo.IncrementSlotBooked(ctx, nil, resp.ID, resp.Slots[0].ID); err != nil || rows != 1 {
			t.Fatalf("failed to seed booked count: rows=%d err=%v", rows, err)
		}
		if err := e.apptRepo.Create(ctx, nil, &entity.Appointment{
			PatientID:  uuid.New(),
			DoctorID:   e.doctorID,
			ScheduleID: resp.ID,
			SlotID:     resp.Slots[0].ID,
			Status:     entity.AppointmentStatusConfirmed,
		}); err != nil {
			t.Fatalf("failed to seed appointment: %v", err)
		}
	}
	return resp
}

func TestUpdateSchedulePreservesBookedCount(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)
	created := env.seedBookedSchedule(t, ctx, 2)

	resp, err := env.uc.UpdateSchedule(ctx, created.ID, &dto.UpdateScheduleRequest{
		Slots: []dto.SlotRequest{
			{ID: created.Slots[0].ID, Start: "08:00", End: "09:00", Capacity: 5},
			{Start: "14:00", End: "15:00", Capacity: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Slots[0].ID != created.Slots[0].ID {
		t.Errorf("kept slot must retain its ID")
	}
	if resp.Slots[0].BookedCount != 2 || resp.Slots[0].Capacity != 5 {
		t.Errorf("kept slot lost state: %+v", resp.Slots[0])
	}
	if resp.Slots[1].BookedCount != 0 || resp.Slots[1].ID == "" {
		t.Errorf("new slot should start empty with a fresh ID: %+v", resp.Slots[1])
	}

	stored := env.scheduleRepo.get(created.ID)
	if len(stored.Slots) != 2 || stored.Slots[0].BookedCount != 2 {
		t.Errorf("persisted slots out of sync: %+v", stored.Slots)
	}
}

func TestUpdateScheduleCapacityBelowBooked(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)
	created := env.seedBookedSchedule(t, ctx, 2)

	_, err := env.uc.UpdateSchedule(ctx, created.ID, &dto.UpdateScheduleRequest{
		Slots: []dto.SlotRequest{
			{ID: created.Slots[0].ID, Start: "08:00", End: "09:00", Capacity: 1},
			{ID: created.Slots[1].ID, Start: "09:00", End: "10:00", Capacity: 3},
		},
	})
	if !errors.Is(err, entity.ErrCapacityBelowBooked) {
		t.Fatalf("expected ErrCapacityBelowBooked, got %v", err)
	}

	// Rejected wholesale: nothing persisted.
	stored := env.scheduleRepo.get(created.ID)
	if stored.Slots[0].Capacity != 2 || stored.Slots[0].BookedCount != 2 {
		t.Errorf("rejected update must not change stored slots: %+v", stored.Slots[0])
	}
}

func TestUpdateScheduleRemoveBookedSlot(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)
	created := env.seedBookedSchedule(t, ctx, 1)

	_, err := env.uc.UpdateSchedule(ctx, created.ID, &dto.UpdateScheduleRequest{
		Slots: []dto.SlotRequest{
			{ID: created.Slots[1].ID, Start: "09:00", End: "10:00", Capacity: 3},
		},
	})
	if !errors.Is(err, entity.ErrBookedSlotRemoved) {
		t.Fatalf("expected ErrBookedSlotRemoved, got %v", err)
	}
}

func TestUpdateScheduleNotFound(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	_, err := env.uc.UpdateSchedule(ctx, uuid.New(), &dto.UpdateScheduleRequest{
		Slots: []dto.SlotRequest{{Start: "08:00", End: "09:00", Capacity: 1}},
	})
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestDeleteScheduleBlockedByBookings(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)
	created := env.seedBookedSchedule(t, ctx, 1)

	if err := env.uc.DeleteSchedule(ctx, created.ID); !errors.Is(err, ErrScheduleHasBookings) {
		t.Fatalf("expected ErrScheduleHasBookings, got %v", err)
	}
	if env.scheduleRepo.get(created.ID) == nil {
		t.Error("blocked delete must leave the schedule in place")
	}
}

func TestDeleteSchedule(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	created, err := env.uc.CreateSchedule(ctx, env.createRequest("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Canceled appointments do not block deletion.
	canceledBy := entity.CancelActorPatient
	now := time.Now().UTC()
	if err := env.apptRepo.Create(ctx, nil, &entity.Appointment{
		PatientID:  uuid.New(),
		DoctorID:   env.doctorID,
		ScheduleID: created.ID,
		SlotID:     created.Slots[0].ID,
		Status:     entity.AppointmentStatusCanceled,
		CanceledBy: &canceledBy,
		CanceledAt: &now,
	}); err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}

	if err := env.uc.DeleteSchedule(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.scheduleRepo.get(created.ID) != nil {
		t.Error("expected schedule removed")
	}
	if len(env.ledger.deleted) != 1 || env.ledger.deleted[0] != created.ID {
		t.Errorf("expected ledger keys dropped for %s, got %v", created.ID, env.ledger.deleted)
	}
}

func TestDeleteScheduleNotFound(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := authedCtx(uuid.New(), entity.RoleIDReceptionist)

	if err := env.uc.DeleteSchedule(ctx, uuid.New()); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}
