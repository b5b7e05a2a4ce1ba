package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/infrastructure/cache"

	"github.com/google/uuid"
)

func authedCtx(userID uuid.UUID, roleID int) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	return context.WithValue(ctx, middleware.RoleIDKey, roleID)
}

type bookingEnv struct {
	scheduleRepo *fakeScheduleRepo
	apptRepo     *fakeAppointmentRepo
	patientRepo  *fakePatientProfileRepo
	ledger       *fakeSlotLedger
	locker       *fakeSlotLocker

	schedule  *entity.Schedule
	slotID    string
	patientID uuid.UUID

	uc AppointmentUsecase
}

func (e *bookingEnv) build(txm repository.TxManager) AppointmentUsecase {
	return NewAppointmentUsecase(nil, testLogger(), txm,
		e.apptRepo, e.scheduleRepo, e.patientRepo, e.locker, e.ledger, &fakeAuditService{})
}

func newBookingEnv(t *testing.T, capacity int) *bookingEnv {
	t.Helper()

	env := &bookingEnv{
		scheduleRepo: newFakeScheduleRepo(),
		apptRepo:     newFakeAppointmentRepo(),
		patientRepo:  newFakePatientProfileRepo(),
		ledger:       newFakeSlotLedger(),
		locker:       &fakeSlotLocker{},
	}

	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	env.slotID = uuid.NewString()
	env.schedule = &entity.Schedule{
		ID:           uuid.New(),
		DoctorID:     uuid.New(),
		ScheduleDate: tomorrow,
		Slots: entity.SlotList{
			{ID: env.slotID, Start: "08:00", End: "09:00", Capacity: capacity},
		},
	}
	env.scheduleRepo.add(env.schedule)

	env.patientID = uuid.New()
	env.patientRepo.add(&entity.PatientProfile{UserID: env.patientID})

	env.uc = env.build(passthroughTxManager{})
	return env
}

func (e *bookingEnv) bookRequest() *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{
		PatientID:  e.patientID,
		ScheduleID: e.schedule.ID,
		SlotID:     e.slotID,
		Reason:     "checkup",
	}
}

// Booking N concurrent requests against a slot with capacity C admits exactly
// C of them; the rest fail with the slot-full error and nothing overshoots.
func TestBookConcurrentRespectsCapacity(t *testing.T) {
	const capacity = 3
	const attempts = 20

	env := newBookingEnv(t, capacity)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	barrier := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-barrier
			_, errs[i] = env.uc.Book(ctx, env.bookRequest())
		}(i)
	}
	close(barrier)
	wg.Wait()

	var booked, full int
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case errors.Is(err, entity.ErrSlotFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if booked != capacity {
		t.Errorf("expected %d successful bookings, got %d", capacity, booked)
	}
	if full != attempts-capacity {
		t.Errorf("expected %d slot-full rejections, got %d", attempts-capacity, full)
	}

	stored := env.scheduleRepo.get(env.schedule.ID)
	if stored.Slots[0].BookedCount != capacity {
		t.Errorf("expected booked count %d, got %d", capacity, stored.Slots[0].BookedCount)
	}
	if n := env.apptRepo.confirmedCount(env.schedule.ID, env.slotID); n != capacity {
		t.Errorf("expected %d confirmed appointments, got %d", capacity, n)
	}
	if remaining := env.ledger.remainingFor(env.schedule.ID, env.slotID); remaining != 0 {
		t.Errorf("expected ledger drained to 0, got %d", remaining)
	}
}

func TestBookSequentialUntilFull(t *testing.T) {
	env := newBookingEnv(t, 2)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	for i := 0; i < 2; i++ {
		if _, err := env.uc.Book(ctx, env.bookRequest()); err != nil {
			t.Fatalf("booking %d: unexpected error: %v", i, err)
		}
	}
	if _, err := env.uc.Book(ctx, env.bookRequest()); !errors.Is(err, entity.ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
}

func TestBookScheduleNotFound(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	req := env.bookRequest()
	req.ScheduleID = uuid.New()
	if _, err := env.uc.Book(ctx, req); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestBookSlotNotFound(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	req := env.bookRequest()
	req.SlotID = uuid.NewString()
	if _, err := env.uc.Book(ctx, req); !errors.Is(err, entity.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestBookPastSchedule(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	env.schedule.ScheduleDate = time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	env.scheduleRepo.add(env.schedule)

	if _, err := env.uc.Book(ctx, env.bookRequest()); !errors.Is(err, ErrSchedulePast) {
		t.Fatalf("expected ErrSchedulePast, got %v", err)
	}
}

func TestBookPatientNotFound(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	req := env.bookRequest()
	req.PatientID = uuid.New()
	if _, err := env.uc.Book(ctx, req); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestBookLockContention(t *testing.T) {
	env := newBookingEnv(t, 1)
	env.locker.err = cache.ErrSlotLockNotAcquired
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	if _, err := env.uc.Book(ctx, env.bookRequest()); !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("expected ErrSlotBusy, got %v", err)
	}
}

// A failed appointment insert rolls back the booked-count increment and
// releases the ledger reservation, leaving the slot fully available.
func TestBookCompensatesOnInsertFailure(t *testing.T) {
	env := newBookingEnv(t, 2)
	env.apptRepo.createErr = errors.New("insert failed")
	env.uc = env.build(&snapshotTxManager{
		snapshots: []func() func(){env.scheduleRepo.snapshot, env.apptRepo.snapshot},
	})
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	if _, err := env.uc.Book(ctx, env.bookRequest()); err == nil {
		t.Fatal("expected an error")
	}

	stored := env.scheduleRepo.get(env.schedule.ID)
	if stored.Slots[0].BookedCount != 0 {
		t.Errorf("expected booked count rolled back to 0, got %d", stored.Slots[0].BookedCount)
	}
	if remaining := env.ledger.remainingFor(env.schedule.ID, env.slotID); remaining != 2 {
		t.Errorf("expected ledger restored to 2, got %d", remaining)
	}
	if n := env.apptRepo.confirmedCount(env.schedule.ID, env.slotID); n != 0 {
		t.Errorf("expected no confirmed appointments, got %d", n)
	}

	// The slot is still bookable after the failure.
	env.apptRepo.createErr = nil
	if _, err := env.uc.Book(ctx, env.bookRequest()); err != nil {
		t.Fatalf("expected booking to succeed after recovery, got %v", err)
	}
}

// Cancel frees the unit: on a capacity-1 slot, book / full / cancel / book.
func TestCancelRestoresCapacity(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	first, err := env.uc.Book(ctx, env.bookRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.uc.Book(ctx, env.bookRequest()); !errors.Is(err, entity.ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}

	if err := env.uc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}

	stored := env.scheduleRepo.get(env.schedule.ID)
	if stored.Slots[0].BookedCount != 0 {
		t.Errorf("expected booked count back to 0, got %d", stored.Slots[0].BookedCount)
	}

	if _, err := env.uc.Book(ctx, env.bookRequest()); err != nil {
		t.Fatalf("expected rebooking to succeed, got %v", err)
	}

	canceled, err := env.apptRepo.FindByID(ctx, nil, first.ID)
	if err != nil || canceled == nil {
		t.Fatalf("expected canceled appointment to exist: %v", err)
	}
	if canceled.Status != entity.AppointmentStatusCanceled {
		t.Errorf("expected canceled status, got %s", canceled.Status)
	}
	if canceled.CanceledBy == nil || *canceled.CanceledBy != entity.CancelActorPatient {
		t.Error("expected canceled_by to record the patient actor")
	}
}

func TestCancelTwice(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	booked, err := env.uc.Book(ctx, env.bookRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.uc.Cancel(ctx, booked.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.uc.Cancel(ctx, booked.ID); !errors.Is(err, entity.ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable, got %v", err)
	}

	// The double cancel must not release a second unit.
	stored := env.scheduleRepo.get(env.schedule.ID)
	if stored.Slots[0].BookedCount != 0 {
		t.Errorf("expected booked count 0, got %d", stored.Slots[0].BookedCount)
	}
	if remaining := env.ledger.remainingFor(env.schedule.ID, env.slotID); remaining != 1 {
		t.Errorf("expected ledger capped at capacity 1, got %d", remaining)
	}
}

func TestCancelNotFound(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	if err := env.uc.Cancel(ctx, uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestUpdateStatusTerminal(t *testing.T) {
	env := newBookingEnv(t, 1)
	ctx := authedCtx(uuid.New(), entity.RoleIDDoctor)
	patientCtx := authedCtx(env.patientID, entity.RoleIDPatient)

	booked, err := env.uc.Book(patientCtx, env.bookRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := &dto.UpdateAppointmentStatusRequest{Status: string(entity.AppointmentStatusCompleted)}
	if err := env.uc.UpdateStatus(ctx, booked.ID, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Completed is terminal: no further transitions, no cancel.
	req.Status = string(entity.AppointmentStatusNoShow)
	if err := env.uc.UpdateStatus(ctx, booked.ID, req); !errors.Is(err, entity.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := env.uc.Cancel(patientCtx, booked.ID); !errors.Is(err, entity.ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable, got %v", err)
	}

	// Completing keeps the slot unit consumed.
	stored := env.scheduleRepo.get(env.schedule.ID)
	if stored.Slots[0].BookedCount != 1 {
		t.Errorf("expected booked count 1, got %d", stored.Slots[0].BookedCount)
	}
}
