package usecase

import (
	"context"
	"errors"
	"testing"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

type feedbackEnv struct {
	feedbackRepo *fakeFeedbackRepo
	apptRepo     *fakeAppointmentRepo

	patientID     uuid.UUID
	appointmentID uuid.UUID
	uc            FeedbackUsecase
}

func newFeedbackEnv(t *testing.T, status entity.AppointmentStatus) *feedbackEnv {
	t.Helper()

	env := &feedbackEnv{
		feedbackRepo: newFakeFeedbackRepo(),
		apptRepo:     newFakeAppointmentRepo(),
	}
	env.patientID = uuid.New()

	appointment := &entity.Appointment{
		PatientID:  env.patientID,
		DoctorID:   uuid.New(),
		ScheduleID: uuid.New(),
		SlotID:     uuid.NewString(),
		Status:     status,
	}
	if err := env.apptRepo.Create(context.Background(), nil, appointment); err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	env.appointmentID = appointment.ID

	env.uc = NewFeedbackUsecase(nil, testLogger(), passthroughTxManager{},
		env.feedbackRepo, env.apptRepo, &fakeAuditService{})
	return env
}

func (e *feedbackEnv) request() *dto.CreateFeedbackRequest {
	return &dto.CreateFeedbackRequest{
		AppointmentID: e.appointmentID,
		Rating:        4,
		Comment:       "helpful and on time",
	}
}

func TestCreateFeedback(t *testing.T) {
	env := newFeedbackEnv(t, entity.AppointmentStatusCompleted)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	resp, err := env.uc.CreateFeedback(ctx, env.request())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AppointmentID != env.appointmentID || resp.Rating != 4 {
		t.Errorf("response out of sync: %+v", resp)
	}
}

func TestCreateFeedbackNotCompleted(t *testing.T) {
	for _, status := range []entity.AppointmentStatus{
		entity.AppointmentStatusConfirmed,
		entity.AppointmentStatusCanceled,
		entity.AppointmentStatusNoShow,
	} {
		env := newFeedbackEnv(t, status)
		ctx := authedCtx(env.patientID, entity.RoleIDPatient)

		if _, err := env.uc.CreateFeedback(ctx, env.request()); !errors.Is(err, ErrAppointmentNotCompleted) {
			t.Errorf("status %s: expected ErrAppointmentNotCompleted, got %v", status, err)
		}
	}
}

func TestCreateFeedbackNotOwnAppointment(t *testing.T) {
	env := newFeedbackEnv(t, entity.AppointmentStatusCompleted)
	ctx := authedCtx(uuid.New(), entity.RoleIDPatient)

	if _, err := env.uc.CreateFeedback(ctx, env.request()); !errors.Is(err, ErrFeedbackNotAllowed) {
		t.Fatalf("expected ErrFeedbackNotAllowed, got %v", err)
	}
}

func TestCreateFeedbackDuplicate(t *testing.T) {
	env := newFeedbackEnv(t, entity.AppointmentStatusCompleted)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	if _, err := env.uc.CreateFeedback(ctx, env.request()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.uc.CreateFeedback(ctx, env.request()); !errors.Is(err, ErrFeedbackAlreadySubmitted) {
		t.Fatalf("expected ErrFeedbackAlreadySubmitted, got %v", err)
	}
}

func TestCreateFeedbackAppointmentNotFound(t *testing.T) {
	env := newFeedbackEnv(t, entity.AppointmentStatusCompleted)
	ctx := authedCtx(env.patientID, entity.RoleIDPatient)

	req := env.request()
	req.AppointmentID = uuid.New()
	if _, err := env.uc.CreateFeedback(ctx, req); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}
