package entity

import (
	"errors"
	"testing"
	"time"
)

func TestAppointmentCancel(t *testing.T) {
	now := time.Now().UTC()
	a := &Appointment{Status: AppointmentStatusConfirmed}

	if err := a.Cancel(CancelActorPatient, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AppointmentStatusCanceled {
		t.Errorf("expected canceled, got %s", a.Status)
	}
	if a.CanceledBy == nil || *a.CanceledBy != CancelActorPatient {
		t.Error("expected canceled_by to record the actor")
	}
	if a.CanceledAt == nil || !a.CanceledAt.Equal(now) {
		t.Error("expected canceled_at to record the time")
	}

	// Terminal state: a second cancel fails.
	if err := a.Cancel(CancelActorDoctor, now); !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable, got %v", err)
	}
}

func TestAppointmentCancelFromTerminalStates(t *testing.T) {
	for _, status := range []AppointmentStatus{
		AppointmentStatusCanceled,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	} {
		a := &Appointment{Status: status}
		if err := a.Cancel(CancelActorReceptionist, time.Now()); !errors.Is(err, ErrNotCancelable) {
			t.Errorf("cancel from %s: expected ErrNotCancelable, got %v", status, err)
		}
	}
}

func TestAppointmentTransition(t *testing.T) {
	a := &Appointment{Status: AppointmentStatusConfirmed}
	if err := a.Transition(AppointmentStatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AppointmentStatusCompleted {
		t.Errorf("expected completed, got %s", a.Status)
	}

	// Completed is terminal.
	if err := a.Transition(AppointmentStatusNoShow); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	b := &Appointment{Status: AppointmentStatusConfirmed}
	if err := b.Transition(AppointmentStatusNoShow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Canceled is not a Transition target; it has its own path.
	c := &Appointment{Status: AppointmentStatusConfirmed}
	if err := c.Transition(AppointmentStatusCanceled); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestCancelActorForRole(t *testing.T) {
	if got := CancelActorForRole(RoleIDDoctor); got != CancelActorDoctor {
		t.Errorf("expected doctor actor, got %s", got)
	}
	if got := CancelActorForRole(RoleIDPatient); got != CancelActorPatient {
		t.Errorf("expected patient actor, got %s", got)
	}
	if got := CancelActorForRole(RoleIDReceptionist); got != CancelActorReceptionist {
		t.Errorf("expected receptionist actor, got %s", got)
	}
	if got := CancelActorForRole(99); got != CancelActorReceptionist {
		t.Errorf("expected receptionist fallback, got %s", got)
	}
}
