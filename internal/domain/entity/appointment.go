package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// CancelActor identifies who canceled an appointment
type CancelActor string

const (
	CancelActorPatient      CancelActor = "patient"
	CancelActorDoctor       CancelActor = "doctor"
	CancelActorReceptionist CancelActor = "receptionist"
)

var (
	ErrNotCancelable          = errors.New("only confirmed appointments can be canceled")
	ErrInvalidStateTransition = errors.New("invalid appointment state transition")
)

// Appointment is a reservation of exactly one slot by one patient. It
// references the slot by the schedule ID plus the slot's stable ID; the index
// is kept for display only.
type Appointment struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ScheduleID uuid.UUID          `gorm:"type:uuid;not null;index:idx_appointments_schedule_slot" json:"schedule_id"`
	SlotID     string             `gorm:"type:varchar(36);not null;index:idx_appointments_schedule_slot" json:"slot_id"`
	SlotIndex  int                `gorm:"not null" json:"slot_index"`
	Reason     string             `gorm:"type:text;not null" json:"reason"`
	Note       string             `gorm:"type:text" json:"note"`
	Status     AppointmentStatus  `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	CanceledBy *CancelActor       `gorm:"type:varchar(20)" json:"canceled_by,omitempty"`
	CanceledAt *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt  time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient  PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor   DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Schedule Schedule       `gorm:"foreignKey:ScheduleID" json:"schedule,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsConfirmed reports whether the appointment still occupies slot capacity.
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// Cancel transitions confirmed -> canceled and records who and when.
func (a *Appointment) Cancel(actor CancelActor, at time.Time) error {
	if a.Status != AppointmentStatusConfirmed {
		return ErrNotCancelable
	}
	a.Status = AppointmentStatusCanceled
	a.CanceledBy = &actor
	a.CanceledAt = &at
	return nil
}

// Transition moves the appointment into a terminal outcome state. Only
// confirmed appointments can be completed or marked no-show; cancellation has
// its own path that also releases the slot.
func (a *Appointment) Transition(target AppointmentStatus) error {
	if target != AppointmentStatusCompleted && target != AppointmentStatusNoShow {
		return ErrInvalidStateTransition
	}
	if a.Status != AppointmentStatusConfirmed {
		return ErrInvalidStateTransition
	}
	a.Status = target
	return nil
}
