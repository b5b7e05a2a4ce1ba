package dto

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	PatientID  uuid.UUID `json:"patient_id" validate:"required"`
	ScheduleID uuid.UUID `json:"schedule_id" validate:"required"`
	SlotID     string    `json:"slot_id" validate:"required"`
	Reason     string    `json:"reason" validate:"required"`
	Note       string    `json:"note"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed no_show"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	PatientName string     `json:"patient_name,omitempty"`
	DoctorID    uuid.UUID  `json:"doctor_id"`
	DoctorName  string     `json:"doctor_name,omitempty"`
	Specialty   string     `json:"specialty,omitempty"`
	ScheduleID  uuid.UUID  `json:"schedule_id"`
	SlotID      string     `json:"slot_id"`
	SlotIndex   int        `json:"slot_index"`
	SlotStart   string     `json:"slot_start,omitempty"`
	SlotEnd     string     `json:"slot_end,omitempty"`
	Date        string     `json:"date,omitempty"`
	Reason      string     `json:"reason"`
	Note        string     `json:"note,omitempty"`
	Status      string     `json:"status"`
	CanceledBy  string     `json:"canceled_by,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []*AppointmentResponse `json:"appointments"`
	Total        int64                  `json:"total"`
}
