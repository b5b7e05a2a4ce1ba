package dto

import (
	"time"

	"github.com/google/uuid"
)

// SlotRequest is one slot in a create or update payload. ID is empty for new
// slots; on update, slots carrying an existing ID keep their booked count.
type SlotRequest struct {
	ID       string `json:"id,omitempty"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gte=1"`
}

type CreateScheduleRequest struct {
	DoctorID     uuid.UUID     `json:"doctor_id" validate:"required"`
	ScheduleDate string        `json:"schedule_date" validate:"required"`
	Slots        []SlotRequest `json:"slots" validate:"required,min=1,dive"`
}

type UpdateScheduleRequest struct {
	Slots []SlotRequest `json:"slots" validate:"required,min=1,dive"`
}

type SlotResponse struct {
	ID          string `json:"id"`
	Index       int    `json:"index"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Capacity    int    `json:"capacity"`
	BookedCount int    `json:"booked_count"`
	Available   int    `json:"available"`
}

type ScheduleResponse struct {
	ID           uuid.UUID      `json:"id"`
	DoctorID     uuid.UUID      `json:"doctor_id"`
	DoctorName   string         `json:"doctor_name,omitempty"`
	Specialty    string         `json:"specialty,omitempty"`
	Room         string         `json:"room,omitempty"`
	ScheduleDate string         `json:"schedule_date"`
	Slots        []SlotResponse `json:"slots"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ScheduleListResponse struct {
	Schedules []*ScheduleResponse `json:"schedules"`
	Total     int                 `json:"total"`
}
