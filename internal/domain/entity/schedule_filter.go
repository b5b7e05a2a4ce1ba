package entity

import "github.com/google/uuid"

// ScheduleFilter is a domain-level filter for querying schedules.
// Used by repository layer to avoid coupling with delivery DTOs.
type ScheduleFilter struct {
	DoctorID    *uuid.UUID
	Date        string // Format: YYYY-MM-DD
	SpecialtyID int
}
