package entity

import "github.com/google/uuid"

// AppointmentFilter is a domain-level filter for querying appointments.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	DateFrom  string // Format: YYYY-MM-DD, filters on created_at
	DateTo    string // Format: YYYY-MM-DD
	Page      int
	PageSize  int
}

// Normalize clamps pagination to sane bounds.
func (f *AppointmentFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// Offset returns the row offset for the current page.
func (f *AppointmentFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
