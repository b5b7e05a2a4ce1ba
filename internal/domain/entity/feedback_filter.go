package entity

import "github.com/google/uuid"

// FeedbackFilter is a domain-level filter for querying feedback entries.
type FeedbackFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Rating    int
	DateFrom  string // Format: YYYY-MM-DD, filters on created_at
	DateTo    string // Format: YYYY-MM-DD
	Page      int
	PageSize  int
}

// Normalize clamps pagination to sane bounds.
func (f *FeedbackFilter) Normalize() {
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
func (f *FeedbackFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
