package entity

// DoctorFilter is a domain-level filter for querying doctors.
type DoctorFilter struct {
	SpecialtyID int
	Keyword     string // matches name or email (ILIKE)
	Page        int
	PageSize    int
}

// Normalize clamps pagination to sane bounds.
func (f *DoctorFilter) Normalize() {
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
func (f *DoctorFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
