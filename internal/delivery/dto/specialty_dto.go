package dto

type SpecialtyResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type SpecialtyListResponse struct {
	Specialties []*SpecialtyResponse `json:"specialties"`
	Total       int                  `json:"total"`
}
