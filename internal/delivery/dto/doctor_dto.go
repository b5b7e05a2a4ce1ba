package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDoctorRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
	Phone       string `json:"phone"`
	SpecialtyID int    `json:"specialty_id" validate:"required,gte=1"`
	Bio         string `json:"bio"`
	Room        string `json:"room"`
}

type DoctorResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Room      string    `json:"room,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DoctorListResponse struct {
	Doctors []*DoctorResponse `json:"doctors"`
	Total   int64             `json:"total"`
}
