package entity

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a patient's rating of a completed appointment. One feedback per
// appointment, enforced by a unique index.
type Feedback struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	DoctorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	Rating        int       `gorm:"not null" json:"rating"`
	Comment       string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	Appointment Appointment    `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Doctor      DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient     PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
