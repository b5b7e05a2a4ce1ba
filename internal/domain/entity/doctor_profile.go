package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	SpecialtyID int       `gorm:"not null;index" json:"specialty_id"`
	Bio         string    `gorm:"type:text" json:"bio,omitempty"`
	Room        string    `gorm:"type:varchar(50)" json:"room,omitempty"`

	// Relationships
	User      User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Specialty Specialty  `gorm:"foreignKey:SpecialtyID" json:"specialty,omitempty"`
	Schedules []Schedule `gorm:"foreignKey:DoctorID" json:"schedules,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}
