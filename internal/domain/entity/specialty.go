package entity

// Specialty is the reference list of medical specialties doctors belong to.
// Schedule and doctor queries filter through it.
type Specialty struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Doctors []DoctorProfile `gorm:"foreignKey:SpecialtyID" json:"doctors,omitempty"`
}

func (Specialty) TableName() string {
	return "specialties"
}
