package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDReceptionist = 1
	RoleIDDoctor       = 2
	RoleIDPatient      = 3
)

// RoleNames constants
const (
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
	RolePatient      = "patient"
)

// CancelActorForRole maps an authenticated role to the actor recorded on a
// cancellation. Unknown roles default to receptionist, the only role allowed
// through the receptionist-facing surface.
func CancelActorForRole(roleID int) CancelActor {
	switch roleID {
	case RoleIDDoctor:
		return CancelActorDoctor
	case RoleIDPatient:
		return CancelActorPatient
	default:
		return CancelActorReceptionist
	}
}
