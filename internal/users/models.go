package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleVisitor Role = "VISITOR"
	RoleHost    Role = "HOST"
	RoleAdmin   Role = "ADMIN"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"not null;default:'VISITOR'"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"phone,omitempty"`

	// Host moderation. Set by the admin host-disable path; a disabled host
	// can no longer accept bookings on any of their places.
	HostingDisabled  bool       `json:"hosting_disabled" gorm:"default:false"`
	DisabledAt       *time.Time `json:"disabled_at,omitempty"`
	DisabledReason   string     `json:"disabled_reason,omitempty"`
	DisabledByUserID *uuid.UUID `json:"disabled_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func IsValidRole(role string) bool {
	switch role {
	case string(RoleVisitor), string(RoleHost), string(RoleAdmin):
		return true
	default:
		return false
	}
}

// FullName joins first and last name for display and email greetings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsHost reports whether the user can create and manage places.
func (u *User) IsHost() bool {
	return u.Role == RoleHost && !u.HostingDisabled
}
