package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	FirstName string         `json:"firstName" gorm:"not null"`
	LastName  string         `json:"lastName" gorm:"not null"`
	Role      UserRole       `json:"role" gorm:"not null;default:'MEMBER'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Devices are visible to a user through the groups they belong to
	Groups []Group `json:"groups,omitempty" gorm:"many2many:group_users"`
}

// IsAdmin reports whether the user can see every device.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (User) TableName() string {
	return "users"
}
