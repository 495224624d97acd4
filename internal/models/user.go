package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold.
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User represents a user of the store.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"uniqueIndex;type:varchar(50);not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"` // Never serialised
	FullName     string         `json:"full_name" gorm:"type:varchar(100)"`
	Phone        string         `json:"phone" gorm:"type:varchar(20)"`
	Role         string         `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// FirstName is the first word of FullName.
func (u *User) FirstName() string {
	parts := strings.Fields(u.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName is everything in FullName after the first word.
func (u *User) LastName() string {
	parts := strings.Fields(u.FullName)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}

// IsStaff reports whether the user may manage orders and products.
func (u *User) IsStaff() bool {
	return IsStaffRole(u.Role)
}

// IsStaffRole reports whether role grants access to the admin panel.
func IsStaffRole(role string) bool {
	return strings.EqualFold(role, RoleAdmin) || strings.EqualFold(role, RoleManager)
}
