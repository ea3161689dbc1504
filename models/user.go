package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleCashier UserRole = "cashier"
	RoleTrainee UserRole = "trainee"
)

// AllRoles lists the built-in roles in descending privilege order.
var AllRoles = []UserRole{RoleAdmin, RoleManager, RoleCashier, RoleTrainee}

func (r UserRole) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// SystemUsername is the seeded actor that owns orders with no resolvable staff member.
const SystemUsername = "system"

type User struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:36"`
	Username            string     `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email               *string    `json:"email" gorm:"size:100;uniqueIndex"`
	PasswordHash        string     `json:"-" gorm:"size:255;not null"`
	PinHash             string     `json:"-" gorm:"size:255"`
	FirstName           string     `json:"firstName" gorm:"size:50"`
	LastName            string     `json:"lastName" gorm:"size:50"`
	Role                UserRole   `json:"role" gorm:"size:20;not null;index"`
	IsActive            bool       `json:"isActive" gorm:"not null"`
	IsSystem            bool       `json:"-" gorm:"not null"`
	FailedLoginAttempts int        `json:"-" gorm:"not null"`
	LockedUntil         *time.Time `json:"lockedUntil,omitempty"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	ShiftStart          *time.Time `json:"shiftStart,omitempty"`
	ShiftEnd            *time.Time `json:"shiftEnd,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// FullName falls back to the username when no name is on file.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsLocked reports whether a lockout is still in force at t.
func (u *User) IsLocked(t time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(t)
}

// PasswordResetToken stores only the SHA-256 of the token handed to the user.
type PasswordResetToken struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;index"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (t *PasswordResetToken) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
