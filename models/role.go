package models

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"size:50;uniqueIndex;not null"`
	Description  string    `json:"description" gorm:"size:255"`
	IsSystemRole bool      `json:"isSystemRole" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Permission ids are dotted capability names such as "menu.view".
type Permission struct {
	ID          string `json:"id" gorm:"primaryKey;size:50"`
	Name        string `json:"name" gorm:"size:100;not null"`
	Category    string `json:"category" gorm:"size:50;not null"`
	Description string `json:"description" gorm:"size:255"`
}

type RolePermission struct {
	RoleID       string    `gorm:"primaryKey;size:36"`
	PermissionID string    `gorm:"primaryKey;size:50"`
	CreatedAt    time.Time
}

// UserPermission overrides the role grant for one user: Granted=false revokes.
type UserPermission struct {
	UserID       string    `gorm:"primaryKey;size:36"`
	PermissionID string    `gorm:"primaryKey;size:50"`
	Granted      bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
