package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting holds one JSON document per settings section.
type Setting struct {
	Key       string         `gorm:"primaryKey;size:50"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}
