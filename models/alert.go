package models

import (
	"time"

	"gorm.io/gorm"
)

type AlertType string

const (
	AlertLowStock     AlertType = "low_stock"
	AlertOutOfStock   AlertType = "out_of_stock"
	AlertExpiringSoon AlertType = "expiring_soon"
	AlertExpired      AlertType = "expired"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertLowStock, AlertOutOfStock, AlertExpiringSoon, AlertExpired:
		return true
	}
	return false
}

type Alert struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	InventoryItemID    string    `json:"inventoryItemId" gorm:"size:36;not null;index"`
	AlertType          AlertType `json:"alertType" gorm:"size:30;not null"`
	AlertTime          time.Time `json:"alertTime" gorm:"not null;index"`
	NotificationSent   bool      `json:"notificationSent" gorm:"not null"`
	NotificationMethod string    `json:"notificationMethod" gorm:"size:20"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (a *Alert) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.AlertTime.IsZero() {
		a.AlertTime = time.Now().UTC()
	}
	return nil
}
