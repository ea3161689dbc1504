package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryStatus is derived at read time and never stored.
type InventoryStatus string

const (
	StockIn      InventoryStatus = "in_stock"
	StockLow     InventoryStatus = "low_stock"
	StockOut     InventoryStatus = "out_of_stock"
	StockExpired InventoryStatus = "expired"
)

type InventoryItem struct {
	ID            string              `json:"id" gorm:"primaryKey;size:36"`
	Name          string              `json:"name" gorm:"size:100;not null;index"`
	Category      string              `json:"category" gorm:"size:50;not null;index"`
	CurrentStock  decimal.Decimal     `json:"currentStock" gorm:"type:numeric(10,3);not null"`
	MinimumStock  decimal.Decimal     `json:"minimumStock" gorm:"type:numeric(10,3);not null"`
	MaximumStock  decimal.NullDecimal `json:"maximumStock" gorm:"type:numeric(10,3)"`
	Unit          string              `json:"unit" gorm:"size:20;not null"`
	CostPerUnit   decimal.Decimal     `json:"costPerUnit" gorm:"type:numeric(10,4);not null"`
	Supplier      string              `json:"supplier" gorm:"size:100"`
	LastRestocked *time.Time          `json:"lastRestocked"`
	ExpiryDate    *time.Time          `json:"expiryDate"`
	Barcode       string              `json:"barcode" gorm:"size:100"`
	Description   string              `json:"description"`
	Location      string              `json:"location" gorm:"size:100"`
	IsActive      bool                `json:"isActive" gorm:"not null"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Status checks expiry first, then the stock thresholds.
func (i *InventoryItem) Status(now time.Time) InventoryStatus {
	switch {
	case i.ExpiryDate != nil && i.ExpiryDate.Before(now):
		return StockExpired
	case i.CurrentStock.Sign() <= 0:
		return StockOut
	case i.CurrentStock.LessThanOrEqual(i.MinimumStock):
		return StockLow
	default:
		return StockIn
	}
}

type MovementType string

const (
	MovementRestock    MovementType = "restock"
	MovementUsage      MovementType = "usage"
	MovementWaste      MovementType = "waste"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is the audit trail of every manual stock adjustment.
type StockMovement struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	InventoryItemID string          `json:"inventoryItemId" gorm:"size:36;not null;index"`
	MovementType    MovementType    `json:"movementType" gorm:"size:20;not null"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:numeric(10,3);not null"`
	PreviousStock   decimal.Decimal `json:"previousStock" gorm:"type:numeric(10,3);not null"`
	NewStock        decimal.Decimal `json:"newStock" gorm:"type:numeric(10,3);not null"`
	Notes           string          `json:"notes"`
	StaffID         *string         `json:"staffId" gorm:"size:36"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
