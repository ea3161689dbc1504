package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultCategory = "General"
	DefaultSize     = "Regular"
)

// MenuItem is one sellable size of a product; name+size is its natural key.
type MenuItem struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Name        string          `json:"name" gorm:"size:100;not null;index:idx_menu_name_size"`
	Size        string          `json:"size" gorm:"size:50;not null;index:idx_menu_name_size"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Category    string          `json:"category" gorm:"size:50;not null;index"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl" gorm:"size:255"`
	SizeVolume  string          `json:"sizeVolume" gorm:"size:50"`
	Allergens   string          `json:"allergens" gorm:"size:255"`
	Calories    *int            `json:"calories"`
	IsActive    bool            `json:"isActive" gorm:"not null"`
	SortOrder   int             `json:"sortOrder" gorm:"not null"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
