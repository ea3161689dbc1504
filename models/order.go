package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard
}

// OrderStatus represents all possible states of a POS sale
type OrderStatus string

const (
	StatusCompleted OrderStatus = "completed"
	StatusRefunded  OrderStatus = "refunded"
	StatusVoided    OrderStatus = "voided"
)

func (s OrderStatus) Valid() bool {
	return s == StatusCompleted || s == StatusRefunded || s == StatusVoided
}

// OrderNumberMaxLen bounds the human-facing order label.
const OrderNumberMaxLen = 20

type Order struct {
	ID             string               `gorm:"primaryKey;size:36"`
	OrderNumber    string               `gorm:"size:20;uniqueIndex;not null"`
	SubtotalAmount decimal.Decimal      `gorm:"type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal      `gorm:"type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal      `gorm:"type:numeric(10,2);not null"`
	TotalAmount    decimal.Decimal      `gorm:"type:numeric(10,2);not null"`
	PaymentMethod  PaymentMethod        `gorm:"size:20;not null;index"`
	CashReceived   decimal.NullDecimal  `gorm:"type:numeric(10,2)"`
	ChangeAmount   decimal.NullDecimal  `gorm:"type:numeric(10,2)"`
	Status         OrderStatus          `gorm:"size:20;not null;index"`
	StaffID        string               `gorm:"size:36;not null;index"`
	Staff          *User                `gorm:"foreignKey:StaffID"`
	CustomerName   string               `gorm:"size:100"`
	CustomerEmail  string               `gorm:"size:100"`
	Notes          string
	ReprintCount   int                  `gorm:"not null"`
	LastReprint    *time.Time
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory  []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"index"`
	UpdatedAt      time.Time
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots the product at time of sale; later menu edits do not touch it.
type OrderItem struct {
	ID           string          `gorm:"primaryKey;size:36"`
	OrderID      string          `gorm:"size:36;not null;index"`
	MenuItemID   *string         `gorm:"size:36;index"`
	MenuItem     *MenuItem       `gorm:"foreignKey:MenuItemID;constraint:OnDelete:SET NULL"`
	MenuItemName string          `gorm:"size:100;not null"`
	MenuItemSize string          `gorm:"size:50"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Quantity     int             `gorm:"not null"`
	LineTotal    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Notes        string
	CreatedAt    time.Time
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderStatusHistory tracks every status change after checkout
type OrderStatusHistory struct {
	ID         string      `json:"id" gorm:"primaryKey;size:36"`
	OrderID    string      `json:"orderId" gorm:"size:36;not null;index"`
	FromStatus OrderStatus `json:"fromStatus" gorm:"size:20"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"size:20;not null;index"`
	ChangedBy  string      `json:"changedBy" gorm:"size:36"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt" gorm:"index"`
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
