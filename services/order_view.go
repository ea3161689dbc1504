package services

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"cafe-pos-api/models"
)

// OrderView is the canonical API shape of an order. Historical clients read
// several spellings of the same value, so MarshalJSON adds those aliases.
type OrderView struct {
	ID             string
	OrderNumber    string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  models.PaymentMethod
	CashReceived   decimal.NullDecimal
	ChangeAmount   decimal.NullDecimal
	Status         models.OrderStatus
	StaffID        string
	StaffName      string
	CustomerName   string
	CustomerEmail  string
	Notes          string
	ReprintCount   int
	LastReprint    *time.Time
	Items          []OrderItemView
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItemView struct {
	ID           string
	OrderID      string
	MenuItemID   *string
	MenuItemName string
	MenuItemSize string
	UnitPrice    decimal.Decimal
	Quantity     int
	LineTotal    decimal.Decimal
	Notes        string
}

func NewOrderView(o *models.Order) OrderView {
	v := OrderView{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Subtotal:       o.SubtotalAmount,
		DiscountAmount: o.DiscountAmount,
		TaxAmount:      o.TaxAmount,
		TotalAmount:    o.TotalAmount,
		PaymentMethod:  o.PaymentMethod,
		CashReceived:   o.CashReceived,
		ChangeAmount:   o.ChangeAmount,
		Status:         o.Status,
		StaffID:        o.StaffID,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		Notes:          o.Notes,
		ReprintCount:   o.ReprintCount,
		LastReprint:    o.LastReprint,
		Items:          make([]OrderItemView, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Staff != nil {
		v.StaffName = o.Staff.FullName()
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, NewOrderItemView(it))
	}
	return v
}

func NewOrderItemView(it models.OrderItem) OrderItemView {
	return OrderItemView{
		ID:           it.ID,
		OrderID:      it.OrderID,
		MenuItemID:   it.MenuItemID,
		MenuItemName: it.MenuItemName,
		MenuItemSize: it.MenuItemSize,
		UnitPrice:    it.UnitPrice,
		Quantity:     it.Quantity,
		LineTotal:    it.LineTotal,
		Notes:        it.Notes,
	}
}

func nullable(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

func (v OrderView) MarshalJSON() ([]byte, error) {
	cash := nullable(v.CashReceived)
	change := nullable(v.ChangeAmount)
	items := v.Items
	if items == nil {
		items = []OrderItemView{}
	}
	return json.Marshal(map[string]any{
		"id":              v.ID,
		"orderNumber":     v.OrderNumber,
		"order_number":    v.OrderNumber,
		"subtotal":        v.Subtotal,
		"discountAmount":  v.DiscountAmount,
		"discount_amount": v.DiscountAmount,
		"discount":        v.DiscountAmount,
		"taxAmount":       v.TaxAmount,
		"tax_amount":      v.TaxAmount,
		"tax":             v.TaxAmount,
		"totalAmount":     v.TotalAmount,
		"total_amount":    v.TotalAmount,
		"total":           v.TotalAmount,
		"paymentMethod":   v.PaymentMethod,
		"payment_method":  v.PaymentMethod,
		"cashReceived":    cash,
		"cash_received":   cash,
		"amountPaid":      cash,
		"changeAmount":    change,
		"change_amount":   change,
		"changeGiven":     change,
		"status":          v.Status,
		"staffId":         v.StaffID,
		"staff_id":        v.StaffID,
		"createdBy":       v.StaffID,
		"staffName":       v.StaffName,
		"customerName":    v.CustomerName,
		"customer_name":   v.CustomerName,
		"customerEmail":   v.CustomerEmail,
		"notes":           v.Notes,
		"orderNotes":      v.Notes,
		"reprintCount":    v.ReprintCount,
		"lastReprint":     v.LastReprint,
		"items":           items,
		"order_items":     items,
		"itemCount":       len(items),
		"createdAt":       v.CreatedAt,
		"created_at":      v.CreatedAt,
		"updatedAt":       v.UpdatedAt,
	})
}

func (v OrderItemView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":           v.ID,
		"orderId":      v.OrderID,
		"order_id":     v.OrderID,
		"menuItemId":   v.MenuItemID,
		"menu_item_id": v.MenuItemID,
		"menuItemName": v.MenuItemName,
		"name":         v.MenuItemName,
		"menuItemSize": v.MenuItemSize,
		"size":         v.MenuItemSize,
		"unitPrice":    v.UnitPrice,
		"unit_price":   v.UnitPrice,
		"price":        v.UnitPrice,
		"quantity":     v.Quantity,
		"lineTotal":    v.LineTotal,
		"line_total":   v.LineTotal,
		"notes":        v.Notes,
	})
}
