package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/printer"
)

// totalTolerance is how far total may drift from subtotal-discount+tax.
var totalTolerance = decimal.RequireFromString("0.01")

// ReceiptPrinter is the part of printer.Service the order flow needs.
type ReceiptPrinter interface {
	Print(ctx context.Context, r printer.Receipt, reprint bool) printer.Result
}

type LineItemInput struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name" validate:"max=100"`
	Size       string          `json:"size" validate:"max=50"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	Notes      string          `json:"notes"`
}

type CreateOrderInput struct {
	StaffID        string               `json:"staffId"`
	Subtotal       decimal.Decimal      `json:"subtotal" validate:"gte=0"`
	TaxAmount      decimal.Decimal      `json:"taxAmount" validate:"gte=0"`
	DiscountAmount decimal.Decimal      `json:"discountAmount" validate:"gte=0"`
	TotalAmount    decimal.Decimal      `json:"totalAmount" validate:"gte=0"`
	PaymentMethod  models.PaymentMethod `json:"paymentMethod"`
	CashReceived   decimal.NullDecimal  `json:"cashReceived" validate:"omitempty,gte=0"`
	ChangeAmount   decimal.NullDecimal  `json:"changeAmount" validate:"omitempty,gte=0"`
	Status         models.OrderStatus   `json:"status"`
	CustomerName   string               `json:"customerName" validate:"max=100"`
	CustomerEmail  string               `json:"customerEmail" validate:"omitempty,email,max=100"`
	Notes          string               `json:"notes"`
	Items          []LineItemInput      `json:"items" validate:"dive"`
}

// OrderResult is what the create and reprint endpoints return.
type OrderResult struct {
	Order         OrderView                 `json:"order"`
	Receipt       *printer.Result           `json:"receipt,omitempty"`
	SkippedItems  []controllers.SkippedItem `json:"skippedItems"`
	StaffFallback bool                      `json:"staffFallback"`
}

type OrderService struct {
	orders      *controllers.OrdersController
	printer     ReceiptPrinter
	strictStaff bool
	autoPrint   bool
	log         *logrus.Entry
	now         func() time.Time
}

type OrderOptions struct {
	StrictStaff bool
	AutoPrint   bool
}

func NewOrderService(orders *controllers.OrdersController, p ReceiptPrinter, opts OrderOptions, log *logrus.Logger) *OrderService {
	return &OrderService{
		orders:      orders,
		printer:     p,
		strictStaff: opts.StrictStaff,
		autoPrint:   opts.AutoPrint,
		log:         log.WithField("component", "orders"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks enums and money before anything is written.
func (s *OrderService) Validate(in *CreateOrderInput) error {
	var msgs []string
	if !in.PaymentMethod.Valid() {
		msgs = append(msgs, "paymentMethod must be one of [cash card]")
	}
	if in.Status == "" {
		in.Status = models.StatusCompleted
	}
	if !in.Status.Valid() {
		msgs = append(msgs, "status must be one of [completed refunded voided]")
	}
	if len(in.Items) == 0 {
		msgs = append(msgs, "items are required")
	}
	if len(msgs) > 0 {
		return apperr.Validation(msgs...)
	}
	if err := apperr.Check(in); err != nil {
		return err
	}

	expected := in.Subtotal.Sub(in.DiscountAmount).Add(in.TaxAmount)
	if in.TotalAmount.Sub(expected).Abs().GreaterThan(totalTolerance) {
		return apperr.Validation(fmt.Sprintf(
			"totalAmount %s does not equal subtotal - discountAmount + taxAmount (%s)",
			in.TotalAmount.StringFixed(2), expected.StringFixed(2)))
	}
	if in.PaymentMethod == models.PaymentCash && in.CashReceived.Valid &&
		in.CashReceived.Decimal.LessThan(in.TotalAmount) {
		return apperr.Validation("cashReceived must cover totalAmount")
	}
	return nil
}

// Create persists the order with its items, then prints the receipt.
// Printing can only ever add a result; it never fails the sale.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*OrderResult, error) {
	if err := s.Validate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	id := uuid.NewString()
	header := models.Order{
		ID:             id,
		OrderNumber:    OrderNumber(id, now),
		SubtotalAmount: in.Subtotal.Round(2),
		DiscountAmount: in.DiscountAmount.Round(2),
		TaxAmount:      in.TaxAmount.Round(2),
		TotalAmount:    in.TotalAmount.Round(2),
		PaymentMethod:  in.PaymentMethod,
		CashReceived:   in.CashReceived,
		ChangeAmount:   in.ChangeAmount,
		Status:         in.Status,
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.PaymentMethod == models.PaymentCash && in.CashReceived.Valid && !in.ChangeAmount.Valid {
		header.ChangeAmount = decimal.NewNullDecimal(in.CashReceived.Decimal.Sub(header.TotalAmount).Round(2))
	}

	items := make([]controllers.NewOrderItem, 0, len(in.Items))
	lineSum := decimal.Zero
	for _, it := range in.Items {
		items = append(items, controllers.NewOrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Size:       it.Size,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Notes:      it.Notes,
		})
		if it.MenuItemID != "" && it.Quantity > 0 {
			lineSum = lineSum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	created, err := s.orders.Create(ctx, controllers.NewOrder{
		Header:      header,
		StaffRef:    in.StaffID,
		StrictStaff: s.strictStaff,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"order": created.Order.OrderNumber, "total": created.Order.TotalAmount.StringFixed(2)})
	if created.StaffFallback {
		log.WithField("staff_ref", in.StaffID).Warn("staff reference unresolved, order attributed to fallback account")
	}
	if len(created.Skipped) > 0 {
		log.WithField("skipped", len(created.Skipped)).Warn("order saved without some line items")
	}
	if lineSum.Round(2).Sub(header.SubtotalAmount).Abs().GreaterThan(totalTolerance) {
		log.WithField("line_sum", lineSum.StringFixed(2)).Warn("subtotal differs from the sum of line items")
	}
	log.Info("order created")

	res := &OrderResult{
		Order:         NewOrderView(created.Order),
		SkippedItems:  created.Skipped,
		StaffFallback: created.StaffFallback,
	}
	if s.autoPrint && s.printer != nil {
		pr := s.printer.Print(ctx, ReceiptFor(created.Order), false)
		res.Receipt = &pr
	}
	return res, nil
}

// Refund marks a completed order as refunded.
func (s *OrderService) Refund(ctx context.Context, id, actorID, reason string, perms PermissionSet) (*OrderView, error) {
	return s.transition(ctx, id, models.StatusRefunded, actorID, reason, perms)
}

// Void cancels a completed order.
func (s *OrderService) Void(ctx context.Context, id, actorID, reason string, perms PermissionSet) (*OrderView, error) {
	return s.transition(ctx, id, models.StatusVoided, actorID, reason, perms)
}

// ChangeStatus is the generic entry used by order updates that carry a status.
func (s *OrderService) ChangeStatus(ctx context.Context, id string, to models.OrderStatus, actorID, note string, perms PermissionSet) (*OrderView, error) {
	if !to.Valid() {
		return nil, apperr.Validation("status must be one of [completed refunded voided]")
	}
	return s.transition(ctx, id, to, actorID, note, perms)
}

func (s *OrderService) transition(ctx context.Context, id string, to models.OrderStatus, actorID, note string, perms PermissionSet) (*OrderView, error) {
	o, prev, err := s.orders.SetStatus(ctx, id, to, actorID, note, perms.Has)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order": o.OrderNumber, "from": prev, "to": to, "actor": actorID}).Info("order status changed")
	v := NewOrderView(o)
	return &v, nil
}

// Reprint counts the reprint and sends a receipt marked as a copy.
func (s *OrderService) Reprint(ctx context.Context, id string) (*OrderResult, error) {
	o, err := s.orders.MarkReprinted(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &OrderResult{Order: NewOrderView(o), SkippedItems: []controllers.SkippedItem{}}
	if s.printer != nil {
		pr := s.printer.Print(ctx, ReceiptFor(o), true)
		res.Receipt = &pr
	}
	return res, nil
}

// ReceiptFor maps a stored order onto the printer's receipt layout.
func ReceiptFor(o *models.Order) printer.Receipt {
	r := printer.Receipt{
		OrderNumber:   o.OrderNumber,
		CreatedAt:     o.CreatedAt,
		CustomerName:  o.CustomerName,
		Subtotal:      o.SubtotalAmount,
		Discount:      o.DiscountAmount,
		Tax:           o.TaxAmount,
		Total:         o.TotalAmount,
		PaymentMethod: string(o.PaymentMethod),
		CashReceived:  o.CashReceived,
		Change:        o.ChangeAmount,
	}
	if o.Staff != nil {
		r.Cashier = o.Staff.FullName()
	}
	for _, it := range o.Items {
		r.Lines = append(r.Lines, printer.Line{
			Name:      it.MenuItemName,
			Size:      it.MenuItemSize,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			Notes:     it.Notes,
		})
	}
	return r
}
