package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
	"cafe-pos-api/statemachine"
)

type OrdersController struct {
	db *gorm.DB
}

func NewOrdersController(db *gorm.DB) *OrdersController {
	return &OrdersController{db: db}
}

// NewOrder is a validated order ready to persist. ID, OrderNumber and
// CreatedAt are assigned by the caller.
type NewOrder struct {
	Header      models.Order
	StaffRef    string
	StrictStaff bool
	Items       []NewOrderItem
}

type NewOrderItem struct {
	MenuItemID string
	Name       string
	Size       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Notes      string
}

// SkippedItem describes a line the order was saved without.
type SkippedItem struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CreateResult carries the stored order plus what happened on the way.
type CreateResult struct {
	Order         *models.Order
	Skipped       []SkippedItem
	StaffFallback bool
}

// Create writes the header and its items in one transaction. A failing item
// is rolled back to its savepoint and skipped; a failing header aborts everything.
func (c *OrdersController) Create(ctx context.Context, in NewOrder) (*CreateResult, error) {
	res := &CreateResult{Skipped: []SkippedItem{}}
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		staff, fellBack, err := resolveStaff(tx, in.StaffRef, in.StrictStaff)
		if err != nil {
			return err
		}
		res.StaffFallback = fellBack

		header := in.Header
		header.StaffID = staff.ID
		if err := tx.Omit("Items", "StatusHistory", "Staff").Create(&header).Error; err != nil {
			return fmt.Errorf("create order header: %w", err)
		}

		for i, it := range in.Items {
			if strings.TrimSpace(it.MenuItemID) == "" {
				res.Skipped = append(res.Skipped, SkippedItem{Index: i, Name: it.Name, Reason: "missing product reference"})
				continue
			}
			if it.Quantity <= 0 {
				res.Skipped = append(res.Skipped, SkippedItem{Index: i, Name: it.Name, Reason: "quantity must be positive"})
				continue
			}
			menuID := it.MenuItemID
			row := models.OrderItem{
				OrderID:      header.ID,
				MenuItemID:   &menuID,
				MenuItemName: it.Name,
				MenuItemSize: it.Size,
				UnitPrice:    it.UnitPrice.Round(2),
				Quantity:     it.Quantity,
				LineTotal:    it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
				Notes:        it.Notes,
			}
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Omit("MenuItem").Create(&row).Error
			})
			if err != nil {
				res.Skipped = append(res.Skipped, SkippedItem{Index: i, Name: it.Name, Reason: err.Error()})
			}
		}

		res.Order, err = loadOrder(tx, header.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveStaff returns the active user behind ref, or the fallback actor:
// the "admin" user, then any admin, then the seeded system account.
func resolveStaff(tx *gorm.DB, ref string, strict bool) (*models.User, bool, error) {
	if ref = strings.TrimSpace(ref); ref != "" {
		var u models.User
		err := tx.Where("id = ? AND is_active = ?", ref, true).First(&u).Error
		if err == nil {
			return &u, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}
	if strict {
		return nil, false, apperr.New(http.StatusUnprocessableEntity, apperr.CodeInvalidStaff, "staffId does not reference an active user")
	}

	lookups := []func(*gorm.DB) *gorm.DB{
		func(q *gorm.DB) *gorm.DB { return q.Where("username = ?", "admin") },
		func(q *gorm.DB) *gorm.DB {
			return q.Where("role = ? AND is_active = ? AND is_system = ?", models.RoleAdmin, true, false).Order("created_at")
		},
		func(q *gorm.DB) *gorm.DB { return q.Where("username = ? AND is_system = ?", models.SystemUsername, true) },
	}
	for _, scope := range lookups {
		var users []models.User
		if err := tx.Scopes(scope).Limit(1).Find(&users).Error; err != nil {
			return nil, false, err
		}
		if len(users) > 0 {
			return &users[0], true, nil
		}
	}
	return nil, false, apperr.Internal("no staff account available; the system actor has not been seeded")
}

func loadOrder(tx *gorm.DB, id string) (*models.Order, error) {
	var o models.Order
	err := tx.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at, id") }).
		Preload("Staff").
		Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order", id)
		}
		return nil, err
	}
	return &o, nil
}

func (c *OrdersController) Get(ctx context.Context, id string) (*models.Order, error) {
	var o *models.Order
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		o, err = loadOrder(tx, id)
		return err
	})
	return o, err
}

type OrderFilter struct {
	Status        string     `form:"status"`
	PaymentMethod string     `form:"payment_method"`
	StaffID       string     `form:"staff_id"`
	OrderNumber   string     `form:"order_number"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page
}

func (c *OrdersController) List(ctx context.Context, f OrderFilter) (List[models.Order], error) {
	var (
		orders []models.Order
		total  int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.Order{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.PaymentMethod != "" {
			q = q.Where("payment_method = ?", f.PaymentMethod)
		}
		if f.StaffID != "" {
			q = q.Where("staff_id = ?", f.StaffID)
		}
		if f.OrderNumber != "" {
			q = q.Where("order_number = ?", f.OrderNumber)
		}
		if f.From != nil {
			q = q.Where("created_at >= ?", f.From.UTC())
		}
		if f.To != nil {
			q = q.Where("created_at < ?", f.To.UTC())
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return f.Page.apply(q).Preload("Items").Preload("Staff").
			Order("created_at desc").Find(&orders).Error
	})
	return newList(orders, total, f.Page), err
}

// OrderUpdateInput covers the fields that can change after checkout.
// Money fields are immutable; status moves through SetStatus.
type OrderUpdateInput struct {
	CustomerName  *string `json:"customerName" validate:"omitempty,max=100"`
	CustomerEmail *string `json:"customerEmail" validate:"omitempty,max=100"`
	Notes         *string `json:"notes"`
}

func (c *OrdersController) Update(ctx context.Context, id string, in OrderUpdateInput) (*models.Order, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	setIf(cols, "customer_name", in.CustomerName)
	setIf(cols, "customer_email", in.CustomerEmail)
	setIf(cols, "notes", in.Notes)
	var o *models.Order
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if o, err = loadOrder(tx, id); err != nil {
			return err
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}
		o, err = loadOrder(tx, id)
		return err
	})
	return o, err
}

// Delete removes the order; items and history go with it.
func (c *OrdersController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := first[models.Order](tx, "Order", id); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}

// SetStatus moves an order along the state machine and records the change.
func (c *OrdersController) SetStatus(ctx context.Context, id string, to models.OrderStatus, actorID, note string, has func(string) bool) (*models.Order, models.OrderStatus, error) {
	var (
		o    *models.Order
		prev models.OrderStatus
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if o, err = loadOrder(tx, id); err != nil {
			return err
		}
		prev = o.Status
		if err := statemachine.CanTransition(o.Status, to, has); err != nil {
			return apperr.New(http.StatusUnprocessableEntity, apperr.CodeInvalidTransition, err.Error()).WithData(map[string]any{
				"currentStatus":   o.Status,
				"requested":       to,
				"validNextStates": statemachine.ValidTransitionsFrom(o.Status),
			})
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", id, prev).Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("order status changed concurrently")
		}
		history := models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: prev,
			ToStatus:   to,
			ChangedBy:  actorID,
			Note:       note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		o, err = loadOrder(tx, id)
		return err
	})
	return o, prev, err
}

// MarkReprinted bumps the reprint counter and returns the refreshed order.
func (c *OrdersController) MarkReprinted(ctx context.Context, id string) (*models.Order, error) {
	var o *models.Order
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := first[models.Order](tx, "Order", id); err != nil {
			return err
		}
		err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
			"reprint_count": gorm.Expr("reprint_count + 1"),
			"last_reprint":  time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}
		o, err = loadOrder(tx, id)
		return err
	})
	return o, err
}

// History lists the status changes of an order, oldest first.
func (c *OrdersController) History(ctx context.Context, id string) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("order_id = ?", id).Order("created_at").Find(&rows).Error
	})
	return rows, err
}
