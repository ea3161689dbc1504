package controllers

import (
	"context"

	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

// OrderItemsController exposes line items for lookup and correction.
// Items are only ever created together with their order.
type OrderItemsController struct {
	db *gorm.DB
}

func NewOrderItemsController(db *gorm.DB) *OrderItemsController {
	return &OrderItemsController{db: db}
}

type OrderItemFilter struct {
	OrderID    string `form:"order_id"`
	MenuItemID string `form:"menu_item_id"`
	Page
}

func (c *OrderItemsController) List(ctx context.Context, f OrderItemFilter) (List[models.OrderItem], error) {
	var (
		rows  []models.OrderItem
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.OrderItem{})
		if f.OrderID != "" {
			q = q.Where("order_id = ?", f.OrderID)
		}
		if f.MenuItemID != "" {
			q = q.Where("menu_item_id = ?", f.MenuItemID)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return f.Page.apply(q).Order("created_at desc").Find(&rows).Error
	})
	return newList(rows, total, f.Page), err
}

func (c *OrderItemsController) Get(ctx context.Context, id string) (*models.OrderItem, error) {
	var row *models.OrderItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		row, err = first[models.OrderItem](tx, "Order item", id)
		return err
	})
	return row, err
}

type OrderItemUpdateInput struct {
	Notes *string `json:"notes"`
}

// Update only touches notes; the price snapshot is immutable.
func (c *OrderItemsController) Update(ctx context.Context, id string, in OrderItemUpdateInput) (*models.OrderItem, error) {
	var row *models.OrderItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if row, err = first[models.OrderItem](tx, "Order item", id); err != nil {
			return err
		}
		if in.Notes != nil {
			if err := tx.Model(row).Update("notes", *in.Notes).Error; err != nil {
				return err
			}
		}
		row, err = first[models.OrderItem](tx, "Order item", id)
		return err
	})
	return row, err
}

func (c *OrderItemsController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Order item", id)
		}
		return nil
	})
}
