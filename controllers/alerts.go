package controllers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

type AlertsController struct {
	db *gorm.DB
}

func NewAlertsController(db *gorm.DB) *AlertsController {
	return &AlertsController{db: db}
}

type AlertInput struct {
	InventoryItemID    *string           `json:"inventoryItemId"`
	AlertType          *models.AlertType `json:"alertType" validate:"omitempty,oneof=low_stock out_of_stock expiring_soon expired"`
	AlertTime          *time.Time        `json:"alertTime"`
	NotificationSent   *bool             `json:"notificationSent"`
	NotificationMethod *string           `json:"notificationMethod" validate:"omitempty,max=20"`
}

type AlertFilter struct {
	InventoryItemID  string `form:"inventory_item_id"`
	AlertType        string `form:"alert_type"`
	NotificationSent *bool  `form:"notification_sent"`
	Page
}

func (c *AlertsController) Create(ctx context.Context, in AlertInput) (*models.Alert, error) {
	var msgs []string
	if in.InventoryItemID == nil || *in.InventoryItemID == "" {
		msgs = append(msgs, "inventoryItemId is required")
	}
	if in.AlertType == nil {
		msgs = append(msgs, "alertType is required")
	}
	if len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	a := models.Alert{InventoryItemID: *in.InventoryItemID, AlertType: *in.AlertType}
	if in.AlertTime != nil {
		a.AlertTime = in.AlertTime.UTC()
	}
	if in.NotificationSent != nil {
		a.NotificationSent = *in.NotificationSent
	}
	if in.NotificationMethod != nil {
		a.NotificationMethod = *in.NotificationMethod
	}
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := first[models.InventoryItem](tx, "Inventory item", a.InventoryItemID); err != nil {
			return err
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *AlertsController) Get(ctx context.Context, id string) (*models.Alert, error) {
	var a *models.Alert
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		a, err = first[models.Alert](tx, "Alert", id)
		return err
	})
	return a, err
}

func (c *AlertsController) List(ctx context.Context, f AlertFilter) (List[models.Alert], error) {
	var (
		rows  []models.Alert
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.Alert{})
		if f.InventoryItemID != "" {
			q = q.Where("inventory_item_id = ?", f.InventoryItemID)
		}
		if f.AlertType != "" {
			q = q.Where("alert_type = ?", f.AlertType)
		}
		if f.NotificationSent != nil {
			q = q.Where("notification_sent = ?", *f.NotificationSent)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return f.Page.apply(q).Order("alert_time desc").Find(&rows).Error
	})
	return newList(rows, total, f.Page), err
}

func (c *AlertsController) Update(ctx context.Context, id string, in AlertInput) (*models.Alert, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	setIf(cols, "alert_type", in.AlertType)
	if in.AlertTime != nil {
		cols["alert_time"] = in.AlertTime.UTC()
	}
	setIf(cols, "notification_sent", in.NotificationSent)
	setIf(cols, "notification_method", in.NotificationMethod)
	var a *models.Alert
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if a, err = first[models.Alert](tx, "Alert", id); err != nil {
			return err
		}
		if len(cols) > 0 {
			if err := tx.Model(a).Updates(cols).Error; err != nil {
				return err
			}
		}
		a, err = first[models.Alert](tx, "Alert", id)
		return err
	})
	return a, err
}

func (c *AlertsController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Alert{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Alert", id)
		}
		return nil
	})
}

// MarkNotified records how an alert was delivered.
func (c *AlertsController) MarkNotified(ctx context.Context, id, method string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Model(&models.Alert{}).Where("id = ?", id).Updates(map[string]any{
			"notification_sent":   true,
			"notification_method": method,
		}).Error
	})
}
