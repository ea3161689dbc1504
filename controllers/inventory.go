package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

type InventoryController struct {
	db *gorm.DB
}

func NewInventoryController(db *gorm.DB) *InventoryController {
	return &InventoryController{db: db}
}

// InventoryView is an inventory row with its read-time status.
type InventoryView struct {
	models.InventoryItem
	Status models.InventoryStatus `json:"status"`
}

func viewOf(item models.InventoryItem, now time.Time) InventoryView {
	return InventoryView{InventoryItem: item, Status: item.Status(now)}
}

type InventoryInput struct {
	Name          *string              `json:"name" validate:"omitempty,min=1,max=100"`
	Category      *string              `json:"category" validate:"omitempty,max=50"`
	CurrentStock  *decimal.Decimal     `json:"currentStock" validate:"omitempty,gte=0"`
	MinimumStock  *decimal.Decimal     `json:"minimumStock" validate:"omitempty,gte=0"`
	MaximumStock  *decimal.NullDecimal `json:"maximumStock"`
	Unit          *string              `json:"unit" validate:"omitempty,max=20"`
	CostPerUnit   *decimal.Decimal     `json:"costPerUnit" validate:"omitempty,gte=0"`
	Supplier      *string              `json:"supplier" validate:"omitempty,max=100"`
	LastRestocked *time.Time           `json:"lastRestocked"`
	ExpiryDate    *time.Time           `json:"expiryDate"`
	Barcode       *string              `json:"barcode" validate:"omitempty,max=100"`
	Description   *string              `json:"description"`
	Location      *string              `json:"location" validate:"omitempty,max=100"`
	IsActive      *bool                `json:"isActive"`
}

func (in InventoryInput) columns() map[string]any {
	cols := map[string]any{}
	setIf(cols, "name", in.Name)
	setIf(cols, "category", in.Category)
	setIf(cols, "current_stock", in.CurrentStock)
	setIf(cols, "minimum_stock", in.MinimumStock)
	setIf(cols, "maximum_stock", in.MaximumStock)
	setIf(cols, "unit", in.Unit)
	setIf(cols, "cost_per_unit", in.CostPerUnit)
	setIf(cols, "supplier", in.Supplier)
	if in.LastRestocked != nil {
		cols["last_restocked"] = in.LastRestocked.UTC()
	}
	if in.ExpiryDate != nil {
		cols["expiry_date"] = in.ExpiryDate.UTC()
	}
	setIf(cols, "barcode", in.Barcode)
	setIf(cols, "description", in.Description)
	setIf(cols, "location", in.Location)
	setIf(cols, "is_active", in.IsActive)
	return cols
}

type InventoryFilter struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page
}

func (c *InventoryController) Create(ctx context.Context, in InventoryInput) (*InventoryView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	item := models.InventoryItem{
		Name:     strings.TrimSpace(*in.Name),
		Category: models.DefaultCategory,
		Unit:     "units",
		IsActive: true,
	}
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		in.Name = nil
		if cols := in.columns(); len(cols) > 0 {
			if err := tx.Model(&item).Updates(cols).Error; err != nil {
				return err
			}
		}
		return tx.First(&item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	v := viewOf(item, time.Now().UTC())
	return &v, nil
}

func (c *InventoryController) Get(ctx context.Context, id string) (*InventoryView, error) {
	var item *models.InventoryItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		item, err = first[models.InventoryItem](tx, "Inventory item", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	v := viewOf(*item, time.Now().UTC())
	return &v, nil
}

// List filters by status in memory since status is derived at read time.
func (c *InventoryController) List(ctx context.Context, f InventoryFilter) (List[InventoryView], error) {
	var rows []models.InventoryItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.InventoryItem{})
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.Search != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
		}
		return q.Order("name").Find(&rows).Error
	})
	if err != nil {
		return List[InventoryView]{}, err
	}
	now := time.Now().UTC()
	views := make([]InventoryView, 0, len(rows))
	for _, r := range rows {
		v := viewOf(r, now)
		if f.Status != "" && string(v.Status) != f.Status {
			continue
		}
		views = append(views, v)
	}
	total := int64(len(views))
	p := f.Page.normalized()
	start := min(p.Offset, len(views))
	end := min(start+p.Limit, len(views))
	return newList(views[start:end], total, f.Page), nil
}

// All returns every item for export.
func (c *InventoryController) All(ctx context.Context) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Order("name").Find(&rows).Error
	})
	return rows, err
}

func (c *InventoryController) Update(ctx context.Context, id string, in InventoryInput) (*InventoryView, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	var item *models.InventoryItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if item, err = first[models.InventoryItem](tx, "Inventory item", id); err != nil {
			return err
		}
		if cols := in.columns(); len(cols) > 0 {
			if err := tx.Model(item).Updates(cols).Error; err != nil {
				return err
			}
		}
		item, err = first[models.InventoryItem](tx, "Inventory item", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	v := viewOf(*item, time.Now().UTC())
	return &v, nil
}

func (c *InventoryController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.InventoryItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Inventory item", id)
		}
		return nil
	})
}

// AdjustReason is the client-facing cause of a stock change.
type AdjustReason string

const (
	ReasonRestock    AdjustReason = "RESTOCK"
	ReasonSale       AdjustReason = "SALE"
	ReasonWaste      AdjustReason = "WASTE"
	ReasonAdjustment AdjustReason = "ADJUSTMENT"
)

var movementFor = map[AdjustReason]models.MovementType{
	ReasonRestock:    models.MovementRestock,
	ReasonSale:       models.MovementUsage,
	ReasonWaste:      models.MovementWaste,
	ReasonAdjustment: models.MovementAdjustment,
}

type AdjustInput struct {
	Adjustment *decimal.Decimal `json:"adjustment"`
	Reason     AdjustReason     `json:"reason"`
	Notes      string           `json:"notes"`
	Reference  string           `json:"reference"`
	StaffID    string           `json:"-"`
}

type AdjustResult struct {
	Inventory InventoryView        `json:"inventory"`
	Movement  models.StockMovement `json:"adjustment"`
	// Crossed is set when the adjustment moved the item into low or out of stock.
	Crossed models.InventoryStatus `json:"-"`
}

// Adjust applies a signed delta and records the movement. Negative results are rejected.
func (c *InventoryController) Adjust(ctx context.Context, id string, in AdjustInput) (*AdjustResult, error) {
	if in.Adjustment == nil {
		return nil, apperr.Validation("Adjustment amount is required")
	}
	if in.Reason == "" {
		in.Reason = ReasonAdjustment
	}
	mt, ok := movementFor[in.Reason]
	if !ok {
		return nil, apperr.Validation("Invalid reason. Must be one of: RESTOCK, SALE, WASTE, ADJUSTMENT")
	}
	var res AdjustResult
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		item, err := first[models.InventoryItem](tx, "Inventory item", id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		before := item.Status(now)
		prev := item.CurrentStock
		next := prev.Add(*in.Adjustment)
		if next.Sign() < 0 {
			return apperr.New(http.StatusBadRequest, apperr.CodeInvalidAdjustment, "Adjustment would result in negative stock")
		}
		cols := map[string]any{"current_stock": next}
		if in.Reason == ReasonRestock {
			cols["last_restocked"] = now
		}
		if err := tx.Model(item).Updates(cols).Error; err != nil {
			return err
		}
		notes := in.Notes
		if in.Reference != "" {
			notes = strings.TrimSpace(notes + " [ref " + in.Reference + "]")
		}
		res.Movement = models.StockMovement{
			InventoryItemID: item.ID,
			MovementType:    mt,
			Quantity:        *in.Adjustment,
			PreviousStock:   prev,
			NewStock:        next,
			Notes:           notes,
		}
		if in.StaffID != "" {
			res.Movement.StaffID = &in.StaffID
		}
		if err := tx.Create(&res.Movement).Error; err != nil {
			return err
		}
		if item, err = first[models.InventoryItem](tx, "Inventory item", id); err != nil {
			return err
		}
		res.Inventory = viewOf(*item, now)
		after := res.Inventory.Status
		if after != before && (after == models.StockLow || after == models.StockOut) {
			res.Crossed = after
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Movements lists the adjustment history of one item, newest first.
func (c *InventoryController) Movements(ctx context.Context, id string, p Page) (List[models.StockMovement], error) {
	var (
		rows  []models.StockMovement
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.StockMovement{}).Where("inventory_item_id = ?", id)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return p.apply(q).Order("created_at desc").Find(&rows).Error
	})
	return newList(rows, total, p), err
}
