package controllers

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

type MenuController struct {
	db *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{db: db}
}

// MenuItemInput is the API shape for create and partial update. Nil fields are left untouched.
type MenuItemInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Size        *string          `json:"size" validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0,lte=9999.99"`
	Category    *string          `json:"category" validate:"omitempty,max=50"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,max=255"`
	SizeVolume  *string          `json:"sizeVolume" validate:"omitempty,max=50"`
	Allergens   *string          `json:"allergens" validate:"omitempty,max=255"`
	Calories    *int             `json:"calories" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"isActive"`
	SortOrder   *int             `json:"sortOrder"`
}

func (in MenuItemInput) columns() map[string]any {
	cols := map[string]any{}
	setIf(cols, "name", in.Name)
	setIf(cols, "size", in.Size)
	setIf(cols, "price", in.Price)
	setIf(cols, "category", in.Category)
	setIf(cols, "description", in.Description)
	setIf(cols, "image_url", in.ImageURL)
	setIf(cols, "size_volume", in.SizeVolume)
	setIf(cols, "allergens", in.Allergens)
	setIf(cols, "calories", in.Calories)
	setIf(cols, "is_active", in.IsActive)
	setIf(cols, "sort_order", in.SortOrder)
	return cols
}

type MenuFilter struct {
	Category string `form:"category"`
	Active   *bool  `form:"active"`
	Search   string `form:"search"`
	Page
}

func (c *MenuController) Create(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if err := validateMenuCreate(in); err != nil {
		return nil, err
	}
	item := models.MenuItem{
		Name:     strings.TrimSpace(*in.Name),
		Size:     models.DefaultSize,
		Price:    in.Price.Round(2),
		Category: models.DefaultCategory,
		IsActive: true,
	}
	applyMenuInput(&item, in)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func validateMenuCreate(in MenuItemInput) error {
	var msgs []string
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if in.Price == nil {
		msgs = append(msgs, "price is required")
	}
	if len(msgs) > 0 {
		return apperr.Validation(msgs...)
	}
	return apperr.Check(in)
}

func applyMenuInput(item *models.MenuItem, in MenuItemInput) {
	if in.Size != nil && *in.Size != "" {
		item.Size = *in.Size
	}
	if in.Category != nil && *in.Category != "" {
		item.Category = *in.Category
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.ImageURL != nil {
		item.ImageURL = *in.ImageURL
	}
	if in.SizeVolume != nil {
		item.SizeVolume = *in.SizeVolume
	}
	if in.Allergens != nil {
		item.Allergens = *in.Allergens
	}
	item.Calories = in.Calories
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
}

func (c *MenuController) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	var item *models.MenuItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		item, err = first[models.MenuItem](tx, "Menu item", id)
		return err
	})
	return item, err
}

func (c *MenuController) List(ctx context.Context, f MenuFilter) (List[models.MenuItem], error) {
	var (
		items []models.MenuItem
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.MenuItem{})
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.Active != nil {
			q = q.Where("is_active = ?", *f.Active)
		}
		if f.Search != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return f.Page.apply(q).Order("category, sort_order, name, size").Find(&items).Error
	})
	return newList(items, total, f.Page), err
}

// Update changes only the supplied fields.
func (c *MenuController) Update(ctx context.Context, id string, in MenuItemInput) (*models.MenuItem, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name must not be empty")
	}
	if in.Price != nil {
		rounded := in.Price.Round(2)
		in.Price = &rounded
	}
	var item *models.MenuItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if item, err = first[models.MenuItem](tx, "Menu item", id); err != nil {
			return err
		}
		if cols := in.columns(); len(cols) > 0 {
			if err := tx.Model(item).Updates(cols).Error; err != nil {
				return err
			}
		}
		item, err = first[models.MenuItem](tx, "Menu item", id)
		return err
	})
	return item, err
}

func (c *MenuController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.MenuItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Menu item", id)
		}
		return nil
	})
}

// FindByNameSize matches the natural key case-insensitively. A miss returns nil, nil.
func (c *MenuController) FindByNameSize(ctx context.Context, name, size string) (*models.MenuItem, error) {
	var items []models.MenuItem
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("LOWER(name) = ? AND LOWER(size) = ?",
			strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(size))).
			Limit(1).Find(&items).Error
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// Categories lists distinct categories of active items.
func (c *MenuController) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Model(&models.MenuItem{}).Where("is_active = ?", true).
			Distinct("category").Order("category").Pluck("category", &cats).Error
	})
	if cats == nil {
		cats = []string{}
	}
	return cats, err
}
