package controllers

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

type RolesController struct {
	db *gorm.DB
}

func NewRolesController(db *gorm.DB) *RolesController {
	return &RolesController{db: db}
}

type RoleInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// RoleView is a role with the permission ids granted to it.
type RoleView struct {
	models.Role
	Permissions []string `json:"permissions"`
}

func rolePermissions(tx *gorm.DB, roleID string) ([]string, error) {
	ids := []string{}
	err := tx.Model(&models.RolePermission{}).Where("role_id = ?", roleID).
		Order("permission_id").Pluck("permission_id", &ids).Error
	return ids, err
}

func (c *RolesController) Create(ctx context.Context, in RoleInput) (*RoleView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	role := models.Role{Name: strings.TrimSpace(*in.Name)}
	if in.Description != nil {
		role.Description = *in.Description
	}
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("role name already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &RoleView{Role: role, Permissions: []string{}}, nil
}

func (c *RolesController) Get(ctx context.Context, id string) (*RoleView, error) {
	var view *RoleView
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		role, err := first[models.Role](tx, "Role", id)
		if err != nil {
			return err
		}
		perms, err := rolePermissions(tx, id)
		if err != nil {
			return err
		}
		view = &RoleView{Role: *role, Permissions: perms}
		return nil
	})
	return view, err
}

func (c *RolesController) List(ctx context.Context, p Page) (List[RoleView], error) {
	var (
		views []RoleView
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var roles []models.Role
		q := tx.Model(&models.Role{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		if err := p.apply(q).Order("name").Find(&roles).Error; err != nil {
			return err
		}
		for _, r := range roles {
			perms, err := rolePermissions(tx, r.ID)
			if err != nil {
				return err
			}
			views = append(views, RoleView{Role: r, Permissions: perms})
		}
		return nil
	})
	return newList(views, total, p), err
}

// Update renames or re-describes a role. Built-in roles keep their name.
func (c *RolesController) Update(ctx context.Context, id string, in RoleInput) (*RoleView, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		role, err := first[models.Role](tx, "Role", id)
		if err != nil {
			return err
		}
		cols := map[string]any{}
		if in.Name != nil && *in.Name != role.Name {
			if role.IsSystemRole {
				return apperr.Forbidden(apperr.CodeForbidden, "system roles cannot be renamed")
			}
			cols["name"] = strings.TrimSpace(*in.Name)
		}
		setIf(cols, "description", in.Description)
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(role).Updates(cols).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("role name already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}

func (c *RolesController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		role, err := first[models.Role](tx, "Role", id)
		if err != nil {
			return err
		}
		if role.IsSystemRole {
			return apperr.Forbidden(apperr.CodeForbidden, "system roles cannot be deleted")
		}
		var users int64
		if err := tx.Model(&models.User{}).Where("role = ?", role.Name).Count(&users).Error; err != nil {
			return err
		}
		if users > 0 {
			return apperr.Conflict("role is still assigned to users")
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
}

// SetPermissions replaces the role's grants with ids. Unknown ids are rejected.
func (c *RolesController) SetPermissions(ctx context.Context, id string, ids []string) (*RoleView, error) {
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := first[models.Role](tx, "Role", id); err != nil {
			return err
		}
		unique := map[string]bool{}
		for _, pid := range ids {
			unique[pid] = true
		}
		var known int64
		if len(unique) > 0 {
			keys := make([]string, 0, len(unique))
			for k := range unique {
				keys = append(keys, k)
			}
			if err := tx.Model(&models.Permission{}).Where("id IN ?", keys).Count(&known).Error; err != nil {
				return err
			}
			if int(known) != len(keys) {
				return apperr.Validation("permissions contains unknown permission ids")
			}
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		for pid := range unique {
			if err := tx.Create(&models.RolePermission{RoleID: id, PermissionID: pid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}

// Permissions lists the whole permission catalogue.
func (c *RolesController) Permissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Order("category, id").Find(&perms).Error
	})
	return perms, err
}
