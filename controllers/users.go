package controllers

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

type UsersController struct {
	db *gorm.DB
}

func NewUsersController(db *gorm.DB) *UsersController {
	return &UsersController{db: db}
}

type UserInput struct {
	Username   *string          `json:"username" validate:"omitempty,min=3,max=50"`
	Password   *string          `json:"password" validate:"omitempty,min=8"`
	Pin        *string          `json:"pin" validate:"omitempty,len=4,numeric"`
	FirstName  *string          `json:"firstName" validate:"omitempty,max=50"`
	LastName   *string          `json:"lastName" validate:"omitempty,max=50"`
	Email      *string          `json:"email" validate:"omitempty,email,max=100"`
	Role       *models.UserRole `json:"role" validate:"omitempty,oneof=admin manager cashier trainee"`
	IsActive   *bool            `json:"isActive"`
	ShiftStart *time.Time       `json:"shiftStart"`
	ShiftEnd   *time.Time       `json:"shiftEnd"`
}

func (in UserInput) columns() (map[string]any, error) {
	cols := map[string]any{}
	if in.Username != nil {
		cols["username"] = strings.TrimSpace(*in.Username)
	}
	if in.Password != nil {
		hash, err := HashSecret(*in.Password)
		if err != nil {
			return nil, err
		}
		cols["password_hash"] = hash
	}
	if in.Pin != nil {
		hash, err := HashSecret(*in.Pin)
		if err != nil {
			return nil, err
		}
		cols["pin_hash"] = hash
	}
	setIf(cols, "first_name", in.FirstName)
	setIf(cols, "last_name", in.LastName)
	if in.Email != nil {
		if e := strings.TrimSpace(*in.Email); e != "" {
			cols["email"] = e
		} else {
			cols["email"] = nil
		}
	}
	setIf(cols, "role", in.Role)
	setIf(cols, "is_active", in.IsActive)
	setIf(cols, "shift_start", in.ShiftStart)
	setIf(cols, "shift_end", in.ShiftEnd)
	return cols, nil
}

// HashSecret bcrypt-hashes a password or PIN.
func HashSecret(s string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type UserFilter struct {
	Role   string `form:"role"`
	Active *bool  `form:"active"`
	Search string `form:"search"`
	Page
}

func (c *UsersController) Create(ctx context.Context, in UserInput) (*models.User, error) {
	var msgs []string
	if in.Username == nil {
		msgs = append(msgs, "username is required")
	}
	if in.Password == nil {
		msgs = append(msgs, "password is required")
	}
	if len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	cols, err := in.columns()
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:     cols["username"].(string),
		PasswordHash: cols["password_hash"].(string),
		Role:         models.RoleCashier,
		IsActive:     true,
	}
	delete(cols, "username")
	delete(cols, "password_hash")
	err = unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("username already exists")
			}
			return err
		}
		if err := tx.Model(&u).Updates(cols).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("email already registered")
			}
			return err
		}
		return tx.First(&u, "id = ?", u.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *UsersController) Get(ctx context.Context, id string) (*models.User, error) {
	var u *models.User
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		u, err = first[models.User](tx, "User", id)
		return err
	})
	return u, err
}

// ByUsername returns nil, nil when no such user exists.
func (c *UsersController) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("username = ?", strings.TrimSpace(username)).Limit(1).Find(&users).Error
	})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// ByEmail returns nil, nil when no such user exists.
func (c *UsersController) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Limit(1).Find(&users).Error
	})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// WithPIN lists non-system users that have a PIN set.
func (c *UsersController) WithPIN(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("pin_hash <> '' AND is_system = ?", false).Find(&users).Error
	})
	return users, err
}

func (c *UsersController) List(ctx context.Context, f UserFilter) (List[models.User], error) {
	var (
		users []models.User
		total int64
	)
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		q := tx.Model(&models.User{}).Where("is_system = ?", false)
		if f.Role != "" {
			q = q.Where("role = ?", f.Role)
		}
		if f.Active != nil {
			q = q.Where("is_active = ?", *f.Active)
		}
		if f.Search != "" {
			like := "%" + strings.ToLower(f.Search) + "%"
			q = q.Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return f.Page.apply(q).Order("username").Find(&users).Error
	})
	return newList(users, total, f.Page), err
}

func (c *UsersController) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	cols, err := in.columns()
	if err != nil {
		return nil, err
	}
	var u *models.User
	err = unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if u, err = first[models.User](tx, "User", id); err != nil {
			return err
		}
		if u.IsSystem {
			return apperr.Forbidden(apperr.CodeForbidden, "the system account cannot be modified")
		}
		if len(cols) > 0 {
			if err := tx.Model(u).Updates(cols).Error; err != nil {
				if isUniqueViolation(err) {
					return apperr.Conflict("username or email already in use")
				}
				return err
			}
		}
		u, err = first[models.User](tx, "User", id)
		return err
	})
	return u, err
}

func (c *UsersController) Delete(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		u, err := first[models.User](tx, "User", id)
		if err != nil {
			return err
		}
		if u.IsSystem {
			return apperr.Forbidden(apperr.CodeForbidden, "the system account cannot be deleted")
		}
		var orders int64
		if err := tx.Model(&models.Order{}).Where("staff_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperr.Conflict("user has recorded sales; deactivate the account instead")
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserPermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}

// RecordFailedLogin increments the counter and locks the account once it reaches maxAttempts.
func (c *UsersController) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) (*models.User, error) {
	var u *models.User
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		var err error
		if u, err = first[models.User](tx, "User", id); err != nil {
			return err
		}
		cols := map[string]any{"failed_login_attempts": u.FailedLoginAttempts + 1}
		if u.FailedLoginAttempts+1 >= maxAttempts {
			cols["locked_until"] = time.Now().UTC().Add(lockFor)
		}
		if err := tx.Model(u).Updates(cols).Error; err != nil {
			return err
		}
		u, err = first[models.User](tx, "User", id)
		return err
	})
	return u, err
}

// RecordLogin clears the failure counter and stamps last_login.
func (c *UsersController) RecordLogin(ctx context.Context, id string) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login":            time.Now().UTC(),
		}).Error
	})
}

// SetPermissionOverride grants or revokes one permission for a user; nil removes the override.
func (c *UsersController) SetPermissionOverride(ctx context.Context, userID, permissionID string, granted *bool) error {
	return unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := first[models.User](tx, "User", userID); err != nil {
			return err
		}
		if _, err := first[models.Permission](tx, "Permission", permissionID); err != nil {
			return err
		}
		if granted == nil {
			return tx.Where("user_id = ? AND permission_id = ?", userID, permissionID).
				Delete(&models.UserPermission{}).Error
		}
		up := models.UserPermission{UserID: userID, PermissionID: permissionID, Granted: *granted}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&up).Error
	})
}

// PermissionOverrides lists a user's explicit grants and revokes.
func (c *UsersController) PermissionOverrides(ctx context.Context, userID string) ([]models.UserPermission, error) {
	var rows []models.UserPermission
	err := unitOfWork(ctx, c.db, func(tx *gorm.DB) error {
		return tx.Where("user_id = ?", userID).Order("permission_id").Find(&rows).Error
	})
	return rows, err
}
