package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
)

// Wildcard grants every permission.
const Wildcard = "*"

// Permission ids checked by the HTTP layer.
const (
	PermMenuView       = "menu.view"
	PermMenuCreate     = "menu.create"
	PermMenuEdit       = "menu.edit"
	PermMenuDelete     = "menu.delete"
	PermInventoryView  = "inventory.view"
	PermInventoryEdit  = "inventory.edit"
	PermSalesView      = "sales.view"
	PermSalesProcess   = "sales.process"
	PermSalesRefund    = "sales.refund"
	PermSalesVoid      = "sales.void"
	PermReceiptsPrint  = "receipts.print"
	PermReportsView    = "reports.view"
	PermReportsEmail   = "reports.email"
	PermUsersView      = "users.view"
	PermUsersManage    = "users.manage"
	PermRolesManage    = "roles.manage"
	PermAlertsView     = "alerts.view"
	PermAlertsManage   = "alerts.manage"
	PermSystemSettings = "system.settings"
	PermSystemAdmin    = "system.admin"
)

var DefaultPermissions = []models.Permission{
	{ID: Wildcard, Name: "All permissions", Category: "system"},
	{ID: PermMenuView, Name: "View menu", Category: "menu"},
	{ID: PermMenuCreate, Name: "Create menu items", Category: "menu"},
	{ID: PermMenuEdit, Name: "Edit menu items", Category: "menu"},
	{ID: PermMenuDelete, Name: "Delete menu items", Category: "menu"},
	{ID: PermInventoryView, Name: "View inventory", Category: "inventory"},
	{ID: PermInventoryEdit, Name: "Edit inventory", Category: "inventory"},
	{ID: PermSalesView, Name: "View sales", Category: "sales"},
	{ID: PermSalesProcess, Name: "Process sales", Category: "sales"},
	{ID: PermSalesRefund, Name: "Refund sales", Category: "sales"},
	{ID: PermSalesVoid, Name: "Void sales", Category: "sales"},
	{ID: PermReceiptsPrint, Name: "Print receipts", Category: "sales"},
	{ID: PermReportsView, Name: "View reports", Category: "reports"},
	{ID: PermReportsEmail, Name: "Email reports", Category: "reports"},
	{ID: PermUsersView, Name: "View users", Category: "users"},
	{ID: PermUsersManage, Name: "Manage users", Category: "users"},
	{ID: PermRolesManage, Name: "Manage roles", Category: "users"},
	{ID: PermAlertsView, Name: "View alerts", Category: "inventory"},
	{ID: PermAlertsManage, Name: "Manage alerts", Category: "inventory"},
	{ID: PermSystemSettings, Name: "Change settings", Category: "system"},
	{ID: PermSystemAdmin, Name: "System administration", Category: "system"},
}

// DefaultRoleGrants seeds role_permissions on first start only.
var DefaultRoleGrants = map[models.UserRole][]string{
	models.RoleAdmin: {Wildcard},
	models.RoleManager: {
		PermMenuView, PermMenuCreate, PermMenuEdit,
		PermInventoryView, PermInventoryEdit,
		PermSalesView, PermSalesProcess, PermSalesRefund, PermSalesVoid, PermReceiptsPrint,
		PermReportsView, PermReportsEmail,
		PermUsersView, PermAlertsView, PermAlertsManage,
	},
	models.RoleCashier: {PermMenuView, PermSalesView, PermSalesProcess, PermReceiptsPrint},
	models.RoleTrainee: {PermMenuView},
}

var roleDescriptions = map[models.UserRole]string{
	models.RoleAdmin:   "Full system access",
	models.RoleManager: "Store management, refunds and reporting",
	models.RoleCashier: "Point of sale operation",
	models.RoleTrainee: "Read-only training access",
}

// PermissionSet is the effective capability set of one user.
type PermissionSet struct {
	granted map[string]bool
	revoked map[string]bool
}

func NewPermissionSet(granted ...string) PermissionSet {
	s := PermissionSet{granted: map[string]bool{}, revoked: map[string]bool{}}
	for _, p := range granted {
		s.granted[p] = true
	}
	return s
}

// Has honours explicit revokes before the wildcard.
func (s PermissionSet) Has(p string) bool {
	if s.revoked[p] {
		return false
	}
	return s.granted[Wildcard] || s.granted[p]
}

// List returns the granted ids, sorted.
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s.granted))
	for p := range s.granted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type PermissionService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewPermissionService(db *gorm.DB, log *logrus.Logger) *PermissionService {
	return &PermissionService{db: db, log: log.WithField("component", "permissions")}
}

// Resolve joins the user's role grants with their personal overrides.
func (s *PermissionService) Resolve(ctx context.Context, userID string) (PermissionSet, error) {
	set := NewPermissionSet()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roleGrants []string
		err := tx.Table("role_permissions AS rp").
			Joins("JOIN roles r ON r.id = rp.role_id").
			Joins("JOIN users u ON u.role = r.name").
			Where("u.id = ?", userID).
			Pluck("rp.permission_id", &roleGrants).Error
		if err != nil {
			return err
		}
		for _, p := range roleGrants {
			set.granted[p] = true
		}
		var overrides []models.UserPermission
		if err := tx.Where("user_id = ?", userID).Find(&overrides).Error; err != nil {
			return err
		}
		for _, o := range overrides {
			if o.Granted {
				set.granted[o.PermissionID] = true
				delete(set.revoked, o.PermissionID)
			} else {
				delete(set.granted, o.PermissionID)
				set.revoked[o.PermissionID] = true
			}
		}
		return nil
	})
	if err != nil {
		return set, fmt.Errorf("resolve permissions: %w", err)
	}
	return set, nil
}

// Bootstrap seeds the permission catalogue, the built-in roles with their
// default grants, and the system actor. Existing rows are left alone.
func (s *PermissionService) Bootstrap(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&DefaultPermissions).Error; err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}
		for _, name := range models.AllRoles {
			var role models.Role
			res := tx.Where("name = ?", string(name)).Limit(1).Find(&role)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				continue
			}
			role = models.Role{Name: string(name), Description: roleDescriptions[name], IsSystemRole: true}
			if err := tx.Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
			for _, p := range DefaultRoleGrants[name] {
				if err := tx.Create(&models.RolePermission{RoleID: role.ID, PermissionID: p}).Error; err != nil {
					return fmt.Errorf("seed grants for %s: %w", name, err)
				}
			}
			s.log.WithField("role", name).Info("seeded system role")
		}
		return seedSystemActor(tx, s.log)
	})
}

func seedSystemActor(tx *gorm.DB, log *logrus.Entry) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", models.SystemUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	hash, err := controllers.HashSecret(hex.EncodeToString(secret))
	if err != nil {
		return err
	}
	actor := models.User{
		Username:     models.SystemUsername,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Account",
		Role:         models.RoleAdmin,
		IsActive:     false,
		IsSystem:     true,
	}
	if err := tx.Create(&actor).Error; err != nil {
		return fmt.Errorf("seed system actor: %w", err)
	}
	log.Info("seeded system actor")
	return nil
}
