package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
	"cafe-pos-api/testutil"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) *apperr.Error {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, code, e.Code)
	return e
}

func TestMenuCreateDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	menu := NewMenuController(testutil.NewDB(t))

	item, err := menu.Create(ctx, MenuItemInput{Name: str(" Latte "), Price: dec("3.456")})
	require.NoError(t, err)
	assert.Equal(t, "Latte", item.Name)
	assert.Equal(t, models.DefaultSize, item.Size)
	assert.Equal(t, models.DefaultCategory, item.Category)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("3.46")))
	assert.True(t, item.IsActive)

	_, err = menu.Create(ctx, MenuItemInput{Name: str("Mocha")})
	requireCode(t, err, apperr.CodeValidation)

	_, err = menu.Create(ctx, MenuItemInput{Name: str("Free"), Price: dec("0")})
	requireCode(t, err, apperr.CodeValidation)

	found, err := menu.FindByNameSize(ctx, "LATTE", item.Size)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, item.ID, found.ID)

	missing, err := menu.FindByNameSize(ctx, "Latte", "Huge")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMenuUpdateOnlyTouchesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	menu := NewMenuController(testutil.NewDB(t))
	item, err := menu.Create(ctx, MenuItemInput{Name: str("Scone"), Price: dec("2.00"), Category: str("Pastries")})
	require.NoError(t, err)

	updated, err := menu.Update(ctx, item.ID, MenuItemInput{Price: dec("2.50")})
	require.NoError(t, err)
	assert.Equal(t, "Scone", updated.Name)
	assert.Equal(t, "Pastries", updated.Category)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("2.50")))

	require.NoError(t, menu.Delete(ctx, item.ID))
	_, err = menu.Get(ctx, item.ID)
	requireCode(t, err, apperr.CodeNotFound)
	requireCode(t, menu.Delete(ctx, item.ID), apperr.CodeNotFound)
}

func TestInventoryAdjust(t *testing.T) {
	ctx := context.Background()
	inv := NewInventoryController(testutil.NewDB(t))
	item, err := inv.Create(ctx, InventoryInput{Name: str("Milk"), CurrentStock: dec("10"), MinimumStock: dec("4")})
	require.NoError(t, err)
	assert.Equal(t, models.StockIn, item.Status)

	res, err := inv.Adjust(ctx, item.ID, AdjustInput{Adjustment: dec("-6"), Reason: ReasonSale})
	require.NoError(t, err)
	assert.True(t, res.Inventory.CurrentStock.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, models.StockLow, res.Crossed)
	assert.Equal(t, models.MovementUsage, res.Movement.MovementType)
	assert.True(t, res.Movement.PreviousStock.Equal(decimal.NewFromInt(10)))

	// Already low: no new crossing.
	res, err = inv.Adjust(ctx, item.ID, AdjustInput{Adjustment: dec("-1"), Reason: ReasonWaste})
	require.NoError(t, err)
	assert.Empty(t, res.Crossed)

	_, err = inv.Adjust(ctx, item.ID, AdjustInput{Adjustment: dec("-100")})
	requireCode(t, err, apperr.CodeInvalidAdjustment)

	_, err = inv.Adjust(ctx, item.ID, AdjustInput{Adjustment: dec("1"), Reason: "GIFT"})
	requireCode(t, err, apperr.CodeValidation)

	_, err = inv.Adjust(ctx, item.ID, AdjustInput{})
	requireCode(t, err, apperr.CodeValidation)

	moves, err := inv.Movements(ctx, item.ID, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, moves.Total)
}

func newOrderHeader(id, number string) models.Order {
	return models.Order{
		ID:             id,
		OrderNumber:    number,
		SubtotalAmount: decimal.RequireFromString("6.00"),
		TaxAmount:      decimal.RequireFromString("0.48"),
		TotalAmount:    decimal.RequireFromString("6.48"),
		PaymentMethod:  models.PaymentCash,
		Status:         models.StatusCompleted,
	}
}

func TestOrderCreateSkipsBadItems(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	menu := NewMenuController(db)
	orders := NewOrdersController(db)
	users := NewUsersController(db)

	admin, err := users.Create(ctx, UserInput{Username: str("admin"), Password: str("password1"), Role: roleRef(models.RoleAdmin)})
	require.NoError(t, err)
	latte, err := menu.Create(ctx, MenuItemInput{Name: str("Latte"), Price: dec("3.00")})
	require.NoError(t, err)

	res, err := orders.Create(ctx, NewOrder{
		Header:   newOrderHeader("11111111-1111-1111-1111-111111111111", "ORD-1"),
		StaffRef: "nobody",
		Items: []NewOrderItem{
			{MenuItemID: latte.ID, Name: "Latte", Quantity: 2, UnitPrice: decimal.RequireFromString("3.00")},
			{MenuItemID: "", Name: "Ghost", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
			{MenuItemID: latte.ID, Name: "Zero", Quantity: 0, UnitPrice: decimal.RequireFromString("1.00")},
			{MenuItemID: "does-not-exist", Name: "Dangling", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.StaffFallback)
	assert.Equal(t, admin.ID, res.Order.StaffID)
	require.Len(t, res.Order.Items, 1)
	assert.True(t, res.Order.Items[0].LineTotal.Equal(decimal.RequireFromString("6.00")))
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, 3, res.Skipped[2].Index)
}

func TestOrderCreateStrictStaff(t *testing.T) {
	ctx := context.Background()
	orders := NewOrdersController(testutil.NewDB(t))
	_, err := orders.Create(ctx, NewOrder{
		Header:      newOrderHeader("22222222-2222-2222-2222-222222222222", "ORD-2"),
		StaffRef:    "unknown",
		StrictStaff: true,
	})
	e := requireCode(t, err, apperr.CodeInvalidStaff)
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)

	list, err := orders.List(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func roleRef(r models.UserRole) *models.UserRole { return &r }

func TestResolveStaffFallbackOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := NewUsersController(db)

	boss, err := users.Create(ctx, UserInput{Username: str("boss"), Password: str("password1"), Role: roleRef(models.RoleAdmin)})
	require.NoError(t, err)
	admin, err := users.Create(ctx, UserInput{Username: str("admin"), Password: str("password1"), Role: roleRef(models.RoleManager)})
	require.NoError(t, err)
	till, err := users.Create(ctx, UserInput{Username: str("till"), Password: str("password1"), Role: roleRef(models.RoleCashier)})
	require.NoError(t, err)
	system := &models.User{Username: models.SystemUsername, PasswordHash: "!", Role: models.RoleAdmin, IsSystem: true}
	require.NoError(t, db.Create(system).Error)

	steps := []struct {
		name     string
		before   func(t *testing.T)
		ref      string
		want     string
		fallback bool
	}{
		{name: "known active user", ref: till.ID, want: till.ID},
		{name: "named admin wins over admin role", ref: "ghost", want: admin.ID, fallback: true},
		{name: "inactive reference falls back", ref: till.ID, want: admin.ID, fallback: true,
			before: func(t *testing.T) {
				require.NoError(t, db.Model(&models.User{}).Where("id = ?", till.ID).Update("is_active", false).Error)
			}},
		{name: "any active admin", ref: "ghost", want: boss.ID, fallback: true,
			before: func(t *testing.T) {
				require.NoError(t, db.Delete(&models.User{}, "id = ?", admin.ID).Error)
			}},
		{name: "seeded system actor", ref: "", want: system.ID, fallback: true,
			before: func(t *testing.T) {
				require.NoError(t, db.Model(&models.User{}).Where("id = ?", boss.ID).Update("is_active", false).Error)
			}},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			if st.before != nil {
				st.before(t)
			}
			u, fallback, err := resolveStaff(db.WithContext(ctx), st.ref, false)
			require.NoError(t, err)
			assert.Equal(t, st.want, u.ID)
			assert.Equal(t, st.fallback, fallback)
		})
	}

	require.NoError(t, db.Delete(&models.User{}, "id = ?", system.ID).Error)
	_, _, err = resolveStaff(db.WithContext(ctx), "ghost", false)
	e := requireCode(t, err, apperr.CodeInternal)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}

func TestOrderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := NewUsersController(db)
	orders := NewOrdersController(db)
	_, err := users.Create(ctx, UserInput{Username: str("admin"), Password: str("password1"), Role: roleRef(models.RoleAdmin)})
	require.NoError(t, err)
	res, err := orders.Create(ctx, NewOrder{Header: newOrderHeader("33333333-3333-3333-3333-333333333333", "ORD-3")})
	require.NoError(t, err)
	id := res.Order.ID
	all := func(string) bool { return true }
	none := func(string) bool { return false }

	_, _, err = orders.SetStatus(ctx, id, models.StatusRefunded, "", "", none)
	requireCode(t, err, apperr.CodeInvalidTransition)

	o, prev, err := orders.SetStatus(ctx, id, models.StatusRefunded, "", "spilled", all)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, prev)
	assert.Equal(t, models.StatusRefunded, o.Status)

	_, _, err = orders.SetStatus(ctx, id, models.StatusVoided, "", "", all)
	e := requireCode(t, err, apperr.CodeInvalidTransition)
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)

	history, err := orders.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "spilled", history[0].Note)

	o, err = orders.MarkReprinted(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, o.ReprintCount)
	assert.NotNil(t, o.LastReprint)
}

func TestUserLockout(t *testing.T) {
	ctx := context.Background()
	users := NewUsersController(testutil.NewDB(t))
	u, err := users.Create(ctx, UserInput{Username: str("barista"), Password: str("password1"), Pin: str("1234")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCashier, u.Role)

	_, err = users.Create(ctx, UserInput{Username: str("barista"), Password: str("password2")})
	requireCode(t, err, apperr.CodeConflict)

	for i := 0; i < 3; i++ {
		u, err = users.RecordFailedLogin(ctx, u.ID, 3, 15*time.Minute)
		require.NoError(t, err)
	}
	require.NotNil(t, u.LockedUntil)

	require.NoError(t, users.RecordLogin(ctx, u.ID))
	u, err = users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, u.LockedUntil)
	assert.Zero(t, u.FailedLoginAttempts)

	withPIN, err := users.WithPIN(ctx)
	require.NoError(t, err)
	assert.Len(t, withPIN, 1)
}

func TestRolesPermissions(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&[]models.Permission{
		{ID: "menu.view", Name: "View menu", Category: "menu"},
		{ID: "sales.view", Name: "View sales", Category: "sales"},
	}).Error)
	roles := NewRolesController(db)

	r, err := roles.Create(ctx, RoleInput{Name: str("shift_lead"), Description: str("Runs the floor")})
	require.NoError(t, err)
	assert.Empty(t, r.Permissions)

	r, err = roles.SetPermissions(ctx, r.ID, []string{"menu.view", "sales.view"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"menu.view", "sales.view"}, r.Permissions)

	_, err = roles.SetPermissions(ctx, r.ID, []string{"made.up"})
	requireCode(t, err, apperr.CodeValidation)

	perms, err := roles.Permissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 2)
}
