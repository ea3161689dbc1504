package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/printer"
	"cafe-pos-api/services"
	"cafe-pos-api/services/mocks"
	"cafe-pos-api/testutil"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type orderFixture struct {
	svc     *services.OrderService
	orders  *controllers.OrdersController
	printer *mocks.MockReceiptPrinter
	latteID string
	staffID string
}

func newOrderFixture(t *testing.T, opts services.OrderOptions) *orderFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	require.NoError(t, services.NewPermissionService(db, discardLogger()).Bootstrap(ctx))

	name, pass, first := "cashier", "password1", "Front"
	staff, err := controllers.NewUsersController(db).Create(ctx, controllers.UserInput{Username: &name, Password: &pass, FirstName: &first})
	require.NoError(t, err)
	item, price := "Latte", money("3.00")
	latte, err := controllers.NewMenuController(db).Create(ctx, controllers.MenuItemInput{Name: &item, Price: &price})
	require.NoError(t, err)

	orders := controllers.NewOrdersController(db)
	p := mocks.NewMockReceiptPrinter(gomock.NewController(t))
	return &orderFixture{
		svc:     services.NewOrderService(orders, p, opts, discardLogger()),
		orders:  orders,
		printer: p,
		latteID: latte.ID,
		staffID: staff.ID,
	}
}

func (f *orderFixture) input() services.CreateOrderInput {
	return services.CreateOrderInput{
		StaffID:       f.staffID,
		Subtotal:      money("6.00"),
		TaxAmount:     money("0.48"),
		TotalAmount:   money("6.48"),
		PaymentMethod: models.PaymentCash,
		CashReceived:  decimal.NewNullDecimal(money("10.00")),
		Items: []services.LineItemInput{
			{MenuItemID: f.latteID, Name: "Latte", Size: "Regular", Quantity: 2, UnitPrice: money("3.00")},
		},
	}
}

func TestCreateOrderPrintsReceipt(t *testing.T) {
	f := newOrderFixture(t, services.OrderOptions{AutoPrint: true})
	f.printer.EXPECT().Print(gomock.Any(), gomock.Any(), false).DoAndReturn(
		func(_ context.Context, r printer.Receipt, _ bool) printer.Result {
			assert.Equal(t, "Front", r.Cashier)
			require.Len(t, r.Lines, 1)
			return printer.Result{Success: true, Mock: true}
		})

	res, err := f.svc.Create(context.Background(), f.input())
	require.NoError(t, err)
	o := res.Order
	assert.Equal(t, models.StatusCompleted, o.Status)
	assert.True(t, o.TotalAmount.Equal(money("6.48")))
	require.True(t, o.ChangeAmount.Valid)
	assert.True(t, o.ChangeAmount.Decimal.Equal(money("3.52")))
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].LineTotal.Equal(money("6.00")))
	assert.NotEmpty(t, o.OrderNumber)
	assert.LessOrEqual(t, len(o.OrderNumber), models.OrderNumberMaxLen)
	assert.False(t, res.StaffFallback)
	require.NotNil(t, res.Receipt)
	assert.True(t, res.Receipt.Success)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t, services.OrderOptions{})
	ctx := context.Background()

	in := f.input()
	in.TotalAmount = money("7.00")
	_, err := f.svc.Create(ctx, in)
	assert.Equal(t, apperr.CodeValidation, appErr(t, err).Code)

	in = f.input()
	in.PaymentMethod = "crypto"
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, apperr.CodeValidation, appErr(t, err).Code)

	in = f.input()
	in.CashReceived = decimal.NewNullDecimal(money("5.00"))
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, apperr.CodeValidation, appErr(t, err).Code)

	in = f.input()
	in.Items = nil
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, apperr.CodeValidation, appErr(t, err).Code)
}

func TestCreateOrderStaffPolicy(t *testing.T) {
	ctx := context.Background()

	lenient := newOrderFixture(t, services.OrderOptions{})
	in := lenient.input()
	in.StaffID = "ghost"
	res, err := lenient.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, res.StaffFallback)
	assert.NotEqual(t, "ghost", res.Order.StaffID)
	assert.Nil(t, res.Receipt)

	strict := newOrderFixture(t, services.OrderOptions{StrictStaff: true})
	in = strict.input()
	in.StaffID = "ghost"
	_, err = strict.svc.Create(ctx, in)
	e := appErr(t, err)
	assert.Equal(t, apperr.CodeInvalidStaff, e.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
}

func TestRefundVoidAndReprint(t *testing.T) {
	f := newOrderFixture(t, services.OrderOptions{})
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	id := res.Order.ID

	_, err = f.svc.Refund(ctx, id, f.staffID, "", services.NewPermissionSet(services.PermSalesProcess))
	assert.Equal(t, apperr.CodeInvalidTransition, appErr(t, err).Code)

	v, err := f.svc.Refund(ctx, id, f.staffID, "cold coffee", services.NewPermissionSet(services.Wildcard))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, v.Status)

	_, err = f.svc.Void(ctx, id, f.staffID, "", services.NewPermissionSet(services.Wildcard))
	assert.Equal(t, apperr.CodeInvalidTransition, appErr(t, err).Code)

	f.printer.EXPECT().Print(gomock.Any(), gomock.Any(), true).Return(printer.Result{Success: true, Mock: true})
	again, err := f.svc.Reprint(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Order.ReprintCount)
	require.NotNil(t, again.Receipt)
}

func TestPermissionSetWildcard(t *testing.T) {
	set := services.NewPermissionSet(services.Wildcard)
	assert.True(t, set.Has(services.PermSalesVoid))
	assert.Equal(t, []string{services.Wildcard}, set.List())
}
