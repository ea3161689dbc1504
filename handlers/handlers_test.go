package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/config"
	"cafe-pos-api/controllers"
	"cafe-pos-api/handlers"
	"cafe-pos-api/models"
	"cafe-pos-api/notify"
	"cafe-pos-api/printer"
	"cafe-pos-api/routes"
	"cafe-pos-api/services"
	"cafe-pos-api/testutil"
)

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Errors     []string        `json:"errors"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	ErrorCode  string          `json:"errorCode"`
}

type server struct {
	router *gin.Engine
	menu   *controllers.MenuController
	users  *controllers.UsersController
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db := testutil.NewDB(t)
	cfg := config.Default()
	cfg.JWT.Secret = "handler-test-secret"
	cfg.Printer.Enabled = false
	cfg.Uploads.Dir = t.TempDir()

	perms := services.NewPermissionService(db, log)
	require.NoError(t, perms.Bootstrap(context.Background()))

	menu := controllers.NewMenuController(db)
	inventory := controllers.NewInventoryController(db)
	orders := controllers.NewOrdersController(db)
	users := controllers.NewUsersController(db)
	alerts := controllers.NewAlertsController(db)
	mailer := notify.NewMailer(config.Email{}, log)
	receipts := printer.New(cfg.Printer, cfg.Business, log)
	renderer := services.NewReportRenderer(cfg.Business.Name)
	sales := services.NewSalesService(db, log)

	h := &handlers.Handler{
		DB:            db,
		Menu:          menu,
		Inventory:     inventory,
		Orders:        orders,
		OrderItems:    controllers.NewOrderItemsController(db),
		Users:         users,
		Roles:         controllers.NewRolesController(db),
		Alerts:        alerts,
		OrderSvc:      services.NewOrderService(orders, receipts, services.OrderOptions{}, log),
		Sales:         sales,
		Auth:          services.NewAuthService(db, users, perms, mailer, renderer, cfg.JWT, cfg.Email.ResetURL, log),
		Permissions:   perms,
		Reports:       services.NewReportMailer(sales, mailer, renderer, nil, log),
		Importer:      services.NewMenuImporter(menu, log),
		Exporter:      services.NewInventoryExporter(inventory),
		Images:        services.NewImageService(menu, cfg.Uploads.Dir, cfg.Uploads.MaxBytes, log),
		AlertSvc:      services.NewAlertService(alerts, notify.NewPublisher(config.AMQP{}, log), log),
		Settings:      services.NewSettingsService(db, services.DefaultSettings(cfg)),
		Printer:       receipts,
		Log:           log,
		ReportTimeout: 5 * time.Second,
		Version:       "test",
		Started:       time.Now(),
	}
	r := gin.New()
	routes.SetupRoutes(r, h, cfg.Uploads.Dir)
	return &server{router: r, menu: menu, users: users}
}

func (s *server) user(t *testing.T, username, password string, role models.UserRole) *models.User {
	t.Helper()
	u, err := s.users.Create(context.Background(), controllers.UserInput{Username: &username, Password: &password, Role: &role})
	require.NoError(t, err)
	return u
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *server) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *server) login(t *testing.T, username, password string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w, env := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Services["database"])
	assert.Equal(t, "mock", body.Services["printer"])
	assert.Empty(t, env.Errors)
}

func TestLoginAndProfile(t *testing.T) {
	s := newServer(t)
	s.user(t, "manager", "password1", models.RoleManager)

	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "manager", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)

	token := s.login(t, "manager", "password1")
	w, env = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"manager"`)

	w, _ = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedJSON(t *testing.T) {
	s := newServer(t)
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", env.ErrorCode)
}

func TestCreateOrderAcceptsAliases(t *testing.T) {
	s := newServer(t)
	admin := s.user(t, "owner", "password1", models.RoleAdmin)
	token := s.login(t, "owner", "password1")

	name, size, price := "Latte", "Large", decimal.RequireFromString("3.00")
	latte, err := s.menu.Create(context.Background(), controllers.MenuItemInput{Name: &name, Size: &size, Price: &price})
	require.NoError(t, err)

	body := gin.H{
		"createdBy":     admin.ID,
		"subtotal":      "6.00",
		"tax":           "0.48",
		"total":         "6.48",
		"amountPaid":    "10.00",
		"paymentMethod": "CASH",
		"orderNotes":    "oat milk",
		"items": []gin.H{
			{"menu_item_id": latte.ID, "menuItemName": "Latte", "sizeName": "Large", "quantity": 2, "price": "3.00"},
		},
	}
	w, env := s.do(t, http.MethodPost, "/api/orders", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Order map[string]any `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.InDelta(t, 6.48, res.Order["totalAmount"], 1e-9)
	assert.InDelta(t, 0.48, res.Order["taxAmount"], 1e-9)
	assert.InDelta(t, 3.52, res.Order["changeGiven"], 1e-9)
	assert.Equal(t, "cash", res.Order["paymentMethod"])
	assert.Equal(t, "oat milk", res.Order["notes"])
	assert.Equal(t, admin.ID, res.Order["staffId"])

	id, _ := res.Order["id"].(string)
	require.NotEmpty(t, id)
	w, env = s.do(t, http.MethodGet, "/api/orders/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"menuItemName":"Latte"`)
}

func TestCreateOrderReportsMissingFields(t *testing.T) {
	s := newServer(t)
	s.user(t, "owner", "password1", models.RoleAdmin)
	token := s.login(t, "owner", "password1")

	w, env := s.do(t, http.MethodPost, "/api/orders", token, gin.H{"subtotal": "1.00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
	assert.ElementsMatch(t, []string{
		"items are required",
		"taxAmount is required",
		"totalAmount is required",
		"paymentMethod is required",
	}, env.Errors)
}

func TestCashierCannotRefund(t *testing.T) {
	s := newServer(t)
	s.user(t, "till", "password1", models.RoleCashier)
	token := s.login(t, "till", "password1")

	w, env := s.do(t, http.MethodPost, "/api/orders/anything/refund", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.ErrorCode)

	w, _ = s.do(t, http.MethodGet, "/api/menu_items", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBulkImportAndExport(t *testing.T) {
	s := newServer(t)
	s.user(t, "owner", "password1", models.RoleAdmin)
	token := s.login(t, "owner", "password1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "menu.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "name,size_name,size_price,category\nMocha,Regular,3.20,Coffee\nScone,,2.10,Pastries\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/menu_items/bulk-import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w, env := s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"imported":2`)

	w, env = s.do(t, http.MethodGet, "/api/menu_items?category=Coffee", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"Mocha"`)
	assert.NotContains(t, string(env.Data), `"Scone"`)

	w, _ = s.do(t, http.MethodGet, "/api/inventory/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestDashboardRequiresRange(t *testing.T) {
	s := newServer(t)
	s.user(t, "owner", "password1", models.RoleAdmin)
	token := s.login(t, "owner", "password1")

	w, env := s.do(t, http.MethodGet, "/api/sales/dashboard", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)

	w, _ = s.do(t, http.MethodGet, "/api/sales/dashboard?start_date=2026-03-01&end_date=2026-03-31", token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
