package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/printer"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

// Handler carries every dependency an endpoint needs. Built once in main.
type Handler struct {
	DB          *gorm.DB
	Menu        *controllers.MenuController
	Inventory   *controllers.InventoryController
	Orders      *controllers.OrdersController
	OrderItems  *controllers.OrderItemsController
	Users       *controllers.UsersController
	Roles       *controllers.RolesController
	Alerts      *controllers.AlertsController
	OrderSvc    *services.OrderService
	Sales       *services.SalesService
	Auth        *services.AuthService
	Permissions *services.PermissionService
	Reports     *services.ReportMailer
	Importer    *services.MenuImporter
	Exporter    *services.InventoryExporter
	Images      *services.ImageService
	AlertSvc    *services.AlertService
	Settings    *services.SettingsService
	Printer     *printer.Service
	Log         *logrus.Logger

	// ReportTimeout bounds dashboard and daily report queries.
	ReportTimeout time.Duration
	Version       string
	Started       time.Time
}

// bindJSON decodes the body into dst, reporting malformed JSON as INVALID_JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.New(http.StatusBadRequest, apperr.CodeInvalidJSON, "Request body is required")
	case errors.As(err, &syntax), errors.As(err, &typ):
		return apperr.New(http.StatusBadRequest, apperr.CodeInvalidJSON, "Invalid JSON: "+err.Error())
	}
	if e := apperr.FromValidator(err); e != err {
		return e
	}
	return apperr.New(http.StatusBadRequest, apperr.CodeInvalidJSON, "Invalid JSON: "+err.Error())
}

// bindQuery decodes query parameters (filters, pagination) into dst.
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.Error(c, apperr.Validation("invalid query parameters: "+err.Error()))
		return false
	}
	return true
}

func boolForm(c *gin.Context, key string, fallback bool) bool {
	v, ok := c.GetPostForm(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
