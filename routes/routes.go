package routes

import (
	"github.com/gin-gonic/gin"

	"cafe-pos-api/handlers"
	"cafe-pos-api/middleware"
	"cafe-pos-api/services"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, uploadsDir string) {
	r.GET("/health", h.Health)
	r.GET("/", h.Welcome)
	r.Static("/uploads", uploadsDir)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)
		public.POST("/auth/logout", h.Logout)
		public.POST("/auth/refresh", h.RefreshToken)
		public.POST("/auth/validate-session", h.ValidateSession)
		public.POST("/auth/password-reset-request", h.RequestPasswordReset)
		public.POST("/auth/validate-reset-token", h.ValidateResetToken)
		public.POST("/auth/password-reset-confirm", h.ConfirmPasswordReset)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(h.Auth, h.Permissions))
	perm := middleware.RequirePermission

	auth.GET("/auth/me", h.GetProfile)

	// Menu
	auth.GET("/menu_items", perm(services.PermMenuView), h.ListMenuItems)
	auth.GET("/menu_items/:id", perm(services.PermMenuView), h.GetMenuItem)
	auth.POST("/menu_items", perm(services.PermMenuCreate), h.AddMenuItem)
	auth.POST("/menu_items/bulk-import", perm(services.PermMenuCreate), h.BulkImportMenu)
	auth.PUT("/menu_items/:id", perm(services.PermMenuEdit), h.UpdateMenuItem)
	auth.DELETE("/menu_items/:id", perm(services.PermMenuDelete), h.DeleteMenuItem)
	auth.POST("/uploads/menu-image", perm(services.PermMenuEdit), h.UploadMenuImage)

	// Inventory
	auth.GET("/inventory", perm(services.PermInventoryView), h.ListInventory)
	auth.GET("/inventory/export", perm(services.PermInventoryView), h.ExportInventory)
	auth.GET("/inventory/:id", perm(services.PermInventoryView), h.GetInventoryItem)
	auth.GET("/inventory/:id/movements", perm(services.PermInventoryView), h.InventoryMovements)
	auth.POST("/inventory", perm(services.PermInventoryEdit), h.CreateInventoryItem)
	auth.PUT("/inventory/:id", perm(services.PermInventoryEdit), h.UpdateInventoryItem)
	auth.DELETE("/inventory/:id", perm(services.PermInventoryEdit), h.DeleteInventoryItem)
	auth.POST("/inventory/:id/adjust", perm(services.PermInventoryEdit), h.AdjustStock)

	// Roles and permissions
	roles := auth.Group("", perm(services.PermRolesManage))
	{
		roles.GET("/permissions", h.ListPermissions)
		roles.GET("/roles", h.ListRoles)
		roles.POST("/roles", h.CreateRole)
		roles.GET("/roles/:id", h.GetRole)
		roles.PUT("/roles/:id", h.UpdateRole)
		roles.DELETE("/roles/:id", h.DeleteRole)
		roles.GET("/roles/:id/permissions", h.GetRolePermissions)
		roles.PUT("/roles/:id/permissions", h.SetRolePermissions)
	}

	// Users
	auth.GET("/users", perm(services.PermUsersView), h.ListUsers)
	auth.GET("/users/:id", perm(services.PermUsersView), h.GetUser)
	auth.POST("/users", perm(services.PermUsersManage), h.CreateUser)
	auth.PUT("/users/:id", perm(services.PermUsersManage), h.UpdateUser)
	auth.DELETE("/users/:id", perm(services.PermUsersManage), h.DeleteUser)
	auth.PUT("/users/:id/permissions", perm(services.PermUsersManage), h.SetUserPermissions)

	// Orders
	auth.GET("/orders", perm(services.PermSalesView), h.ListOrders)
	auth.GET("/orders/:id", perm(services.PermSalesView), h.GetOrder)
	auth.GET("/orders/:id/history", perm(services.PermSalesView), h.OrderHistory)
	auth.POST("/orders", perm(services.PermSalesProcess), h.CreateOrder)
	auth.PUT("/orders/:id", perm(services.PermSalesProcess), h.UpdateOrder)
	auth.DELETE("/orders/:id", perm(services.PermSystemAdmin), h.DeleteOrder)
	auth.POST("/orders/:id/refund", perm(services.PermSalesRefund), h.RefundOrder)
	auth.POST("/orders/:id/void", perm(services.PermSalesVoid), h.VoidOrder)
	auth.POST("/orders/:id/reprint-receipt", perm(services.PermReceiptsPrint), h.ReprintReceipt)

	// Order items
	auth.GET("/order_items", perm(services.PermSalesView), h.ListOrderItems)
	auth.GET("/order_items/:id", perm(services.PermSalesView), h.GetOrderItem)
	auth.PUT("/order_items/:id", perm(services.PermSalesRefund), h.UpdateOrderItem)
	auth.DELETE("/order_items/:id", perm(services.PermSalesRefund), h.DeleteOrderItem)

	// Alerts
	auth.GET("/alerts", perm(services.PermAlertsView), h.ListAlerts)
	auth.GET("/alerts/:id", perm(services.PermAlertsView), h.GetAlert)
	auth.POST("/alerts", perm(services.PermAlertsManage), h.CreateAlert)
	auth.PUT("/alerts/:id", perm(services.PermAlertsManage), h.UpdateAlert)
	auth.DELETE("/alerts/:id", perm(services.PermAlertsManage), h.DeleteAlert)

	// Reports
	auth.GET("/sales/dashboard", perm(services.PermReportsView), h.SalesDashboard)
	auth.GET("/reports/daily-sales", perm(services.PermReportsView), h.DailySalesReport)
	auth.POST("/reports/email-daily-summary", perm(services.PermReportsEmail), h.EmailDailySummary)

	// System
	auth.GET("/settings", perm(services.PermSystemSettings), h.GetSettings)
	auth.PUT("/settings", perm(services.PermSystemSettings), h.UpdateSettings)
	auth.GET("/printer/status", perm(services.PermReceiptsPrint), h.PrinterStatus)
	auth.POST("/printer/test", perm(services.PermReceiptsPrint), h.PrinterTest)
}
