package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cafe-pos-api/response"
	"cafe-pos-api/statemachine"
)

// Health reports database reachability and the printer mode. It answers 503
// when the database cannot be pinged.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := gin.H{"database": "connected", "printer": "unknown", "email": "configured"}
	status, code := "healthy", http.StatusOK
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		services["database"] = "error"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if h.Printer != nil {
		switch ps := h.Printer.Status(ctx); {
		case !ps.Enabled || ps.TestMode:
			services["printer"] = "mock"
		case ps.Available:
			services["printer"] = "ready"
		default:
			services["printer"] = "unavailable"
		}
	}
	body := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
		"version":   h.Version,
		"uptime":    time.Since(h.Started).Round(time.Second).String(),
	}
	if code != http.StatusOK {
		c.JSON(code, body)
		return
	}
	response.OK(c, body)
}

// Welcome
func (h *Handler) Welcome(c *gin.Context) {
	response.OK(c, gin.H{
		"message": "Welcome to the CafePOS API",
		"health":  "/health",
		"docs":    "/api/state-machine",
		"version": h.Version,
	})
}

// GetStateMachineInfo returns the order status machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	response.OK(c, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"initial_state":   "completed",
		"terminal_states": []string{"refunded", "voided"},
		"description":     "Order lifecycle after checkout",
	})
}
