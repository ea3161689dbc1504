package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cafe-pos-api/apperr"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

// reportContext bounds a report request by ReportTimeout when one is set.
func (h *Handler) reportContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.ReportTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.ReportTimeout)
}

// SalesDashboard aggregates a date range for the back office charts
func (h *Handler) SalesDashboard(c *gin.Context) {
	var q services.DashboardQuery
	if !bindQuery(c, &q) {
		return
	}
	ctx, cancel := h.reportContext(c)
	defer cancel()
	d, err := h.Sales.Dashboard(ctx, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// DailySalesReport summarises one calendar day (?date=YYYY-MM-DD, default today)
func (h *Handler) DailySalesReport(c *gin.Context) {
	ctx, cancel := h.reportContext(c)
	defer cancel()
	r, err := h.Sales.DailySales(ctx, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

type emailSummaryRequest struct {
	Date       string   `json:"date"`
	Recipients []string `json:"recipients" binding:"omitempty,dive,email"`
}

// EmailDailySummary sends the daily report on demand
func (h *Handler) EmailDailySummary(c *gin.Context) {
	var req emailSummaryRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.reportContext(c)
	defer cancel()
	res, err := h.Reports.SendDailySummary(ctx, req.Date, req.Recipients)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Daily summary sent")
}

// ── Printer ─────────────────────────────────────────────────────────────────

func (h *Handler) PrinterStatus(c *gin.Context) {
	response.OK(c, h.Printer.Status(c.Request.Context()))
}

// PrinterTest prints a test page; a mock printer always succeeds
func (h *Handler) PrinterTest(c *gin.Context) {
	res, err := h.Printer.Test(c.Request.Context())
	if err != nil || !res.Success {
		msg := "Printer test failed"
		if err != nil {
			msg += ": " + err.Error()
		} else if res.Reason != "" {
			msg += ": " + res.Reason
		}
		response.Error(c, apperr.New(http.StatusInternalServerError, apperr.CodePrinterTestFailed, msg).WithData(res))
		return
	}
	response.OK(c, res, "Printer test completed")
}
