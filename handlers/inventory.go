package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"cafe-pos-api/controllers"
	"cafe-pos-api/middleware"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

// ── Inventory ───────────────────────────────────────────────────────────────

func (h *Handler) ListInventory(c *gin.Context) {
	var f controllers.InventoryFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.Inventory.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

func (h *Handler) GetInventoryItem(c *gin.Context) {
	v, err := h.Inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) CreateInventoryItem(c *gin.Context) {
	var in controllers.InventoryInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.Inventory.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, v, "Inventory item created")
}

func (h *Handler) UpdateInventoryItem(c *gin.Context) {
	var in controllers.InventoryInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.Inventory.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Inventory item updated")
}

func (h *Handler) DeleteInventoryItem(c *gin.Context) {
	if err := h.Inventory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Inventory item deleted")
}

// AdjustStock applies a signed delta and raises an alert when the item
// crosses into low or out of stock. Alerting never fails the adjustment.
func (h *Handler) AdjustStock(c *gin.Context) {
	var in controllers.AdjustInput
	if !bindJSON(c, &in) {
		return
	}
	in.StaffID = middleware.GetUserID(c)
	ctx := c.Request.Context()
	res, err := h.Inventory.Adjust(ctx, c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := gin.H{"inventory": res.Inventory, "adjustment": res.Movement}
	if h.AlertSvc != nil {
		alert, err := h.AlertSvc.FromAdjustment(ctx, res)
		if err != nil {
			response.Logger(c).WithError(err).Warn("stock alert not recorded")
		} else if alert != nil {
			out["alert"] = alert
		}
	}
	response.OK(c, out, "Stock adjusted")
}

func (h *Handler) InventoryMovements(c *gin.Context) {
	var p controllers.Page
	if !bindQuery(c, &p) {
		return
	}
	page, err := h.Inventory.Movements(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// ExportInventory streams the inventory as a CSV attachment.
func (h *Handler) ExportInventory(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+services.ExportFilename(time.Now())+`"`)
	if err := h.Exporter.Export(c.Request.Context(), c.Writer); err != nil {
		response.Error(c, err)
	}
}
