package handlers

import (
	"github.com/gin-gonic/gin"

	"cafe-pos-api/controllers"
	"cafe-pos-api/response"
)

func (h *Handler) ListAlerts(c *gin.Context) {
	var f controllers.AlertFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.Alerts.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

func (h *Handler) GetAlert(c *gin.Context) {
	a, err := h.Alerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, a)
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var in controllers.AlertInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.Alerts.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a, "Alert created")
}

func (h *Handler) UpdateAlert(c *gin.Context) {
	var in controllers.AlertInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.Alerts.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, a, "Alert updated")
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.Alerts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Alert deleted")
}
