package handlers

import (
	"github.com/gin-gonic/gin"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

// ── Menu Management ─────────────────────────────────────────────────────────

// ListMenuItems supports category, active and search filters plus pagination
func (h *Handler) ListMenuItems(c *gin.Context) {
	var f controllers.MenuFilter
	if !bindQuery(c, &f) {
		return
	}
	items, err := h.Menu.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	cats, err := h.Menu.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"menu_items": items.Items,
		"categories": cats,
		"total":      items.Total,
		"limit":      items.Limit,
		"offset":     items.Offset,
	})
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	item, err := h.Menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// AddMenuItem adds a new item to the menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	var in controllers.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Menu.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item, "Menu item created")
}

// UpdateMenuItem changes only the supplied fields
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var in controllers.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Menu.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item, "Menu item updated")
}

// DeleteMenuItem removes an item; past sales keep their snapshot
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	if err := h.Menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Menu item deleted")
}

// BulkImportMenu reads a multipart CSV upload under "file"
func (h *Handler) BulkImportMenu(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Validation("CSV file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	opts := services.ImportOptions{
		SkipDuplicates: boolForm(c, "skipDuplicates", true),
		UpdateExisting: boolForm(c, "updateExisting", false),
	}
	res, err := h.Importer.Import(c.Request.Context(), f, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Bulk import completed")
}

// UploadMenuImage stores the multipart "image" for menu_item_id
func (h *Handler) UploadMenuImage(c *gin.Context) {
	menuItemID := c.PostForm("menu_item_id")
	if menuItemID == "" {
		menuItemID = c.Query("menu_item_id")
	}
	if menuItemID == "" {
		response.Error(c, apperr.Validation("menu_item_id is required"))
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperr.Validation("No image file provided"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	res, err := h.Images.Upload(c.Request.Context(), menuItemID, fh.Filename, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Image uploaded successfully")
}
