package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/middleware"
	"cafe-pos-api/response"
)

// ── Users ───────────────────────────────────────────────────────────────────

func (h *Handler) ListUsers(c *gin.Context) {
	var f controllers.UserFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.Users.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetUser returns the user with their personal permission overrides
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.Users.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	overrides, err := h.Users.PermissionOverrides(ctx, u.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": u, "permissionOverrides": overrides})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in controllers.UserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.Users.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u, "User created")
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var in controllers.UserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.Users.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u, "User updated")
}

// DeleteUser refuses to delete the caller's own account
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == middleware.GetUserID(c) {
		response.Error(c, apperr.Validation("You cannot delete your own account"))
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "User deleted")
}

type permissionOverride struct {
	PermissionID string `json:"permissionId" binding:"required"`
	// Granted nil removes the override and falls back to the role.
	Granted *bool `json:"granted"`
}

type userPermissionsRequest struct {
	Overrides []permissionOverride `json:"overrides" binding:"required,dive"`
}

// SetUserPermissions applies grant, revoke or clear per permission
func (h *Handler) SetUserPermissions(c *gin.Context) {
	var req userPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	for _, o := range req.Overrides {
		if err := h.Users.SetPermissionOverride(ctx, id, o.PermissionID, o.Granted); err != nil {
			response.Error(c, err)
			return
		}
	}
	set, err := h.Permissions.Resolve(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	overrides, err := h.Users.PermissionOverrides(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"permissions": set.List(), "permissionOverrides": overrides}, "Permissions updated")
}

// ── Roles ───────────────────────────────────────────────────────────────────

func (h *Handler) ListRoles(c *gin.Context) {
	var p controllers.Page
	if !bindQuery(c, &p) {
		return
	}
	page, err := h.Roles.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

func (h *Handler) GetRole(c *gin.Context) {
	r, err := h.Roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

func (h *Handler) CreateRole(c *gin.Context) {
	var in controllers.RoleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.Roles.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, r, "Role created")
}

func (h *Handler) UpdateRole(c *gin.Context) {
	var in controllers.RoleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.Roles.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r, "Role updated")
}

func (h *Handler) DeleteRole(c *gin.Context) {
	if err := h.Roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Role deleted")
}

func (h *Handler) GetRolePermissions(c *gin.Context) {
	r, err := h.Roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"roleId": r.ID, "permissions": r.Permissions})
}

type rolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// SetRolePermissions replaces the role's grants wholesale
func (h *Handler) SetRolePermissions(c *gin.Context) {
	var req rolePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.Roles.SetPermissions(c.Request.Context(), c.Param("id"), req.Permissions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r, "Role permissions updated")
}

// ListPermissions returns the permission catalogue
func (h *Handler) ListPermissions(c *gin.Context) {
	perms, err := h.Roles.Permissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, perms)
}

// ── Settings ────────────────────────────────────────────────────────────────

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// UpdateSettings merges the supplied sections key by key
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch map[string]json.RawMessage
	if !bindJSON(c, &patch) {
		return
	}
	s, err := h.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s, "Settings updated")
}
