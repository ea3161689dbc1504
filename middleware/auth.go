package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"cafe-pos-api/apperr"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

const (
	userIDKey      = "userID"
	usernameKey    = "username"
	roleKey        = "role"
	permissionsKey = "permissions"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

// PermissionResolver loads the effective permissions of a user.
type PermissionResolver interface {
	Resolve(ctx context.Context, userID string) (services.PermissionSet, error)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return "", apperr.Unauthorized(apperr.CodeTokenRequired, "Authorization token required")
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), nil
}

// AuthRequired validates the JWT and injects the caller and their permissions into context
func AuthRequired(tokens TokenParser, perms PermissionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := BearerToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		claims, err := tokens.ParseToken(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		set, err := perms.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Set(roleKey, string(claims.Role))
		c.Set(permissionsKey, set)
		response.SetLogger(c, response.Logger(c).WithField("user_id", claims.UserID))
		c.Next()
	}
}

// RequirePermission enforces that the caller holds the given permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPermissions(c).Has(permission) {
			response.Error(c, apperr.Forbidden(apperr.CodeForbidden, "Access denied. Required permission: "+permission))
			return
		}
		c.Next()
	}
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) string {
	return c.GetString(roleKey)
}

// GetPermissions returns the caller's permission set; empty when unauthenticated.
func GetPermissions(c *gin.Context) services.PermissionSet {
	if v, ok := c.Get(permissionsKey); ok {
		if set, ok := v.(services.PermissionSet); ok {
			return set
		}
	}
	return services.NewPermissionSet()
}
