package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/apperr"
	"cafe-pos-api/middleware"
	"cafe-pos-api/models"
	"cafe-pos-api/services"
)

type fakeTokens map[string]*services.Claims

func (f fakeTokens) ParseToken(token string) (*services.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, apperr.Unauthorized(apperr.CodeTokenInvalid, "Invalid token")
}

type fakePerms map[string][]string

func (f fakePerms) Resolve(_ context.Context, userID string) (services.PermissionSet, error) {
	return services.NewPermissionSet(f[userID]...), nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := fakeTokens{
		"cashier-token": {UserID: "u-cashier", Username: "cashier", Role: models.RoleCashier},
		"admin-token":   {UserID: "u-admin", Username: "admin", Role: models.RoleAdmin},
	}
	perms := fakePerms{
		"u-cashier": {services.PermSalesProcess},
		"u-admin":   {services.Wildcard},
	}
	r := gin.New()
	api := r.Group("/api", middleware.AuthRequired(tokens, perms))
	api.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": middleware.GetUserID(c), "role": middleware.GetRole(c)})
	})
	api.POST("/refund", middleware.RequirePermission(services.PermSalesRefund), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ErrorCode  string `json:"errorCode"`
		StatusCode int    `json:"statusCode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, w.Code, body.StatusCode)
	return body.ErrorCode
}

func TestAuthRequired(t *testing.T) {
	r := newRouter()

	t.Run("missing token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperr.CodeTokenRequired, errorCode(t, w))
	})

	t.Run("unknown token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/whoami", "forged")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperr.CodeTokenInvalid, errorCode(t, w))
	})

	t.Run("valid token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/whoami", "cashier-token")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u-cashier","role":"cashier"}`, w.Body.String())
	})
}

func TestRequirePermission(t *testing.T) {
	r := newRouter()

	w := do(r, http.MethodPost, "/api/refund", "cashier-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperr.CodeForbidden, errorCode(t, w))

	w = do(r, http.MethodPost, "/api/refund", "admin-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS("http://till.local"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://till.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://till.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
