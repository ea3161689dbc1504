package handlers

import (
	"github.com/gin-gonic/gin"

	"cafe-pos-api/middleware"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetTokenRequest struct {
	Token string `json:"token"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
	Password    string `json:"password"`
}

// Login authenticates a user by password or PIN and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session, "Login successful")
}

// Logout is a no-op for stateless tokens; clients drop the token.
func (h *Handler) Logout(c *gin.Context) {
	response.OK(c, gin.H{"message": "Logged out successfully"})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.Auth.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": profile})
}

// RefreshToken trades a signed, possibly expired, token for a fresh one
func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := middleware.BearerToken(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.Auth.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *Handler) ValidateSession(c *gin.Context) {
	token, err := middleware.BearerToken(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.Auth.ValidateSession(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session, "Session valid")
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Password reset email sent")
}

func (h *Handler) ValidateResetToken(c *gin.Context) {
	var req ResetTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.ValidateResetToken(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Token is valid")
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	password := req.NewPassword
	if password == "" {
		password = req.Password
	}
	if err := h.Auth.ConfirmPasswordReset(c.Request.Context(), req.Token, password); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"reset": true}, "Password reset successful")
}
