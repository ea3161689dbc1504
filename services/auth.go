package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/config"
	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/notify"
)

const (
	maxLoginAttempts = 3
	lockoutDuration  = 15 * time.Minute
	resetTokenTTL    = time.Hour
	minPasswordLen   = 8
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type LoginInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	PinCode    string `json:"pinCode"`
	RememberMe bool   `json:"rememberMe"`
}

type UserProfile struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          *string         `json:"email"`
	Role           models.UserRole `json:"role"`
	Permissions    []string        `json:"permissions"`
	IsActive       bool            `json:"isActive"`
	LastLogin      *time.Time      `json:"lastLogin"`
	ShiftStartTime *time.Time      `json:"shiftStartTime"`
	ShiftEndTime   *time.Time      `json:"shiftEndTime"`
}

type Session struct {
	User          *UserProfile `json:"user,omitempty"`
	Token         string       `json:"token,omitempty"`
	SessionValid  bool         `json:"sessionValid,omitempty"`
	SessionExpiry time.Time    `json:"sessionExpiry"`
}

type LockoutInfo struct {
	LockoutUntil      time.Time `json:"lockoutUntil"`
	AttemptsRemaining int       `json:"attemptsRemaining"`
}

// AuthService handles credentials, tokens and password resets.
type AuthService struct {
	users    *controllers.UsersController
	perms    *PermissionService
	db       *gorm.DB
	mailer   notify.Mailer
	renderer *ReportRenderer
	secret   []byte
	ttl      time.Duration
	remember time.Duration
	resetURL string
	log      *logrus.Entry
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, users *controllers.UsersController, perms *PermissionService, mailer notify.Mailer,
	renderer *ReportRenderer, jwtCfg config.JWT, resetURL string, log *logrus.Logger) *AuthService {
	return &AuthService{
		users:    users,
		perms:    perms,
		db:       db,
		mailer:   mailer,
		renderer: renderer,
		secret:   []byte(jwtCfg.Secret),
		ttl:      time.Duration(jwtCfg.ExpireMinutes) * time.Minute,
		remember: time.Duration(jwtCfg.RememberDays) * 24 * time.Hour,
		resetURL: resetURL,
		log:      log.WithField("component", "auth"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func invalidCredentials() *apperr.Error {
	return apperr.Unauthorized(apperr.CodeInvalidCredentials, "Invalid credentials")
}

func lockedError(until time.Time) *apperr.Error {
	return apperr.Locked(fmt.Sprintf("Account is locked until %s", until.UTC().Format(time.RFC3339))).
		WithData(map[string]any{"lockoutInfo": LockoutInfo{LockoutUntil: until.UTC(), AttemptsRemaining: 0}})
}

// Login authenticates by username and password, or by PIN alone.
// A locked account is rejected before its password is checked.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if in.PinCode == "" && (in.Username == "" || in.Password == "") {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidCredentials, "Username and password, or PIN code is required")
	}
	var (
		u   *models.User
		err error
	)
	if in.PinCode != "" {
		u, err = s.byPIN(ctx, in.PinCode)
	} else {
		u, err = s.byPassword(ctx, in.Username, in.Password)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Forbidden(apperr.CodeAccountDeactivated, "Account is deactivated")
	}
	if err := s.users.RecordLogin(ctx, u.ID); err != nil {
		return nil, err
	}
	ttl := s.ttl
	if in.RememberMe {
		ttl = s.remember
	}
	token, exp, err := s.issue(u, ttl)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "pin": in.PinCode != ""}).Info("login")
	return &Session{User: profile, Token: token, SessionExpiry: exp}, nil
}

func (s *AuthService) byPassword(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || u.IsSystem {
		return nil, invalidCredentials()
	}
	if u.IsLocked(s.now()) {
		return nil, lockedError(*u.LockedUntil)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
		return u, nil
	}
	u, err = s.users.RecordFailedLogin(ctx, u.ID, maxLoginAttempts, lockoutDuration)
	if err != nil {
		return nil, err
	}
	if u.IsLocked(s.now()) {
		s.log.WithField("user_id", u.ID).Warn("account locked after repeated failures")
		return nil, lockedError(*u.LockedUntil)
	}
	return nil, invalidCredentials().WithData(map[string]any{
		"attemptsRemaining": maxLoginAttempts - u.FailedLoginAttempts,
	})
}

// byPIN compares against every PIN on file since PINs are salted hashes.
func (s *AuthService) byPIN(ctx context.Context, pin string) (*models.User, error) {
	users, err := s.users.WithPIN(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if bcrypt.CompareHashAndPassword([]byte(users[i].PinHash), []byte(pin)) != nil {
			continue
		}
		if users[i].IsLocked(s.now()) {
			return nil, lockedError(*users[i].LockedUntil)
		}
		return &users[i], nil
	}
	return nil, invalidCredentials()
}

func (s *AuthService) issue(u *models.User, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.Truncate(time.Second), nil
}

func (s *AuthService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}

// ParseToken verifies signature and expiry.
func (s *AuthService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithTimeFunc(s.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.Unauthorized(apperr.CodeTokenExpired, "Token has expired")
	case err != nil:
		return nil, apperr.Unauthorized(apperr.CodeTokenInvalid, "Invalid token")
	case claims.UserID == "":
		return nil, apperr.Unauthorized(apperr.CodeTokenInvalid, "Invalid token")
	}
	return claims, nil
}

// Refresh accepts an expired but correctly signed token and issues a new one
// if the user is still active.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithoutClaimsValidation()); err != nil || claims.UserID == "" {
		return nil, apperr.Unauthorized(apperr.CodeTokenInvalid, "Invalid token")
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, apperr.Unauthorized(apperr.CodeUserInactive, "User not found or inactive")
	}
	signed, exp, err := s.issue(u, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, SessionExpiry: exp}, nil
}

// ValidateSession reports the profile behind a still-valid token.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Session{User: profile, SessionValid: true, SessionExpiry: claims.ExpiresAt.Time.UTC()}, nil
}

// Me returns the caller's profile with resolved permissions.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserProfile, error) {
	u, err := s.users.Get(ctx, userID)
	if apperr.IsNotFound(err) {
		return nil, apperr.New(http.StatusNotFound, apperr.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u)
}

func (s *AuthService) activeUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if apperr.IsNotFound(err) {
		return nil, apperr.New(http.StatusNotFound, apperr.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Forbidden(apperr.CodeAccountDeactivated, "Account is deactivated")
	}
	return u, nil
}

func (s *AuthService) profile(ctx context.Context, u *models.User) (*UserProfile, error) {
	perms, err := s.perms.Resolve(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Role:           u.Role,
		Permissions:    perms.List(),
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		ShiftStartTime: u.ShiftStart,
		ShiftEndTime:   u.ShiftEnd,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type ResetRequestResult struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expiresIn"`
}

// RequestPasswordReset answers the same way whether or not the email is
// known, so it cannot be used to probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	res := &ResetRequestResult{
		Message:   "If the address is registered, a reset link has been sent",
		ExpiresIn: int(resetTokenTTL.Seconds()),
	}
	u, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || u.IsSystem {
		s.log.Info("password reset requested for unknown or inactive address")
		return res, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(raw)
	row := models.PasswordResetToken{UserID: u.ID, TokenHash: hashToken(token), ExpiresAt: s.now().Add(resetTokenTTL)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	link := s.resetURL + "?token=" + url.QueryEscape(token)
	msg, err := s.renderer.PasswordReset(link, resetTokenTTL)
	if err != nil {
		return nil, err
	}
	msg.To = []string{*u.Email}
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("password reset email not sent")
		return nil, apperr.Internal("Failed to send password reset email")
	}
	return res, nil
}

func (s *AuthService) lookupReset(tx *gorm.DB, token string) (*models.PasswordResetToken, error) {
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	var rows []models.PasswordResetToken
	if err := tx.Where("token_hash = ?", hashToken(token)).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].UsedAt != nil || !rows[0].ExpiresAt.After(s.now()) {
		return nil, apperr.Validation("Invalid or expired reset token")
	}
	return &rows[0], nil
}

type ResetTokenStatus struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (*ResetTokenStatus, error) {
	row, err := s.lookupReset(s.db.WithContext(ctx), token)
	if err != nil {
		return nil, err
	}
	return &ResetTokenStatus{Valid: true, ExpiresAt: row.ExpiresAt.UTC()}, nil
}

// ConfirmPasswordReset consumes the token, sets the new password and clears any lockout.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLen {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	hash, err := controllers.HashSecret(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.lookupReset(tx, token)
		if err != nil {
			return err
		}
		used := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", row.ID).
			Update("used_at", s.now())
		if used.Error != nil {
			return used.Error
		}
		if used.RowsAffected == 0 {
			return apperr.Validation("Invalid or expired reset token")
		}
		return tx.Model(&models.User{}).Where("id = ?", row.UserID).Updates(map[string]any{
			"password_hash":         hash,
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error
	})
}
