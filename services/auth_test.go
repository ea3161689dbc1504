package services_test

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/config"
	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/notify"
	notifymocks "cafe-pos-api/notify/mocks"
	"cafe-pos-api/services"
	"cafe-pos-api/testutil"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type authFixture struct {
	db     *gorm.DB
	users  *controllers.UsersController
	auth   *services.AuthService
	mailer *notifymocks.MockMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := discardLogger()
	perms := services.NewPermissionService(db, log)
	require.NoError(t, perms.Bootstrap(context.Background()))
	users := controllers.NewUsersController(db)
	mailer := notifymocks.NewMockMailer(gomock.NewController(t))
	auth := services.NewAuthService(db, users, perms, mailer, services.NewReportRenderer("CafePOS"),
		config.JWT{Secret: "test-secret", ExpireMinutes: 60, RememberDays: 30}, "http://pos.local/reset", log)
	return &authFixture{db: db, users: users, auth: auth, mailer: mailer}
}

func (f *authFixture) user(t *testing.T, username, password, pin, email string, role models.UserRole) *models.User {
	t.Helper()
	in := controllers.UserInput{Username: &username, Password: &password, Role: &role}
	if pin != "" {
		in.Pin = &pin
	}
	if email != "" {
		in.Email = &email
	}
	u, err := f.users.Create(context.Background(), in)
	require.NoError(t, err)
	return u
}

func appErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	return e
}

func TestLoginIssuesTokenWithPermissions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.user(t, "manager", "password1", "", "", models.RoleManager)

	session, err := f.auth.Login(ctx, services.LoginInput{Username: "manager", Password: "password1"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, u.ID, session.User.ID)
	assert.Contains(t, session.User.Permissions, services.PermSalesRefund)
	assert.NotContains(t, session.User.Permissions, services.PermSystemSettings)

	claims, err := f.auth.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)

	valid, err := f.auth.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, valid.SessionValid)

	refreshed, err := f.auth.Refresh(ctx, session.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	_, err = f.auth.ParseToken(session.Token + "x")
	assert.Equal(t, apperr.CodeTokenInvalid, appErr(t, err).Code)
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.user(t, "barista", "password1", "", "", models.RoleCashier)

	_, err := f.auth.Login(ctx, services.LoginInput{Username: "barista", Password: "wrong-one"})
	e := appErr(t, err)
	assert.Equal(t, apperr.CodeInvalidCredentials, e.Code)
	assert.Equal(t, map[string]any{"attemptsRemaining": 2}, e.Data)

	_, err = f.auth.Login(ctx, services.LoginInput{Username: "barista", Password: "wrong-two"})
	require.Error(t, err)

	_, err = f.auth.Login(ctx, services.LoginInput{Username: "barista", Password: "wrong-three"})
	e = appErr(t, err)
	assert.Equal(t, http.StatusLocked, e.Status)
	assert.Equal(t, apperr.CodeAccountLocked, e.Code)
	data, ok := e.Data.(map[string]any)
	require.True(t, ok)
	info, ok := data["lockoutInfo"].(services.LockoutInfo)
	require.True(t, ok)
	assert.Zero(t, info.AttemptsRemaining)
	assert.True(t, info.LockoutUntil.After(time.Now()))

	// The right password does not help while locked.
	_, err = f.auth.Login(ctx, services.LoginInput{Username: "barista", Password: "password1"})
	assert.Equal(t, http.StatusLocked, appErr(t, err).Status)
}

func TestLoginByPINAndDeactivated(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.user(t, "till", "password1", "4321", "", models.RoleCashier)

	session, err := f.auth.Login(ctx, services.LoginInput{PinCode: "4321"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)

	_, err = f.auth.Login(ctx, services.LoginInput{PinCode: "0000"})
	assert.Equal(t, apperr.CodeInvalidCredentials, appErr(t, err).Code)

	_, err = f.auth.Login(ctx, services.LoginInput{Username: "till"})
	assert.Equal(t, http.StatusBadRequest, appErr(t, err).Status)

	inactive := false
	_, err = f.users.Update(ctx, u.ID, controllers.UserInput{IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, services.LoginInput{Username: "till", Password: "password1"})
	assert.Equal(t, apperr.CodeAccountDeactivated, appErr(t, err).Code)
}

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.user(t, "owner", "password1", "", "owner@cafe.test", models.RoleAdmin)

	var sent notify.Message
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m notify.Message) (notify.SendResult, error) {
			sent = m
			return notify.SendResult{Sent: m.To}, nil
		})

	res, err := f.auth.RequestPasswordReset(ctx, "owner@cafe.test")
	require.NoError(t, err)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, []string{"owner@cafe.test"}, sent.To)

	// Unknown addresses get the same answer and no email.
	other, err := f.auth.RequestPasswordReset(ctx, "nobody@cafe.test")
	require.NoError(t, err)
	assert.Equal(t, res.Message, other.Message)

	m := tokenInLink.FindStringSubmatch(sent.TextBody)
	require.Len(t, m, 2)
	token := m[1]

	status, err := f.auth.ValidateResetToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, status.Valid)

	require.Error(t, f.auth.ConfirmPasswordReset(ctx, token, "short"))
	require.NoError(t, f.auth.ConfirmPasswordReset(ctx, token, "brand-new-pass"))
	require.Error(t, f.auth.ConfirmPasswordReset(ctx, token, "brand-new-pass"), "tokens are single use")

	_, err = f.auth.Login(ctx, services.LoginInput{Username: "owner", Password: "brand-new-pass"})
	require.NoError(t, err)
}
