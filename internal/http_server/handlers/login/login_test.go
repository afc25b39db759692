package login_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"club_service/internal/auth"
	"club_service/internal/http_server/handlers/login"
	"club_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	result auth.LoginResult
	err    error
}

func (f *fakeService) Login(_ context.Context, _, _, _ string) (auth.LoginResult, error) {
	return f.result, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func TestLogin_SetsCookieAndReturnsAccessToken(t *testing.T) {
	t.Parallel()

	svc := &fakeService{result: auth.LoginResult{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-jwt",
		User:         models.User{ID: 7, Username: "ana", UserType: "member"},
	}}

	h := login.New(context.Background(), discard(), svc, "refresh_token", "/api", 7*24*time.Hour)

	rr := post(t, h, `{"username":"ana","password":"hunter22"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	var body login.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "access-jwt", body.AccessToken)
	assert.Equal(t, int64(7), body.UserID)
	assert.NotContains(t, rr.Body.String(), "refresh-jwt",
		"refresh token must never appear in the body")

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "refresh_token", c.Name)
	assert.Equal(t, "refresh-jwt", c.Value)
	assert.Equal(t, "/api", c.Path)
	assert.True(t, c.HttpOnly, "cookie must be httponly")
	assert.True(t, c.Secure, "cookie must be secure")
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: auth.ErrInvalidCredentials}

	h := login.New(context.Background(), discard(), svc, "refresh_token", "/api", time.Hour)

	rr := post(t, h, `{"username":"ana","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Result().Cookies(), "no cookie on failed login")
	assert.NotContains(t, rr.Body.String(), "access_token")
}

func TestLogin_UnknownUserSameAsWrongPassword(t *testing.T) {
	t.Parallel()

	wrongPass := &fakeService{err: auth.ErrInvalidCredentials}
	unknown := &fakeService{err: auth.ErrUserNotFound}

	h1 := login.New(context.Background(), discard(), wrongPass, "refresh_token", "/api", time.Hour)
	h2 := login.New(context.Background(), discard(), unknown, "refresh_token", "/api", time.Hour)

	rr1 := post(t, h1, `{"username":"ana","password":"wrong"}`)
	rr2 := post(t, h2, `{"username":"ghost","password":"whatever"}`)

	assert.Equal(t, rr1.Code, rr2.Code)
	assert.JSONEq(t, rr1.Body.String(), rr2.Body.String(),
		"unknown user and wrong password must be indistinguishable")
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	h := login.New(context.Background(), discard(), svc, "refresh_token", "/api", time.Hour)

	rr := post(t, h, `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
