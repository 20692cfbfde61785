package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type fakeAuthSrv struct {
	loginErr   error
	signedOut  *models.JWTClaims
	lastSignUp models.SignUpRequest
}

func (f *fakeAuthSrv) response() *models.LoginResponse {
	return &models.LoginResponse{
		AccessToken: "token-1",
		ExpiresIn:   3600,
		Session:     &models.SessionResolution{State: models.SessionRouted, Landing: "/dashboard/student"},
	}
}

func (f *fakeAuthSrv) SignIn(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.response(), nil
}

func (f *fakeAuthSrv) SignInWithFederatedProvider(context.Context, models.FederatedLoginRequest) (*models.LoginResponse, error) {
	return f.response(), nil
}

func (f *fakeAuthSrv) SignUp(_ context.Context, req models.SignUpRequest) (*models.LoginResponse, error) {
	f.lastSignUp = req
	return f.response(), nil
}

func (f *fakeAuthSrv) SignOut(_ context.Context, claims *models.JWTClaims) error {
	f.signedOut = claims
	return nil
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{}, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"secret"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "token-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Contains(t, rec.Body.String(), `"landing":"/dashboard/student"`)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.Clone(appErrors.ErrAuth, "invalid email or password")}, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, appErrors.ErrAuth.Status, rec.Code)
	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, "invalid email or password", decodeEnvelope(t, rec).Error.Message)
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{}, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerSignUpCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	payload := `{"name":"Ana","email":"ana@b.co","password":"secret1","confirm_password":"secret1"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.SignUp(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ana", srv.lastSignUp.Name)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	claims := &models.JWTClaims{UserID: "u-1"}
	c.Set(middleware.ContextUserKey, claims)

	handler.Logout(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Same(t, claims, srv.signedOut)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "", cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

func TestAuthHandlerLogoutWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{}, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	handler.Logout(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
