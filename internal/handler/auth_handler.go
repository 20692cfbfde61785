package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

type authService interface {
	SignIn(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	SignInWithFederatedProvider(ctx context.Context, req models.FederatedLoginRequest) (*models.LoginResponse, error)
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.LoginResponse, error)
	SignOut(ctx context.Context, claims *models.JWTClaims) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service      authService
	secureCookie bool
}

// NewAuthHandler creates a new handler. secureCookie marks the session cookie HTTPS-only.
func NewAuthHandler(svc authService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie}
}

// Login godoc
// @Summary Sign in with email and password
// @Description Authenticates with the password provider and issues a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Federated godoc
// @Summary Sign in with the federated identity provider
// @Description Exchanges an ID token from the identity provider for a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.FederatedLoginRequest true "ID token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/federated [post]
func (h *AuthHandler) Federated(c *gin.Context) {
	var req models.FederatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid federated login payload"))
		return
	}

	res, err := h.service.SignInWithFederatedProvider(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// SignUp godoc
// @Summary Register a student account
// @Description Creates credentials and a student profile, then signs in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignUpRequest true "Sign up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign up payload"))
		return
	}

	res, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res)
	response.Created(c, res)
}

// Logout godoc
// @Summary Sign out
// @Description Revokes the current session token
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.SignOut(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	response.NoContent(c)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, res *models.LoginResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, res.AccessToken, int(res.ExpiresIn), "/", "", h.secureCookie, true)
}
