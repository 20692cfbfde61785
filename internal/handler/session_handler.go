package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

// SessionHandler reports the resolved session of the caller.
type SessionHandler struct{}

// NewSessionHandler constructs a session handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Current godoc
// @Summary Resolve the current session
// @Description Returns the caller's role, landing route and profile
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	res := middleware.CurrentSession(c)
	if res == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}
