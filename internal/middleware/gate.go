package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved session.
const ContextSessionKey = "currentSession"

// LoginRoute is where unauthenticated page requests are sent.
const LoginRoute = "/login"

type sessionResolver interface {
	Resolve(ctx context.Context, principal *models.Principal) (*models.SessionResolution, error)
}

// Session resolves the caller's profile and role for API routes. It runs after
// JWT and aborts with the resolver's error.
func Session(resolver sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := resolver.Resolve(c.Request.Context(), Claims(c).Principal())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, res)
		c.Next()
	}
}

// PageGate guards dashboard pages. Unauthenticated callers are redirected to
// the login page and routed callers outside their own dashboard to their landing route.
func PageGate(resolver sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.Redirect(http.StatusFound, LoginRoute)
			c.Abort()
			return
		}

		res, err := resolver.Resolve(c.Request.Context(), claims.Principal())
		if err != nil {
			if errors.Is(err, appErrors.ErrUnauthorized) {
				c.Redirect(http.StatusFound, LoginRoute)
				c.Abort()
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		if !ownsPath(res.Landing, c.Request.URL.Path) {
			c.Redirect(http.StatusFound, res.Landing)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, res)
		c.Next()
	}
}

// RedirectRouted sends signed-in callers with a dashboard straight to it. Used on the entry pages.
func RedirectRouted(resolver sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.Next()
			return
		}
		res, err := resolver.Resolve(c.Request.Context(), claims.Principal())
		if err == nil && res.Routed() {
			c.Redirect(http.StatusFound, res.Landing)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the resolved session of the request, or nil.
func CurrentSession(c *gin.Context) *models.SessionResolution {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	res, _ := value.(*models.SessionResolution)
	return res
}

func ownsPath(landing, path string) bool {
	return path == landing || strings.HasPrefix(path, landing+"/")
}
