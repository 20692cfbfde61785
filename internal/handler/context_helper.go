package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// userID returns the uid of the caller or an unauthorized error.
func userID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

func sessionProfile(c *gin.Context) *models.UserProfile {
	if res := middleware.CurrentSession(c); res != nil {
		return res.Profile
	}
	return nil
}
