package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type profileReader interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// SessionService resolves an authenticated principal into a role and landing route.
type SessionService struct {
	profiles profileReader
	logger   *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(profiles profileReader, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{profiles: profiles, logger: logger}
}

// Resolve loads the profile of principal and routes it by role. The profile is
// read on every call; a failed fetch is reported and not retried. Every
// returned resolution is in a terminal state.
func (s *SessionService) Resolve(ctx context.Context, principal *models.Principal) (*models.SessionResolution, error) {
	if principal == nil || principal.UID == "" {
		return &models.SessionResolution{State: models.SessionUnauthenticated}, appErrors.ErrUnauthorized
	}

	res := &models.SessionResolution{State: models.SessionResolving, UID: principal.UID}

	profile, err := s.profiles.GetByID(ctx, principal.UID)
	if err != nil {
		res.State = models.SessionDenied
		if errors.Is(err, appErrors.ErrNotFound) {
			return res, appErrors.As(err, appErrors.ErrNotFound, "profile not found")
		}
		s.logger.Warn("profile fetch failed", zap.String("uid", principal.UID), zap.Error(err))
		return res, err
	}

	res.Profile = profile
	res.Role = profile.Role

	landing, ok := models.LandingRoute(profile.Role)
	if !ok {
		res.State = models.SessionDenied
		return res, appErrors.ErrNoDashboard
	}

	res.State = models.SessionRouted
	res.Landing = landing
	return res, nil
}
