package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type passwordAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Principal, error)
	Register(ctx context.Context, email, password string) (*models.Principal, error)
}

type federatedVerifier interface {
	Verify(ctx context.Context, idToken string) (*models.Principal, error)
}

type profileWriter interface {
	Set(ctx context.Context, id string, profile models.UserProfile) error
}

type sessionResolver interface {
	Resolve(ctx context.Context, principal *models.Principal) (*models.SessionResolution, error)
}

type tokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// AuthService signs users in through the auth providers and issues session tokens.
type AuthService struct {
	passwords passwordAuthenticator
	federated federatedVerifier
	profiles  profileWriter
	sessions  sessionResolver
	denylist  tokenDenylist
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(passwords passwordAuthenticator, federated federatedVerifier, profiles profileWriter, sessions sessionResolver, denylist tokenDenylist, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &AuthService{
		passwords: passwords,
		federated: federated,
		profiles:  profiles,
		sessions:  sessions,
		denylist:  denylist,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// SignIn authenticates with email and password.
func (s *AuthService) SignIn(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	principal, err := s.passwords.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, principal)
}

// SignInWithFederatedProvider authenticates with an ID token from the federated provider.
// No profile is created; a principal without one resolves to "profile not found".
func (s *AuthService) SignInWithFederatedProvider(ctx context.Context, req models.FederatedLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid federated login payload")
	}

	principal, err := s.federated.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, principal)
}

// SignUp registers a student account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign up payload")
	}

	principal, err := s.passwords.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := models.UserProfile{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Role:  models.RoleStudent,
	}
	if err := s.profiles.Set(ctx, principal.UID, profile); err != nil {
		s.logger.Error("credential created without profile", zap.String("uid", principal.UID), zap.Error(err))
		return nil, err
	}

	return s.startSession(ctx, principal)
}

// SignOut revokes the session token described by claims until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil || claims.ID == "" {
		return appErrors.ErrUnauthorized
	}
	ttl := s.config.Expiry
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// ValidateToken parses a session token and rejects revoked ones.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
	}
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session signed out")
	}

	return claims, nil
}

func (s *AuthService) startSession(ctx context.Context, principal *models.Principal) (*models.LoginResponse, error) {
	token, issuedAt, err := s.generateToken(principal.UID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	res := &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		IssuedAt:    issuedAt,
	}

	resolution, err := s.sessions.Resolve(ctx, principal)
	if err != nil {
		s.logger.Info("signed in without dashboard", zap.String("uid", principal.UID), zap.Error(err))
	}
	res.Session = resolution
	return res, nil
}

func (s *AuthService) generateToken(uid string) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
