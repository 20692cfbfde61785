package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

// FederatedConfig identifies the trusted identity provider.
type FederatedConfig struct {
	Enabled  bool
	Issuer   string
	Audience string
	Secret   string
}

// FederatedProvider accepts HS256 ID tokens minted by a trusted identity provider.
type FederatedProvider struct {
	config FederatedConfig
}

// NewFederatedProvider constructs the provider.
func NewFederatedProvider(config FederatedConfig) *FederatedProvider {
	return &FederatedProvider{config: config}
}

// Verify validates idToken and returns its subject as the principal.
func (p *FederatedProvider) Verify(_ context.Context, idToken string) (*models.Principal, error) {
	if !p.config.Enabled || p.config.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrAuth, "federated sign-in is not enabled")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if p.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.config.Issuer))
	}
	if p.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.config.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuth.Code, appErrors.ErrAuth.Status, "federated sign-in failed")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrAuth, "federated token has no subject")
	}
	return &models.Principal{UID: claims.Subject}, nil
}
