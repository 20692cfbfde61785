package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is an authenticated identity returned by an auth provider.
type Principal struct {
	UID string `json:"uid"`
}

// Credential is the password provider record stored under credentials/{normalized email}.
// Keying by email gives one credential per address in every backend.
type Credential struct {
	ID           string `json:"id"`
	UID          string `json:"uid" validate:"required"`
	Email        string `json:"email" validate:"required"`
	PasswordHash string `json:"passwordHash" validate:"required"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FederatedLoginRequest carries an ID token minted by the federated identity provider.
type FederatedLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// SignUpRequest registers a new student account.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginResponse returns the issued session token and where the user lands.
type LoginResponse struct {
	AccessToken string             `json:"access_token"`
	ExpiresIn   int64              `json:"expires_in"`
	IssuedAt    time.Time          `json:"issued_at"`
	Session     *SessionResolution `json:"session,omitempty"`
}

// JWTClaims is the session token payload. It carries identity only; roles are
// resolved from the profile on every request.
type JWTClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Principal returns the identity encoded in the claims.
func (c *JWTClaims) Principal() *Principal {
	if c == nil || c.UserID == "" {
		return nil
	}
	return &Principal{UID: c.UserID}
}
