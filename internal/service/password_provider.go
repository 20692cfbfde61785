package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type credentialRepository interface {
	GetByID(ctx context.Context, id string) (*models.Credential, error)
	// Insert fails with a conflict when id is already taken.
	Insert(ctx context.Context, id string, credential models.Credential) error
}

// PasswordProvider verifies email and password pairs against bcrypt hashes in the credentials collection.
type PasswordProvider struct {
	repo credentialRepository
	cost int
}

// NewPasswordProvider constructs the provider. cost <= 0 uses bcrypt.DefaultCost.
func NewPasswordProvider(repo credentialRepository, cost int) *PasswordProvider {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordProvider{repo: repo, cost: cost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate returns the principal owning email when password matches.
func (p *PasswordProvider) Authenticate(ctx context.Context, email, password string) (*models.Principal, error) {
	credential, err := p.repo.GetByID(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrAuth, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrAuth, "invalid email or password")
	}
	return &models.Principal{UID: credential.UID}, nil
}

// Register creates a credential for a new email and returns its principal.
// Concurrent registrations of one email race on the credential id, so
// exactly one wins and the rest get a conflict.
func (p *PasswordProvider) Register(ctx context.Context, email, password string) (*models.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	key := normalizeEmail(email)
	uid := uuid.NewString()
	credential := models.Credential{UID: uid, Email: key, PasswordHash: string(hash)}
	if err := p.repo.Insert(ctx, key, credential); err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, err
	}
	return &models.Principal{UID: uid}, nil
}
