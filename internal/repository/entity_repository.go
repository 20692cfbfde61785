package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

// EntityRepository is a typed view over one collection of a DocumentStore.
// Documents are decoded into T and must pass T's validate tags.
type EntityRepository[T any] struct {
	store      DocumentStore
	collection string
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewEntityRepository constructs a repository for collection.
func NewEntityRepository[T any](store DocumentStore, collection string, validate *validator.Validate, logger *zap.Logger) *EntityRepository[T] {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityRepository[T]{store: store, collection: collection, validate: validate, logger: logger}
}

// Collection returns the collection name.
func (r *EntityRepository[T]) Collection() string {
	return r.collection
}

// ListAll re-reads the collection applying filter. Documents that do not
// decode into a valid T are logged and left out of the result.
func (r *EntityRepository[T]) ListAll(ctx context.Context, filter models.Filter[T]) ([]T, error) {
	docs, err := r.store.List(ctx, r.collection, filter.Equals)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list %s", r.collection))
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := r.decode(doc)
		if err != nil {
			r.logger.Warn("skipping malformed document", zap.String("collection", r.collection), zap.String("id", doc.ID()))
			continue
		}
		if filter.Match != nil && !filter.Match(*item) {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetByID fetches one entity.
func (r *EntityRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("%s/%s not found", r.collection, id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s/%s", r.collection, id))
	}
	return r.decode(doc)
}

// Create stores entity under a new store-assigned id and returns it.
func (r *EntityRepository[T]) Create(ctx context.Context, entity T) (string, error) {
	fields, err := r.encode(entity)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, r.collection, fields)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrWrite.Code, appErrors.ErrWrite.Status, fmt.Sprintf("failed to create %s document", r.collection))
	}
	return id, nil
}

// Insert stores entity under id unless a document already holds it, which is
// reported as a conflict.
func (r *EntityRepository[T]) Insert(ctx context.Context, id string, entity T) error {
	fields, err := r.encode(entity)
	if err != nil {
		return err
	}
	if err := r.store.Insert(ctx, r.collection, id, fields); err != nil {
		if errors.Is(err, ErrDocumentExists) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("%s/%s already exists", r.collection, id))
		}
		return appErrors.Wrap(err, appErrors.ErrWrite.Code, appErrors.ErrWrite.Status, fmt.Sprintf("failed to write %s/%s", r.collection, id))
	}
	return nil
}

// Set stores entity under an explicit id.
func (r *EntityRepository[T]) Set(ctx context.Context, id string, entity T) error {
	fields, err := r.encode(entity)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.collection, id, fields); err != nil {
		return appErrors.Wrap(err, appErrors.ErrWrite.Code, appErrors.ErrWrite.Status, fmt.Sprintf("failed to write %s/%s", r.collection, id))
	}
	return nil
}

// Update merges fields into the top level of an existing document. The merged
// result must still decode into a valid T.
func (r *EntityRepository[T]) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	current, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("%s/%s not found", r.collection, id))
		}
		return appErrors.Wrap(err, appErrors.ErrWrite.Code, appErrors.ErrWrite.Status, fmt.Sprintf("failed to load %s/%s", r.collection, id))
	}

	patch := withoutID(fields)
	merged := withID(id, current)
	for k, v := range patch {
		merged[k] = v
	}
	if _, err := r.decodeAs(merged, appErrors.ErrValidation); err != nil {
		return err
	}

	if err := r.store.Update(ctx, r.collection, id, patch); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("%s/%s not found", r.collection, id))
		}
		return appErrors.Wrap(err, appErrors.ErrWrite.Code, appErrors.ErrWrite.Status, fmt.Sprintf("failed to update %s/%s", r.collection, id))
	}
	return nil
}

func (r *EntityRepository[T]) encode(entity T) (Document, error) {
	if err := r.validate.Struct(entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s document", r.collection))
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document")
	}
	var fields Document
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document")
	}
	return withoutID(fields), nil
}

func (r *EntityRepository[T]) decode(doc Document) (*T, error) {
	return r.decodeAs(doc, appErrors.ErrDecode)
}

// decodeAs converts doc into T, reporting failures with the code of kind.
func (r *EntityRepository[T]) decodeAs(doc Document, kind *appErrors.Error) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, kind.Code, kind.Status, fmt.Sprintf("malformed %s/%s", r.collection, doc.ID()))
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		r.logger.Warn("document shape mismatch", zap.String("collection", r.collection), zap.String("id", doc.ID()), zap.Error(err))
		return nil, appErrors.Wrap(err, kind.Code, kind.Status, fmt.Sprintf("malformed %s/%s", r.collection, doc.ID()))
	}
	if err := r.validate.Struct(item); err != nil {
		r.logger.Warn("document failed validation", zap.String("collection", r.collection), zap.String("id", doc.ID()), zap.Error(err))
		return nil, appErrors.Wrap(err, kind.Code, kind.Status, fmt.Sprintf("malformed %s/%s", r.collection, doc.ID()))
	}
	return &item, nil
}
