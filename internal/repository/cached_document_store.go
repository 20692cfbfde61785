package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// CachedDocumentStore serves List from a read-through cache and drops a
// collection's cached listings on every write to it.
type CachedDocumentStore struct {
	DocumentStore
	cache  listCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDocumentStore decorates next with list caching.
func NewCachedDocumentStore(next DocumentStore, cache listCache, ttl time.Duration, logger *zap.Logger) *CachedDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDocumentStore{DocumentStore: next, cache: cache, ttl: ttl, logger: logger}
}

func listCacheKey(collection string, equals map[string]interface{}) string {
	filter := "all"
	if len(equals) > 0 {
		if raw, err := json.Marshal(equals); err == nil {
			filter = string(raw)
		}
	}
	return fmt.Sprintf("docs:%s:list:%s", collection, filter)
}

// List implements DocumentStore.
func (s *CachedDocumentStore) List(ctx context.Context, collection string, equals map[string]interface{}) ([]Document, error) {
	key := listCacheKey(collection, equals)
	var cached []Document
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	docs, err := s.DocumentStore.List(ctx, collection, equals)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, docs, s.ttl); err != nil {
		s.logger.Warn("failed to cache listing", zap.String("collection", collection), zap.Error(err))
	}
	return docs, nil
}

// Create implements DocumentStore.
func (s *CachedDocumentStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id, err := s.DocumentStore.Create(ctx, collection, fields)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, collection)
	return id, nil
}

// Insert implements DocumentStore.
func (s *CachedDocumentStore) Insert(ctx context.Context, collection, id string, fields Document) error {
	if err := s.DocumentStore.Insert(ctx, collection, id, fields); err != nil {
		return err
	}
	s.invalidate(ctx, collection)
	return nil
}

// Set implements DocumentStore.
func (s *CachedDocumentStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if err := s.DocumentStore.Set(ctx, collection, id, fields); err != nil {
		return err
	}
	s.invalidate(ctx, collection)
	return nil
}

// Update implements DocumentStore.
func (s *CachedDocumentStore) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := s.DocumentStore.Update(ctx, collection, id, fields); err != nil {
		return err
	}
	s.invalidate(ctx, collection)
	return nil
}

func (s *CachedDocumentStore) invalidate(ctx context.Context, collection string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("docs:%s:*", collection)); err != nil {
		s.logger.Warn("failed to invalidate listings", zap.String("collection", collection), zap.Error(err))
	}
}
