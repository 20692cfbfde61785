package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// BoltDocumentStore keeps one bucket per collection with JSON encoded values keyed by id.
type BoltDocumentStore struct {
	db      *bbolt.DB
	metrics queryObserver
}

// NewBoltDocumentStore wraps an open bolt database.
func NewBoltDocumentStore(db *bbolt.DB, metrics queryObserver) *BoltDocumentStore {
	return &BoltDocumentStore{db: db, metrics: metrics}
}

// decodeValue parses a stored value. A JSON null decodes to an empty document.
func decodeValue(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// List implements DocumentStore.
func (s *BoltDocumentStore) List(ctx context.Context, collection string, equals map[string]interface{}) ([]Document, error) {
	defer observe(s.metrics, "bolt.list."+collection, time.Now())
	docs := make([]Document, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := decodeValue(v)
			if err != nil {
				return fmt.Errorf("decode %s/%s: %w", collection, k, err)
			}
			doc["id"] = string(k)
			if matchesEquals(doc, equals) {
				docs = append(docs, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Get implements DocumentStore.
func (s *BoltDocumentStore) Get(_ context.Context, collection, id string) (Document, error) {
	defer observe(s.metrics, "bolt.get."+collection, time.Now())
	var doc Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return ErrDocumentNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return ErrDocumentNotFound
		}
		decoded, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		doc = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc["id"] = id
	return doc, nil
}

// Create implements DocumentStore.
func (s *BoltDocumentStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Insert implements DocumentStore. Bolt serializes writers, so the check and
// the put see the same state.
func (s *BoltDocumentStore) Insert(_ context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "bolt.insert."+collection, time.Now())
	return s.put(collection, id, fields, false)
}

// Set implements DocumentStore.
func (s *BoltDocumentStore) Set(_ context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "bolt.set."+collection, time.Now())
	return s.put(collection, id, fields, true)
}

func (s *BoltDocumentStore) put(collection, id string, fields Document, replace bool) error {
	payload, err := json.Marshal(withoutID(fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		if !replace && b.Get([]byte(id)) != nil {
			return ErrDocumentExists
		}
		return b.Put([]byte(id), payload)
	})
}

// Update implements DocumentStore.
func (s *BoltDocumentStore) Update(_ context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "bolt.update."+collection, time.Now())
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return ErrDocumentNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return ErrDocumentNotFound
		}
		current, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		for k, v := range withoutID(fields) {
			current[k] = v
		}
		payload, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		return b.Put([]byte(id), payload)
	})
}

// Ping implements DocumentStore.
func (s *BoltDocumentStore) Ping(context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}
