package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresDocumentStore persists documents in a JSONB column of the documents table.
type PostgresDocumentStore struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewPostgresDocumentStore constructs the store.
func NewPostgresDocumentStore(db *sqlx.DB, metrics queryObserver) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db, metrics: metrics}
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (r documentRow) decode() (Document, error) {
	var doc Document
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", r.ID, err)
	}
	if doc == nil {
		doc = Document{}
	}
	doc["id"] = r.ID
	return doc, nil
}

// List implements DocumentStore. Equality filters use JSONB containment.
func (s *PostgresDocumentStore) List(ctx context.Context, collection string, equals map[string]interface{}) ([]Document, error) {
	defer observe(s.metrics, "postgres.list."+collection, time.Now())
	filter := []byte("{}")
	if len(equals) > 0 {
		encoded, err := json.Marshal(equals)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		filter = encoded
	}

	var rows []documentRow
	query := "SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb"
	if err := s.db.SelectContext(ctx, &rows, query, collection, string(filter)); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.decode()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get implements DocumentStore.
func (s *PostgresDocumentStore) Get(ctx context.Context, collection, id string) (Document, error) {
	defer observe(s.metrics, "postgres.get."+collection, time.Now())
	var row documentRow
	query := "SELECT id, data FROM documents WHERE collection = $1 AND id = $2"
	if err := s.db.GetContext(ctx, &row, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return row.decode()
}

// Create implements DocumentStore.
func (s *PostgresDocumentStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	defer observe(s.metrics, "postgres.create."+collection, time.Now())
	payload, err := json.Marshal(withoutID(fields))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id := uuid.NewString()
	query := "INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)"
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(payload)); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

// Insert implements DocumentStore.
func (s *PostgresDocumentStore) Insert(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "postgres.insert."+collection, time.Now())
	payload, err := json.Marshal(withoutID(fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := "INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb) ON CONFLICT DO NOTHING"
	res, err := s.db.ExecContext(ctx, query, collection, id, string(payload))
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrDocumentExists
	}
	return nil
}

// Set implements DocumentStore.
func (s *PostgresDocumentStore) Set(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "postgres.set."+collection, time.Now())
	payload, err := json.Marshal(withoutID(fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(payload)); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update implements DocumentStore. The JSONB || operator merges top-level keys.
func (s *PostgresDocumentStore) Update(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "postgres.update."+collection, time.Now())
	payload, err := json.Marshal(withoutID(fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := "UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2"
	res, err := s.db.ExecContext(ctx, query, collection, id, string(payload))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Ping implements DocumentStore.
func (s *PostgresDocumentStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
