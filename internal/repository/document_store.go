package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrDocumentNotFound is returned by stores when the addressed document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists is returned by Insert when the id is already taken.
	ErrDocumentExists = errors.New("document already exists")
)

// Document is a stored record. The "id" key carries the store-assigned identifier.
type Document map[string]interface{}

// ID returns the identifier carried by the document.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// DocumentStore is the persistence boundary shared by every collection.
type DocumentStore interface {
	// List returns every document in collection whose top-level fields equal the given values.
	List(ctx context.Context, collection string, equals map[string]interface{}) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create stores fields under a new store-assigned id.
	Create(ctx context.Context, collection string, fields Document) (string, error)
	// Insert stores fields under an explicit id only if no document holds it yet.
	Insert(ctx context.Context, collection, id string, fields Document) error
	// Set stores fields under an explicit id, replacing any previous document.
	Set(ctx context.Context, collection, id string, fields Document) error
	// Update merges fields into the top level of an existing document.
	Update(ctx context.Context, collection, id string, fields Document) error
	Ping(ctx context.Context) error
}

// queryObserver receives store timings.
type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

func observe(obs queryObserver, label string, start time.Time) {
	if obs != nil {
		obs.ObserveDBQuery(label, time.Since(start))
	}
}

// withoutID copies fields dropping the immutable id key.
func withoutID(fields Document) Document {
	out := make(Document, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

func withID(id string, fields Document) Document {
	out := withoutID(fields)
	out["id"] = id
	return out
}

// matchesEquals compares top-level values by their JSON encoding so numbers
// decoded from different backends compare equal.
func matchesEquals(doc Document, equals map[string]interface{}) bool {
	for key, want := range equals {
		got, ok := doc[key]
		if !ok {
			return false
		}
		gotRaw, err := json.Marshal(got)
		if err != nil {
			return false
		}
		wantRaw, err := json.Marshal(want)
		if err != nil {
			return false
		}
		if string(gotRaw) != string(wantRaw) {
			return false
		}
	}
	return true
}
