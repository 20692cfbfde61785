package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestPostgresDocumentStoreListPushesDownEquality(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("u1", []byte(`{"role":"student","name":"Ana"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb")).
		WithArgs("users", `{"role":"student"}`).
		WillReturnRows(rows)

	docs, err := store.List(context.Background(), "users", map[string]interface{}{"role": "student"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u1", docs[0].ID())
	assert.Equal(t, "Ana", docs[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStoreGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("courses", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}))

	_, err := store.Get(context.Background(), "courses", "c1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStoreCreateStripsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)")).
		WithArgs("courses", sqlmock.AnyArg(), `{"name":"Intro"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Create(context.Background(), "courses", Document{"id": "ignored", "name": "Intro"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "ignored", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStoreUpdateMergesAndReportsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	query := regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2")
	mock.ExpectExec(query).WithArgs("projects", "p1", `{"status":"Done"}`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("projects", "p2", `{"status":"Done"}`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Update(context.Background(), "projects", "p1", Document{"status": "Done"}))
	assert.ErrorIs(t, store.Update(context.Background(), "projects", "p2", Document{"status": "Done"}), ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStoreSetUpserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	mock.ExpectExec("INSERT INTO documents .* ON CONFLICT \\(collection, id\\) DO UPDATE").
		WithArgs("users", "uid-1", `{"role":"student"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "users", "uid-1", Document{"role": "student"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStoreInsertReportsTakenID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresDocumentStore(db, nil)

	query := "INSERT INTO documents .* ON CONFLICT DO NOTHING"
	mock.ExpectExec(query).WithArgs("credentials", "a@example.com", `{"uid":"u1"}`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("credentials", "a@example.com", `{"uid":"u2"}`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Insert(context.Background(), "credentials", "a@example.com", Document{"uid": "u1"}))
	assert.ErrorIs(t, store.Insert(context.Background(), "credentials", "a@example.com", Document{"uid": "u2"}), ErrDocumentExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
