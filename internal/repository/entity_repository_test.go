package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

func TestEntityRepositoryCreateGetRoundTrip(t *testing.T) {
	repo := NewEntityRepository[models.Course](newBoltStore(t), models.CollectionCourses, nil, nil)
	ctx := context.Background()

	course := models.Course{
		Name:        "Intro to X",
		Description: "...",
		Lessons:     5,
		Sections:    []models.Section{{Title: "One"}, {Title: "Two"}},
	}
	id, err := repo.Create(ctx, course)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	course.ID = id
	assert.Equal(t, course, *got)
}

func TestEntityRepositoryUpdateIsPartial(t *testing.T) {
	repo := NewEntityRepository[models.Course](newBoltStore(t), models.CollectionCourses, nil, nil)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.Course{Name: "Go", Description: "basics", Lessons: 3, Level: "Beginner"})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, map[string]interface{}{"lessons": 8, "id": "other"}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 8, got.Lessons)
	assert.Equal(t, "Go", got.Name)
	assert.Equal(t, "basics", got.Description)
	assert.Equal(t, "Beginner", got.Level)
}

func TestEntityRepositoryUpdateRejectsClearingRequired(t *testing.T) {
	repo := NewEntityRepository[models.Project](newBoltStore(t), models.CollectionProjects, nil, nil)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.Project{Name: "P", Description: "D"})
	require.NoError(t, err)

	err = repo.Update(ctx, id, map[string]interface{}{"name": ""})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEntityRepositoryUpdateMissing(t *testing.T) {
	repo := NewEntityRepository[models.Course](newBoltStore(t), models.CollectionCourses, nil, nil)

	err := repo.Update(context.Background(), "missing", map[string]interface{}{"name": "x"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEntityRepositoryRejectsMalformedDocuments(t *testing.T) {
	store := newBoltStore(t)
	repo := NewEntityRepository[models.Course](store, models.CollectionCourses, nil, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.CollectionCourses, "no-name", Document{"description": "missing name"}))
	_, err := repo.GetByID(ctx, "no-name")
	assert.Equal(t, appErrors.ErrDecode.Code, appErrors.FromError(err).Code)

	require.NoError(t, store.Set(ctx, models.CollectionCourses, "bad-type", Document{"name": "x", "lessons": "five"}))
	_, err = repo.GetByID(ctx, "bad-type")
	assert.Equal(t, appErrors.ErrDecode.Code, appErrors.FromError(err).Code)

}

func TestEntityRepositoryListAllSkipsMalformedDocuments(t *testing.T) {
	store := newBoltStore(t)
	core, logs := observer.New(zap.WarnLevel)
	repo := NewEntityRepository[models.Course](store, models.CollectionCourses, nil, zap.New(core))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.CollectionCourses, "good", Document{"name": "Intro", "lessons": 3}))
	require.NoError(t, store.Set(ctx, models.CollectionCourses, "no-name", Document{"description": "missing name"}))
	require.NoError(t, store.Set(ctx, models.CollectionCourses, "bad-type", Document{"name": "x", "lessons": "five"}))

	courses, err := repo.ListAll(ctx, models.Filter[models.Course]{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "good", courses[0].ID)
	assert.Equal(t, 2, logs.FilterMessage("skipping malformed document").Len())
}

func TestEntityRepositoryInsertConflicts(t *testing.T) {
	repo := NewEntityRepository[models.Credential](newBoltStore(t), models.CollectionCredentials, nil, nil)
	ctx := context.Background()

	first := models.Credential{UID: "uid-1", Email: "a@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Insert(ctx, "a@example.com", first))

	err := repo.Insert(ctx, "a@example.com", models.Credential{UID: "uid-2", Email: "a@example.com", PasswordHash: "other"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	got, err := repo.GetByID(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.UID)
}

func TestEntityRepositoryCreateValidatesRequired(t *testing.T) {
	repo := NewEntityRepository[models.Assessment](newBoltStore(t), models.CollectionAssessments, nil, nil)

	_, err := repo.Create(context.Background(), models.Assessment{Status: "Pending"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEntityRepositoryListAllFilters(t *testing.T) {
	repo := NewEntityRepository[models.Project](newBoltStore(t), models.CollectionProjects, nil, nil)
	ctx := context.Background()

	for _, p := range []models.Project{
		{Name: "Robot Arm", Description: "servo control", Status: "Pending"},
		{Name: "Weather", Description: "ROBOTIC sensors", Status: "Done"},
		{Name: "Garden", Description: "plants", Status: "Pending"},
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	pending, err := repo.ListAll(ctx, models.Filter[models.Project]{Equals: map[string]interface{}{"status": "Pending"}})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	robots, err := repo.ListAll(ctx, models.Filter[models.Project]{Match: func(p models.Project) bool {
		return strings.Contains(strings.ToLower(p.Name+" "+p.Description), "robot")
	}})
	require.NoError(t, err)
	assert.Len(t, robots, 2)
}

type failingStore struct {
	DocumentStore
}

func (failingStore) Create(context.Context, string, Document) (string, error) {
	return "", errors.New("permission denied")
}

func TestEntityRepositoryCreateReportsWriteError(t *testing.T) {
	repo := NewEntityRepository[models.Course](failingStore{DocumentStore: newBoltStore(t)}, models.CollectionCourses, nil, nil)

	_, err := repo.Create(context.Background(), models.Course{Name: "x"})
	assert.Equal(t, appErrors.ErrWrite.Code, appErrors.FromError(err).Code)
}
