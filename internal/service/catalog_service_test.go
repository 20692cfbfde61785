package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type fakeReader[T any] struct {
	items      []T
	idOf       func(T) string
	err        error
	lastFilter models.Filter[T]
}

func (f *fakeReader[T]) ListAll(ctx context.Context, filter models.Filter[T]) ([]T, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := make([]T, 0, len(f.items))
	for _, item := range f.items {
		if filter.Match != nil && !filter.Match(item) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeReader[T]) GetByID(ctx context.Context, id string) (*T, error) {
	for _, item := range f.items {
		if f.idOf != nil && f.idOf(item) == id {
			found := item
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, id+" not found")
}

func newCatalogFixture() (*CatalogService, *fakeReader[models.Project], *fakeReader[models.UserProfile], *fakeReader[models.Assessment]) {
	projects := &fakeReader[models.Project]{items: []models.Project{
		{ID: "p1", Name: "Weather Station", Description: "Arduino sensors"},
		{ID: "p2", Name: "Portfolio", Description: "Static site with a WEATHER widget"},
		{ID: "p3", Name: "Chess", Description: "Minimax"},
	}, idOf: func(p models.Project) string { return p.ID }}
	users := &fakeReader[models.UserProfile]{}
	assessments := &fakeReader[models.Assessment]{items: []models.Assessment{
		{ID: "a1", Title: "Quiz", Status: models.AssessmentStatusPending},
		{ID: "a2", Title: "Essay", Status: models.AssessmentStatusSubmitted},
		{ID: "a3", Title: "Lab", Status: models.AssessmentStatusPending},
	}}
	svc := NewCatalogService(CatalogServiceParams{
		Courses:     &fakeReader[models.Course]{},
		Projects:    projects,
		Assessments: assessments,
		Users:       users,
		JobsApplied: &fakeReader[models.JobApplication]{},
	})
	return svc, projects, users, assessments
}

func TestCatalogServiceProjectSearch(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	items, err := svc.Projects(context.Background(), "weather")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, "p2", items[1].ID)

	all, err := svc.Projects(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := svc.Projects(context.Background(), "robot")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogServiceProject(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	p, err := svc.Project(context.Background(), "p3")
	require.NoError(t, err)
	assert.Equal(t, "Chess", p.Name)

	_, err = svc.Project(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCatalogServiceStudentsPushesRoleFilter(t *testing.T) {
	svc, _, users, _ := newCatalogFixture()

	_, err := svc.Students(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"role": "student"}, users.lastFilter.Equals)
	assert.Nil(t, users.lastFilter.Match)
}

func TestCatalogServiceAssessmentSummary(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	summary, err := svc.AssessmentSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentSummary{Total: 3, Pending: 2, Completed: 1}, summary)
}

func TestCatalogServiceListError(t *testing.T) {
	svc, _, _, assessments := newCatalogFixture()
	assessments.err = appErrors.Clone(appErrors.ErrDecode, "malformed")

	_, err := svc.AssessmentSummary(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrDecode))
}
