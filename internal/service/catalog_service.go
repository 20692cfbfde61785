package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
)

type entityReader[T any] interface {
	ListAll(ctx context.Context, filter models.Filter[T]) ([]T, error)
	GetByID(ctx context.Context, id string) (*T, error)
}

// CatalogServiceParams groups constructor dependencies.
type CatalogServiceParams struct {
	Courses     entityReader[models.Course]
	Projects    entityReader[models.Project]
	Assessments entityReader[models.Assessment]
	Users       entityReader[models.UserProfile]
	JobsApplied entityReader[models.JobApplication]
	Logger      *zap.Logger
}

// CatalogService serves read-only listings of every collection.
type CatalogService struct {
	courses     entityReader[models.Course]
	projects    entityReader[models.Project]
	assessments entityReader[models.Assessment]
	users       entityReader[models.UserProfile]
	jobsApplied entityReader[models.JobApplication]
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(params CatalogServiceParams) *CatalogService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		courses:     params.Courses,
		projects:    params.Projects,
		assessments: params.Assessments,
		users:       params.Users,
		jobsApplied: params.JobsApplied,
		logger:      logger,
	}
}

// Courses lists every course.
func (s *CatalogService) Courses(ctx context.Context) ([]models.Course, error) {
	return s.courses.ListAll(ctx, models.Filter[models.Course]{})
}

// Course fetches one course.
func (s *CatalogService) Course(ctx context.Context, id string) (*models.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// Projects lists projects whose name or description contains query, ignoring case.
// An empty query matches everything.
func (s *CatalogService) Projects(ctx context.Context, query string) ([]models.Project, error) {
	return s.projects.ListAll(ctx, models.Filter[models.Project]{Match: ProjectSearch(query)})
}

// Project fetches one project.
func (s *CatalogService) Project(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// ProjectSearch builds the client-side predicate behind the project search box.
func ProjectSearch(query string) func(models.Project) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(p models.Project) bool {
		return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q)
	}
}

// Assessments lists every assessment.
func (s *CatalogService) Assessments(ctx context.Context) ([]models.Assessment, error) {
	return s.assessments.ListAll(ctx, models.Filter[models.Assessment]{})
}

// AssessmentSummary counts assessments by status.
func (s *CatalogService) AssessmentSummary(ctx context.Context) (models.AssessmentSummary, error) {
	items, err := s.Assessments(ctx)
	if err != nil {
		return models.AssessmentSummary{}, err
	}
	return models.SummarizeAssessments(items), nil
}

// Students lists profiles with the student role. The role filter runs in the store.
func (s *CatalogService) Students(ctx context.Context) ([]models.UserProfile, error) {
	return s.users.ListAll(ctx, models.Filter[models.UserProfile]{
		Equals: map[string]interface{}{"role": string(models.RoleStudent)},
	})
}

// JobsApplied lists job applications.
func (s *CatalogService) JobsApplied(ctx context.Context) ([]models.JobApplication, error) {
	return s.jobsApplied.ListAll(ctx, models.Filter[models.JobApplication]{})
}
