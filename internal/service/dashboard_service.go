package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/dto"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/repository"
	"github.com/noah-isme/wisdomwork-api/internal/viewstate"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type catalogReader interface {
	Courses(ctx context.Context) ([]models.Course, error)
	Projects(ctx context.Context, query string) ([]models.Project, error)
	Assessments(ctx context.Context) ([]models.Assessment, error)
	Students(ctx context.Context) ([]models.UserProfile, error)
	JobsApplied(ctx context.Context) ([]models.JobApplication, error)
}

type documentLister interface {
	List(ctx context.Context, collection string, equals map[string]interface{}) ([]repository.Document, error)
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Catalog   catalogReader
	Documents documentLister
	Metrics   metricsSnapshotter
	Logger    *zap.Logger
}

// DashboardService composes the role dashboards.
type DashboardService struct {
	catalog   catalogReader
	documents documentLister
	metrics   metricsSnapshotter
	logger    *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		catalog:   params.Catalog,
		documents: params.Documents,
		metrics:   params.Metrics,
		logger:    logger,
	}
}

// Student dashboard categories.
const (
	StudentCategoryCourses     = models.CollectionCourses
	StudentCategoryProjects    = models.CollectionProjects
	StudentCategoryJobsApplied = models.CollectionJobsApplied
)

type category struct {
	name  string
	label string
	count int
	items interface{}
	find  func(id string) (interface{}, bool)
}

func newCategory[T any](name, label string, items []T, idOf func(T) string) category {
	return category{
		name:  name,
		label: label,
		count: len(items),
		items: items,
		find: func(id string) (interface{}, bool) {
			for _, item := range items {
				if idOf(item) == id {
					return item, true
				}
			}
			return nil, false
		},
	}
}

// Student builds the student dashboard for the panel selected by state.
func (s *DashboardService) Student(ctx context.Context, profile *models.UserProfile, state viewstate.State) (*dto.StudentDashboardResponse, error) {
	courses, err := s.catalog.Courses(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.catalog.Projects(ctx, "")
	if err != nil {
		return nil, err
	}
	jobs, err := s.catalog.JobsApplied(ctx)
	if err != nil {
		return nil, err
	}

	categories := []category{
		newCategory(StudentCategoryCourses, "Courses", courses, func(c models.Course) string { return c.ID }),
		newCategory(StudentCategoryProjects, "Projects", projects, func(p models.Project) string { return p.ID }),
		newCategory(StudentCategoryJobsApplied, "Jobs Applied", jobs, func(j models.JobApplication) string { return j.ID }),
	}

	res := &dto.StudentDashboardResponse{
		Profile:    dto.NewProfileCard(profile, models.DefaultDisplayName),
		View:       state,
		Categories: make([]dto.CategoryCount, 0, len(categories)),
	}
	var selected *category
	for i := range categories {
		c := &categories[i]
		res.Categories = append(res.Categories, dto.CategoryCount{
			Category:    c.name,
			Label:       c.label,
			Count:       c.count,
			Highlighted: c.name == state.Highlighted,
		})
		if c.name == state.Active.Category {
			selected = c
		}
	}

	switch state.Active.Kind {
	case viewstate.PanelSummary:
		return res, nil
	case viewstate.PanelList, viewstate.PanelDetail:
		if selected == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", state.Active.Category))
		}
	}

	if state.Active.Kind == viewstate.PanelList {
		res.Items = selected.items
		return res, nil
	}

	item, ok := selected.find(state.Active.ItemID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s/%s not found", selected.name, state.Active.ItemID))
	}
	res.Item = item
	return res, nil
}

// Teacher builds the teacher landing page.
func (s *DashboardService) Teacher(ctx context.Context, profile *models.UserProfile) (*dto.TeacherDashboardResponse, error) {
	students, err := s.catalog.Students(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.catalog.Courses(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherDashboardResponse{
		Profile:      dto.NewProfileCard(profile, models.DefaultTeacherHeader),
		StudentCount: len(students),
		CourseCount:  len(courses),
	}, nil
}

// TeacherAssessments lists assessments with their status counts.
func (s *DashboardService) TeacherAssessments(ctx context.Context) (*dto.AssessmentsPageResponse, error) {
	items, err := s.catalog.Assessments(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.AssessmentsPageResponse{Items: items, Summary: models.SummarizeAssessments(items)}, nil
}

// Admin counts users per role and documents per collection. Counts come from
// raw documents and include malformed entries.
func (s *DashboardService) Admin(ctx context.Context, profile *models.UserProfile) (*dto.AdminDashboardResponse, error) {
	res := &dto.AdminDashboardResponse{
		Profile:     dto.NewProfileCard(profile, models.DefaultDisplayName),
		Roles:       make(map[models.UserRole]int),
		Collections: make(map[string]int),
	}
	for _, role := range models.Roles() {
		res.Roles[role] = 0
	}

	for _, collection := range models.Collections() {
		if collection == models.CollectionCredentials {
			continue
		}
		docs, err := s.documents.List(ctx, collection, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to count %s", collection))
		}
		res.Collections[collection] = len(docs)

		if collection != models.CollectionUsers {
			continue
		}
		for _, doc := range docs {
			role, _ := doc["role"].(string)
			if role == "" {
				s.logger.Warn("profile without role", zap.String("id", doc.ID()))
				continue
			}
			res.Roles[models.UserRole(role)]++
		}
	}

	if s.metrics != nil {
		res.Metrics = s.metrics.Snapshot()
	}
	return res, nil
}
