package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/export"
)

type assessmentLister interface {
	Assessments(ctx context.Context) ([]models.Assessment, error)
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders collection listings as downloadable files.
type ExportService struct {
	assessments assessmentLister
	renderer    datasetRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. A nil renderer uses the default CSV and PDF exporters.
func NewExportService(assessments assessmentLister, renderer datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	return &ExportService{assessments: assessments, renderer: renderer, logger: logger, now: time.Now}
}

var assessmentHeaders = []string{"id", "title", "dateShared", "contact", "email", "status"}

// ExportAssessments renders every assessment in format.
func (s *ExportService) ExportAssessments(ctx context.Context, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	items, err := s.assessments.Assessments(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: assessmentHeaders, Rows: make([]map[string]string, 0, len(items))}
	for _, a := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"id":         a.ID,
			"title":      a.Title,
			"dateShared": a.DateShared,
			"contact":    a.Contact,
			"email":      a.Email,
			"status":     a.Status,
		})
	}

	summary := models.SummarizeAssessments(items)
	title := fmt.Sprintf("Assessments (%d total, %d pending, %d completed)", summary.Total, summary.Pending, summary.Completed)
	data, err := s.renderer.Render(f, dataset, title)
	if err != nil {
		s.logger.Error("assessment export failed", zap.String("format", string(f)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	base := fmt.Sprintf("assessments-%s", s.now().UTC().Format("20060102"))
	return &ExportFile{Filename: f.Filename(base), ContentType: f.ContentType(), Data: data}, nil
}
