package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/service"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

type catalogService interface {
	Courses(ctx context.Context) ([]models.Course, error)
	Course(ctx context.Context, id string) (*models.Course, error)
	Projects(ctx context.Context, query string) ([]models.Project, error)
	Project(ctx context.Context, id string) (*models.Project, error)
	Assessments(ctx context.Context) ([]models.Assessment, error)
	AssessmentSummary(ctx context.Context) (models.AssessmentSummary, error)
	Students(ctx context.Context) ([]models.UserProfile, error)
}

type exportService interface {
	ExportAssessments(ctx context.Context, format string) (*service.ExportFile, error)
}

// CatalogHandler serves the read-only collection endpoints.
type CatalogHandler struct {
	catalog catalogService
	export  exportService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(catalog catalogService, export exportService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, export: export}
}

func listed(c *gin.Context, items interface{}, count int) {
	middleware.SetMeta(c, "count", count)
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}

// Courses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	items, err := h.catalog.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Course godoc
// @Summary Get a course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) Course(c *gin.Context) {
	item, err := h.catalog.Course(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, middleware.ExtractMeta(c))
}

// Projects godoc
// @Summary List projects
// @Description Optional q matches name or description, ignoring case
// @Tags Catalog
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *CatalogHandler) Projects(c *gin.Context) {
	items, err := h.catalog.Projects(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Project godoc
// @Summary Get a project
// @Tags Catalog
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *CatalogHandler) Project(c *gin.Context) {
	item, err := h.catalog.Project(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, middleware.ExtractMeta(c))
}

// Assessments godoc
// @Summary List assessments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *CatalogHandler) Assessments(c *gin.Context) {
	items, err := h.catalog.Assessments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// AssessmentSummary godoc
// @Summary Count assessments by status
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assessments/summary [get]
func (h *CatalogHandler) AssessmentSummary(c *gin.Context) {
	summary, err := h.catalog.AssessmentSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// ExportAssessments godoc
// @Summary Export assessments
// @Tags Catalog
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /assessments/export [get]
func (h *CatalogHandler) ExportAssessments(c *gin.Context) {
	file, err := h.export.ExportAssessments(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Students godoc
// @Summary List student profiles
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students [get]
func (h *CatalogHandler) Students(c *gin.Context) {
	items, err := h.catalog.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}
