package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdomwork-api/internal/dto"
	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/viewstate"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, profile *models.UserProfile, state viewstate.State) (*dto.StudentDashboardResponse, error)
	Teacher(ctx context.Context, profile *models.UserProfile) (*dto.TeacherDashboardResponse, error)
	TeacherAssessments(ctx context.Context) (*dto.AssessmentsPageResponse, error)
	Admin(ctx context.Context, profile *models.UserProfile) (*dto.AdminDashboardResponse, error)
}

// DashboardHandler renders the gated dashboard pages and the entry pages.
type DashboardHandler struct {
	service   dashboardService
	catalog   catalogService
	apiPrefix string
	federated bool
}

// NewDashboardHandler constructs a dashboard handler. apiPrefix is the group the
// auth routes are mounted under; federated lists the ID token provider on the entry pages.
func NewDashboardHandler(svc dashboardService, catalog catalogService, apiPrefix string, federated bool) *DashboardHandler {
	return &DashboardHandler{service: svc, catalog: catalog, apiPrefix: strings.TrimRight(apiPrefix, "/"), federated: federated}
}

func (h *DashboardHandler) providers() []string {
	providers := []string{"password"}
	if h.federated {
		providers = append(providers, "federated")
	}
	return providers
}

// Login godoc
// @Summary Login page descriptor
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 302 "signed-in callers go to their dashboard"
// @Router /login [get]
func (h *DashboardHandler) Login(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.EntryPageResponse{
		Page:      "login",
		Action:    h.apiPrefix + "/auth/login",
		Fields:    []string{"email", "password"},
		Providers: h.providers(),
	})
}

// SignUp godoc
// @Summary Sign up page descriptor
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /signup [get]
func (h *DashboardHandler) SignUp(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.EntryPageResponse{
		Page:      "signup",
		Action:    h.apiPrefix + "/auth/signup",
		Fields:    []string{"name", "email", "password", "confirm_password"},
		Providers: h.providers(),
	})
}

// Student godoc
// @Summary Student dashboard
// @Description category selects a list panel, item a detail panel, back=true returns to the summary
// @Tags Pages
// @Produce json
// @Param category query string false "courses, projects or jobsApplied"
// @Param item query string false "Item ID within category"
// @Param back query bool false "Return to summary"
// @Success 200 {object} response.Envelope
// @Failure 302 "redirect to login or own dashboard"
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	back, _ := strconv.ParseBool(c.Query("back"))
	state := viewstate.FromQuery(c.Query("category"), c.Query("item"), back)

	res, err := h.service.Student(c.Request.Context(), sessionProfile(c), state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Teacher godoc
// @Summary Teacher dashboard
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	res, err := h.service.Teacher(c.Request.Context(), sessionProfile(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// TeacherCourses godoc
// @Summary Teacher courses page
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher/courses [get]
func (h *DashboardHandler) TeacherCourses(c *gin.Context) {
	items, err := h.catalog.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// TeacherProjects godoc
// @Summary Teacher projects page
// @Tags Pages
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher/project [get]
func (h *DashboardHandler) TeacherProjects(c *gin.Context) {
	items, err := h.catalog.Projects(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// TeacherAssignments godoc
// @Summary Teacher assessments page
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher/assignments [get]
func (h *DashboardHandler) TeacherAssignments(c *gin.Context) {
	res, err := h.service.TeacherAssessments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Admin godoc
// @Summary Admin dashboard
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	res, err := h.service.Admin(c.Request.Context(), sessionProfile(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}
