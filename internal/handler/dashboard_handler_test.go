package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdomwork-api/internal/dto"
	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/viewstate"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func withSession(c *gin.Context, profile *models.UserProfile) {
	landing, _ := models.LandingRoute(profile.Role)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: profile.ID})
	c.Set(middleware.ContextSessionKey, &models.SessionResolution{
		State:   models.SessionRouted,
		UID:     profile.ID,
		Role:    profile.Role,
		Landing: landing,
		Profile: profile,
	})
}

type fakeDashboardSrv struct {
	lastState   viewstate.State
	lastProfile *models.UserProfile
	studentErr  error
	adminErr    error
}

func (f *fakeDashboardSrv) Student(_ context.Context, profile *models.UserProfile, state viewstate.State) (*dto.StudentDashboardResponse, error) {
	f.lastProfile = profile
	f.lastState = state
	if f.studentErr != nil {
		return nil, f.studentErr
	}
	return &dto.StudentDashboardResponse{Profile: dto.NewProfileCard(profile, "Student"), View: state}, nil
}

func (f *fakeDashboardSrv) Teacher(_ context.Context, profile *models.UserProfile) (*dto.TeacherDashboardResponse, error) {
	return &dto.TeacherDashboardResponse{Profile: dto.NewProfileCard(profile, "Teacher"), StudentCount: 3, CourseCount: 2}, nil
}

func (f *fakeDashboardSrv) TeacherAssessments(context.Context) (*dto.AssessmentsPageResponse, error) {
	return &dto.AssessmentsPageResponse{}, nil
}

func (f *fakeDashboardSrv) Admin(_ context.Context, profile *models.UserProfile) (*dto.AdminDashboardResponse, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return &dto.AdminDashboardResponse{Profile: dto.NewProfileCard(profile, "Admin")}, nil
}

func TestDashboardHandlerStudentParsesViewState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{}
	handler := NewDashboardHandler(srv, &fakeCatalogSrv{}, "/api/v1", false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student?category=courses&item=c-1", nil)
	withSession(c, &models.UserProfile{ID: "u-1", Name: "Ana", Role: models.RoleStudent})

	handler.Student(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, viewstate.PanelDetail, srv.lastState.Active.Kind)
	assert.Equal(t, "courses", srv.lastState.Active.Category)
	assert.Equal(t, "c-1", srv.lastState.Active.ItemID)
	assert.Equal(t, "u-1", srv.lastProfile.ID)
}

func TestDashboardHandlerStudentBackReturnsSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{}
	handler := NewDashboardHandler(srv, &fakeCatalogSrv{}, "/api/v1", false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student?category=projects&back=true", nil)
	withSession(c, &models.UserProfile{ID: "u-1", Role: models.RoleStudent})

	handler.Student(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, viewstate.PanelSummary, srv.lastState.Active.Kind)
}

func TestDashboardHandlerStudentPropagatesNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{studentErr: appErrors.Clone(appErrors.ErrNotFound, "course not found")}
	handler := NewDashboardHandler(srv, &fakeCatalogSrv{}, "/api/v1", false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student?category=courses&item=missing", nil)
	withSession(c, &models.UserProfile{ID: "u-1", Role: models.RoleStudent})

	handler.Student(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "course not found", envelope.Error.Message)
}

func TestDashboardHandlerTeacherProjectsForwardsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := &fakeCatalogSrv{projects: []models.Project{{ID: "p-1", Name: "Robotics"}}}
	handler := NewDashboardHandler(&fakeDashboardSrv{}, catalog, "/api/v1", false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/teacher/project?q=robo", nil)

	handler.TeacherProjects(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "robo", catalog.lastQuery)
}

func TestDashboardHandlerAdminError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{adminErr: appErrors.ErrInternal}, &fakeCatalogSrv{}, "/api/v1", false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	withSession(c, &models.UserProfile{ID: "admin-1", Role: models.RoleAdmin})

	handler.Admin(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandlerEntryPagesListProviders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{}, &fakeCatalogSrv{}, "/api/v1", true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/signup", nil)

	handler.SignUp(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.EntryPageResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Equal(t, "signup", page.Page)
	assert.Equal(t, []string{"password", "federated"}, page.Providers)
	assert.Contains(t, page.Fields, "confirm_password")
	assert.Equal(t, "/api/v1/auth/signup", page.Action)
}

func TestDashboardHandlerLoginActionUsesAPIPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for prefix, want := range map[string]string{
		"/api/v1":  "/api/v1/auth/login",
		"/api/v2/": "/api/v2/auth/login",
		"":         "/auth/login",
	} {
		handler := NewDashboardHandler(&fakeDashboardSrv{}, &fakeCatalogSrv{}, prefix, false)
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/login", nil)

		handler.Login(c)

		require.Equal(t, http.StatusOK, rec.Code)
		var page dto.EntryPageResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
		assert.Equal(t, want, page.Action, prefix)
	}
}
