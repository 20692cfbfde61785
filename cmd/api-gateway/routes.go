package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/handler"
	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/service"
	"github.com/noah-isme/wisdomwork-api/pkg/config"
	"github.com/noah-isme/wisdomwork-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/wisdomwork-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wisdomwork-api/pkg/middleware/requestid"
)

type handlers struct {
	auth      *handler.AuthHandler
	session   *handler.SessionHandler
	dashboard *handler.DashboardHandler
	catalog   *handler.CatalogHandler
	editor    *handler.EditorHandler
	media     *handler.MediaHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, auth *service.AuthService, sessions *service.SessionService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	entry := r.Group("/", middleware.OptionalJWT(auth), middleware.RedirectRouted(sessions))
	entry.GET("/login", h.dashboard.Login)
	entry.GET("/signup", h.dashboard.SignUp)

	pages := r.Group("/dashboard", middleware.OptionalJWT(auth), middleware.PageGate(sessions))
	pages.GET("/student", h.dashboard.Student)
	pages.GET("/teacher", h.dashboard.Teacher)
	pages.GET("/teacher/courses", h.dashboard.TeacherCourses)
	pages.GET("/teacher/project", h.dashboard.TeacherProjects)
	pages.GET("/teacher/assignments", h.dashboard.TeacherAssignments)
	pages.GET("/admin", h.dashboard.Admin)

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/federated", h.auth.Federated)
	authGroup.POST("/signup", h.auth.SignUp)
	authGroup.POST("/logout", middleware.JWT(auth), h.auth.Logout)

	if h.media != nil {
		api.GET("/media/:token", h.media.Serve)
	}

	secured := api.Group("", middleware.JWT(auth), middleware.Session(sessions))
	secured.GET("/session", h.session.Current)

	secured.GET("/courses", h.catalog.Courses)
	secured.GET("/courses/:id", h.catalog.Course)
	secured.GET("/projects", h.catalog.Projects)
	secured.GET("/projects/:id", h.catalog.Project)

	staff := secured.Group("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	staff.GET("/assessments", h.catalog.Assessments)
	staff.GET("/assessments/summary", h.catalog.AssessmentSummary)
	staff.GET("/assessments/export", h.catalog.ExportAssessments)
	staff.GET("/students", h.catalog.Students)

	editors := staff.Group("/editors/:kind")
	editors.POST("", h.editor.Open)
	editors.GET("", h.editor.Get)
	editors.DELETE("", h.editor.Cancel)
	editors.PATCH("/fields", h.editor.SetField)
	editors.PUT("/tab", h.editor.Navigate)
	editors.POST("/sections", h.editor.AddSection)
	editors.PUT("/sections/:index", h.editor.SetSection)
	editors.POST("/file", h.editor.AttachFile)
	editors.POST("/save", h.editor.Save)

	return r
}
