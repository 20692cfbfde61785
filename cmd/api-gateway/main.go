package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/noah-isme/wisdomwork-api/api/swagger"
	"github.com/noah-isme/wisdomwork-api/internal/handler"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/repository"
	"github.com/noah-isme/wisdomwork-api/internal/service"
	"github.com/noah-isme/wisdomwork-api/pkg/config"
	"github.com/noah-isme/wisdomwork-api/pkg/export"
	"github.com/noah-isme/wisdomwork-api/pkg/jobs"
	"github.com/noah-isme/wisdomwork-api/pkg/logger"
)

// @title WisdomWork API
// @version 1.0.0
// @description Role-based dashboards and content editors for students, teachers and admins
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	rawStore, closeStore, err := openDocumentStore(ctx, cfg, metrics)
	if err != nil {
		logr.Fatal("failed to open document store", zap.String("driver", cfg.DocStore.Driver), zap.Error(err))
	}
	defer closeStore()

	store, denylist, closeRedis := openRedisBackends(cfg, rawStore, metrics, logr)
	defer closeRedis()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to open blob store", zap.String("driver", cfg.Blob.Driver), zap.Error(err))
	}

	validate := validator.New()
	courses := repository.NewEntityRepository[models.Course](store, models.CollectionCourses, validate, logr)
	projects := repository.NewEntityRepository[models.Project](store, models.CollectionProjects, validate, logr)
	assessments := repository.NewEntityRepository[models.Assessment](store, models.CollectionAssessments, validate, logr)
	users := repository.NewEntityRepository[models.UserProfile](store, models.CollectionUsers, validate, logr)
	jobsApplied := repository.NewEntityRepository[models.JobApplication](store, models.CollectionJobsApplied, validate, logr)
	credentials := repository.NewEntityRepository[models.Credential](rawStore, models.CollectionCredentials, validate, logr)

	cleanupQueue := jobs.NewQueue("blob-cleanup", service.NewOrphanCleanupHandler(blobs.store, logr), jobs.QueueConfig{
		Workers:    1,
		BufferSize: 64,
		MaxRetries: 2,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()

	sessions := service.NewSessionService(users, logr)
	authService := service.NewAuthService(
		service.NewPasswordProvider(credentials, bcrypt.DefaultCost),
		service.NewFederatedProvider(service.FederatedConfig{
			Enabled:  cfg.Federated.Enabled,
			Issuer:   cfg.Federated.Issuer,
			Audience: cfg.Federated.Audience,
			Secret:   cfg.Federated.Secret,
		}),
		users,
		sessions,
		denylist,
		validate,
		logr,
		service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiration},
	)

	catalog := service.NewCatalogService(service.CatalogServiceParams{
		Courses:     courses,
		Projects:    projects,
		Assessments: assessments,
		Users:       users,
		JobsApplied: jobsApplied,
		Logger:      logr,
	})
	dashboards := service.NewDashboardService(service.DashboardServiceParams{
		Catalog:   catalog,
		Documents: store,
		Metrics:   metrics,
		Logger:    logr,
	})
	uploads := service.NewUploadService(blobs.store, cleanupQueue, metrics, logr, service.UploadConfig{
		MaxBytes:       cfg.Upload.MaxBytes,
		AllowedMIMEs:   cfg.Upload.AllowedMIMEs,
		UniqueNames:    cfg.Upload.UniqueNames,
		CleanupOrphans: cfg.Upload.CleanupOrphans,
	})
	editors := service.NewEditorService(courses, projects, assessments, uploads, metrics, logr)
	exports := service.NewExportService(catalog, export.NewRenderer(), logr)

	secureCookie := cfg.Env == config.EnvProduction
	h := handlers{
		auth:      handler.NewAuthHandler(authService, secureCookie),
		session:   handler.NewSessionHandler(),
		dashboard: handler.NewDashboardHandler(dashboards, catalog, cfg.APIPrefix, cfg.Federated.Enabled),
		catalog:   handler.NewCatalogHandler(catalog, exports),
		editor:    handler.NewEditorHandler(editors, validate, cfg.Upload.MaxBytes),
		metrics:   handler.NewMetricsHandler(metrics, rawStore),
	}
	if blobs.local != nil {
		h.media = handler.NewMediaHandler(blobs.local)
	}

	r := newRouter(cfg, logr, metrics, authService, sessions, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "docstore", cfg.DocStore.Driver, "blobstore", cfg.Blob.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
