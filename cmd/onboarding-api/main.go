package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/clumsypasta/abans-form/api/swagger"
	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/handler"
	"github.com/clumsypasta/abans-form/internal/pdf"
	"github.com/clumsypasta/abans-form/internal/repository"
	"github.com/clumsypasta/abans-form/internal/schema"
	"github.com/clumsypasta/abans-form/internal/service"
	"github.com/clumsypasta/abans-form/internal/session"
	"github.com/clumsypasta/abans-form/pkg/cache"
	"github.com/clumsypasta/abans-form/pkg/config"
	"github.com/clumsypasta/abans-form/pkg/database"
	"github.com/clumsypasta/abans-form/pkg/logger"
	corsmiddleware "github.com/clumsypasta/abans-form/pkg/middleware/cors"
	reqidmiddleware "github.com/clumsypasta/abans-form/pkg/middleware/requestid"
	"github.com/clumsypasta/abans-form/pkg/storage"
)

// @title ABANS Joining Form API
// @version 1.0.0
// @description Multi-section employee and intern onboarding form service
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publicBase := cfg.Storage.PublicBaseURL
	serveFiles := publicBase == ""
	if serveFiles {
		publicBase = "/files"
	}
	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir, publicBase)
	if err != nil {
		logr.Fatal("failed to init file storage", zap.Error(err))
	}

	registry := schema.New(cfg.Schema.Variant)
	cat := catalog.New()
	policy := documents.PolicyFromConfig(cfg.Uploads)
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	// The live-session gauge reads through this indirection because the
	// manager is built after the services that need metrics.
	var manager *session.Manager
	metricsSvc := service.NewMetricsService(func() int {
		if manager == nil {
			return 0
		}
		return manager.Count()
	})

	var drafts session.DraftStore = repository.NewMemoryDraftRepository()
	if cfg.Redis.Configured() {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, drafts fall back to memory", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			drafts = repository.NewDraftRepository(redisClient, cfg.Drafts)
		}
	}
	drafts = service.InstrumentDraftStore(drafts, metricsSvc)

	var (
		submitter *service.SubmissionService
		adminSvc  *service.AdminService
		pdfSvc    *service.PDFService
		db        *sqlx.DB
	)
	adminCfg := service.AdminServiceConfig{APIPrefix: cfg.APIPrefix}
	if cfg.Database.Configured() {
		pg, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close() //nolint:errcheck
		db = pg

		repo := repository.NewSubmissionRepository(pg)
		adminSvc = service.NewAdminService(repo, signer, store, logr, adminCfg)
		if cfg.PDF.Enabled {
			pdfSvc = service.NewPDFService(repo, store, pdf.NewRenderer(cfg.PDF.CompanyName), metricsSvc, cfg.PDF, logr)
			pdfSvc.Start(ctx)
			submitter = service.NewSubmissionService(repo, store, registry, pdfSvc, logr)
		} else {
			submitter = service.NewSubmissionService(repo, store, registry, nil, logr)
		}
	} else {
		logr.Warn("no database configured, submissions will be rejected")
		submitter = service.NewSubmissionService(nil, store, registry, nil, logr)
		adminSvc = service.NewAdminService(nil, signer, store, logr, adminCfg)
	}

	manager = session.NewManager(cat, registry, policy, drafts, logr, session.Config{
		AutosaveDebounce: cfg.Sessions.AutosaveDebounce,
		NoticeTTL:        cfg.Sessions.NoticeTTL,
	})
	sessions := service.NewSessionService(manager, cat, submitter, store, metricsSvc, logr)
	auth := service.NewAuthService(nil, logr, cfg.Admin)

	// Reap staging areas abandoned past the idle TTL.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := store.CleanupOlderThan(storage.NamespaceStaging, cfg.Sessions.IdleTTL)
				if err != nil {
					logr.Warn("staging cleanup failed", zap.Error(err))
				} else if len(deleted) > 0 {
					logr.Info("reaped abandoned staging areas", zap.Int("count", len(deleted)))
				}
			}
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	staticDir := ""
	if serveFiles {
		staticDir = cfg.Storage.BaseDir
	}
	handler.Routes{
		APIPrefix:  cfg.APIPrefix,
		StaticDir:  staticDir,
		Sessions:   handler.NewSessionHandler(sessions),
		Uploads:    handler.NewUploadHandler(sessions),
		Admin:      handler.NewAdminHandler(auth, adminSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, db),
		Auth:       auth,
		MetricsSvc: metricsSvc,
	}.Register(r)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown failed", zap.Error(err))
	}
	manager.FlushAll(shutdownCtx)
	if pdfSvc != nil {
		pdfSvc.Stop()
	}
	logr.Info("shutdown complete")
}
