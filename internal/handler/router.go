package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clumsypasta/abans-form/internal/middleware"
	"github.com/clumsypasta/abans-form/internal/service"
)

// Routes bundles everything the HTTP surface needs.
type Routes struct {
	APIPrefix string
	StaticDir string

	Sessions *SessionHandler
	Uploads  *UploadHandler
	Admin    *AdminHandler
	Metrics  *MetricsHandler

	Auth       *service.AuthService
	MetricsSvc *service.MetricsService
}

// Register mounts all routes onto the engine.
func (r Routes) Register(e *gin.Engine) {
	e.GET("/health", r.Metrics.Health)
	e.GET("/ready", r.Metrics.Ready)
	e.GET("/metrics", r.Metrics.Prometheus)

	if r.StaticDir != "" {
		e.Static("/files", r.StaticDir)
	}

	api := e.Group(r.APIPrefix)
	api.Use(middleware.Metrics(r.MetricsSvc))

	sessions := api.Group("/sessions")
	{
		sessions.POST("", r.Sessions.Open)
		sessions.GET("/:id", r.Sessions.Get)
		sessions.DELETE("/:id", r.Sessions.Drop)
		sessions.PATCH("/:id/fields", r.Sessions.UpdateFields)
		sessions.POST("/:id/navigate", r.Sessions.Navigate)
		sessions.POST("/:id/proceed", r.Sessions.Proceed)
		sessions.POST("/:id/submit", r.Sessions.Submit)

		sessions.POST("/:id/photo", r.Uploads.UploadPhoto)
		sessions.DELETE("/:id/photo", r.Uploads.RemovePhoto)
		sessions.POST("/:id/documents/:slot", r.Uploads.UploadDocuments)
		sessions.DELETE("/:id/documents/:slot", r.Uploads.RemoveDocuments)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/login", r.Admin.Login)
		// The summary download is gated by its signed token, not the JWT, so
		// the link works when pasted outside the review console.
		admin.GET("/submissions/:id/summary", r.Admin.DownloadSummary)

		protected := admin.Group("")
		protected.Use(middleware.AdminJWT(r.Auth))
		protected.GET("/submissions", r.Admin.List)
		protected.GET("/submissions/export", r.Admin.ExportCSV)
		protected.GET("/submissions/:id", r.Admin.Get)
		protected.GET("/submissions/:id/summary-link", r.Admin.SummaryLink)
	}
}
