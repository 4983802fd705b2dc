package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/menttor/menttor-backend/internal/http/handlers"
	httpMW "github.com/menttor/menttor-backend/internal/http/middleware"
	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/services"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	Emitter services.SSEEmitter

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	UserHandler     *httpH.UserHandler
	LearningHandler *httpH.LearningHandler
	PathHandler     *httpH.PathHandler
	DiagramHandler  *httpH.DiagramHandler
	ImageHandler    *httpH.ImageHandler
	ConceptHandler  *httpH.ConceptHandler
	SessionHandler  *httpH.SessionHandler
	NudgeHandler    *httpH.NudgeHandler
	JobHandler      *httpH.JobHandler
	RealtimeHandler *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	r.Use(httpMW.AttachTraceContext())
	r.Use(otelgin.Middleware("menttor"))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.AttachPending(cfg.Emitter))

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api/v1")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateMe)
		}

		// Learning docs + exports + share cards
		if cfg.LearningHandler != nil {
			protected.GET("/learning", cfg.LearningHandler.ListDocs)
			protected.POST("/learning", cfg.LearningHandler.CreateDoc)
			protected.GET("/learning/:id", cfg.LearningHandler.GetDoc)
			protected.PUT("/learning/:id/blocks", cfg.LearningHandler.UpdateDocBlocks)
			protected.DELETE("/learning/:id", cfg.LearningHandler.DeleteDoc)
			protected.GET("/learning/:id/export", cfg.LearningHandler.ExportDoc)
			protected.POST("/learning/:id/export-jobs", cfg.LearningHandler.CreateExportJob)
			protected.GET("/learning/:id/exports", cfg.LearningHandler.ListExports)
			protected.POST("/learning/:id/share-cards", cfg.LearningHandler.CreateShareCardJob)
			protected.GET("/learning/:id/share-cards", cfg.LearningHandler.GetShareCards)
		}

		// Roadmaps
		if cfg.PathHandler != nil {
			protected.GET("/paths", cfg.PathHandler.ListPaths)
			protected.POST("/paths", cfg.PathHandler.CreatePath)
			protected.GET("/paths/:id", cfg.PathHandler.GetPath)
		}

		// Content tools
		if cfg.DiagramHandler != nil {
			protected.POST("/diagrams/sanitize", cfg.DiagramHandler.Sanitize)
		}
		if cfg.ImageHandler != nil {
			protected.POST("/images/generate", cfg.ImageHandler.Generate)
		}
		if cfg.ConceptHandler != nil {
			protected.POST("/concepts/extract", cfg.ConceptHandler.Extract)
		}

		// Focus sessions
		if cfg.SessionHandler != nil {
			protected.POST("/sessions", cfg.SessionHandler.Start)
			protected.GET("/sessions/:id", cfg.SessionHandler.Get)
			protected.POST("/sessions/:id/pause", cfg.SessionHandler.Pause)
			protected.POST("/sessions/:id/resume", cfg.SessionHandler.Resume)
			protected.POST("/sessions/:id/abandon", cfg.SessionHandler.Abandon)
		}

		// Nudges
		if cfg.NudgeHandler != nil {
			protected.GET("/nudges", cfg.NudgeHandler.List)
			protected.POST("/nudges/:id/dismiss", cfg.NudgeHandler.Dismiss)
		}

		// Jobs
		if cfg.JobHandler != nil {
			protected.GET("/jobs", cfg.JobHandler.ListJobs)
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
			protected.POST("/jobs/:id/restart", cfg.JobHandler.RestartJob)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/realtime/sse", cfg.RealtimeHandler.Stream)
		}
	}

	return r
}
