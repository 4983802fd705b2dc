package app

import (
	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/http"
	httpH "github.com/menttor/menttor-backend/internal/http/handlers"
	httpMW "github.com/menttor/menttor-backend/internal/http/middleware"
	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Learning *httpH.LearningHandler
	Path     *httpH.PathHandler
	Diagram  *httpH.DiagramHandler
	Image    *httpH.ImageHandler
	Concept  *httpH.ConceptHandler
	Session  *httpH.SessionHandler
	Nudge    *httpH.NudgeHandler
	Job      *httpH.JobHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(s.Auth),
		User:     httpH.NewUserHandler(s.User),
		Learning: httpH.NewLearningHandler(s.Learning, s.Export, s.Job),
		Path:     httpH.NewPathHandler(s.Learning),
		Diagram:  httpH.NewDiagramHandler(s.Diagram),
		Concept:  httpH.NewConceptHandler(s.Concept),
		Session:  httpH.NewSessionHandler(s.Session),
		Nudge:    httpH.NewNudgeHandler(s.Nudge),
		Job:      httpH.NewJobHandler(s.Job),
		Realtime: httpH.NewRealtimeHandler(log, hub, s.Job, s.Session, metrics),
	}
	// Nil service, nil handler; the router then skips those routes.
	if s.Image != nil {
		h.Image = httpH.NewImageHandler(s.Image)
	}
	return h
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}

func wireRouter(log *logger.Logger, h Handlers, mw Middleware, s Services, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:     log,
		Metrics: metrics,
		Emitter: s.Emitter,

		AuthMiddleware: mw.Auth,

		AuthHandler:     h.Auth,
		UserHandler:     h.User,
		LearningHandler: h.Learning,
		PathHandler:     h.Path,
		DiagramHandler:  h.Diagram,
		ImageHandler:    h.Image,
		ConceptHandler:  h.Concept,
		SessionHandler:  h.Session,
		NudgeHandler:    h.Nudge,
		JobHandler:      h.Job,
		RealtimeHandler: h.Realtime,

		HealthHandler: h.Health,
	})
}
