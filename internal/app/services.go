package app

import (
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/concepts"
	"github.com/menttor/menttor-backend/internal/jobs/pipeline/doc_export"
	"github.com/menttor/menttor-backend/internal/jobs/pipeline/share_card_render"
	"github.com/menttor/menttor-backend/internal/jobs/runtime"
	"github.com/menttor/menttor-backend/internal/jobs/worker"
	"github.com/menttor/menttor-backend/internal/nudge"
	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/realtime"
	"github.com/menttor/menttor-backend/internal/services"
	"github.com/menttor/menttor-backend/internal/sessions"
	"github.com/menttor/menttor-backend/internal/sharecard"
)

type Services struct {
	Emitter services.SSEEmitter

	Auth     services.AuthService
	User     services.UserService
	Learning services.LearningService
	Export   services.ExportService
	Session  services.SessionService
	Nudge    services.NudgeService
	Diagram  services.DiagramService
	Image    services.ImageService
	Concept  services.ConceptService
	Job      services.JobService

	JobWorker *worker.Worker
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	r Repos,
	cl Clients,
	hub *realtime.SSEHub,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	// With a bus, local broadcast happens through the forwarder so the
	// message reaches every instance exactly once.
	var emitter services.SSEEmitter
	if cl.Bus != nil {
		emitter = &services.RedisEmitter{Bus: cl.Bus, Log: log}
	} else {
		emitter = &services.HubEmitter{Hub: hub}
	}

	jobNotifier := services.NewJobNotifier(emitter)
	sessionNotifier := services.NewSessionNotifier(emitter)
	nudgeNotifier := services.NewNudgeNotifier(emitter)

	authSvc := services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userSvc := services.NewUserService(db, log, r.User)
	learningSvc := services.NewLearningService(db, log, r.LearningDoc, r.LearningPath, r.PathNode, userSvc, cl.Neo)
	exportSvc := services.NewExportService(log, learningSvc, r.ExportRecord, r.Asset)

	sessionSvc := services.NewSessionService(db, log, r.FocusSession, userSvc, learningSvc, sessionNotifier, sessions.NewTable(log))
	nudgeSvc := services.NewNudgeService(db, log, r.Nudge, r.FocusSession, r.User, nudgeNotifier, nudge.DefaultConfig())

	extractor := concepts.NewExtractor(log)
	conceptSvc := services.NewConceptService(log, extractor)
	diagramSvc := services.NewDiagramService(log, cl.GenCache)

	var imageSvc services.ImageService
	if cl.Imagegen != nil {
		imageSvc = services.NewImageService(log, cl.Imagegen, cl.GenCache)
	} else {
		log.Warn("Image generation not configured; endpoint disabled")
	}

	jobSvc := services.NewJobService(db, log, r.JobRun, jobNotifier)

	jobRegistry := runtime.NewRegistry()

	exportPipeline := doc_export.New(db, log, r.LearningDoc, r.ExportRecord, exportSvc, cl.Bucket)
	if err := jobRegistry.Register(exportPipeline); err != nil {
		return Services{}, err
	}

	renderer, err := sharecard.NewRenderer(log)
	if err != nil {
		// Jobs of this type then fail at dispatch, visibly, instead of the
		// whole service refusing to boot over a missing font file.
		log.Warn("Share card renderer unavailable", "error", err)
	} else {
		cardPipeline := share_card_render.New(db, log, r.LearningDoc, r.PathNode, r.User, r.Asset, extractor, renderer, cl.Bucket)
		if err := jobRegistry.Register(cardPipeline); err != nil {
			return Services{}, err
		}
	}

	jobWorker := worker.NewWorker(db, log, r.JobRun, jobRegistry, jobNotifier, metrics)

	return Services{
		Emitter:   emitter,
		Auth:      authSvc,
		User:      userSvc,
		Learning:  learningSvc,
		Export:    exportSvc,
		Session:   sessionSvc,
		Nudge:     nudgeSvc,
		Diagram:   diagramSvc,
		Image:     imageSvc,
		Concept:   conceptSvc,
		Job:       jobSvc,
		JobWorker: jobWorker,
	}, nil
}
