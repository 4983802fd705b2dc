// Package app assembles the service: config, database, clients, repos,
// services, handlers, router, plus the background pieces (job worker,
// scheduler, bus forwarder, metric collectors).
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/db"
	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/envutil"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Hub      *realtime.SSEHub
	Metrics  *observability.Metrics

	scheduler    *Scheduler
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "menttor",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := realtime.NewSSEHub(log)
	metrics := observability.New(log)

	reposet := wireRepos(theDB, log)

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, hub, metrics)
	if err != nil {
		clientset.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub, metrics)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, handlerset, middleware, serviceset, metrics)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
		Hub:      hub,
		Metrics:  metrics,

		scheduler:    NewScheduler(log, serviceset.Session, serviceset.Nudge, cfg.SchedulerTick, cfg.NudgeSweep),
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background loops. Safe to call once; the loops stop
// when Close cancels their context.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}
	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			a.Log.Warn("Redis bus forwarder failed to start", "error", err)
		}
	}

	a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
	a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, envutil.String("REDIS_ADDR", ""))
	a.Metrics.StartSLOEvaluator(ctx, a.Log)
	a.Metrics.StartServer(ctx, a.Log, envutil.String("METRICS_ADDR", ""))
}

// Run serves HTTP until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &http.Server{Addr: addr, Handler: a.Router}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.Log.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
