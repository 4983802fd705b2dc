package worker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/jobs/runtime"
	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/envutil"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/services"
)

const (
	tickInterval = 1 * time.Second
	maxAttempts  = 5
	retryDelay   = 30 * time.Second
	// A running row whose heartbeat is older than this belonged to a
	// crashed worker and goes back into the claimable pool.
	staleRunning = 30 * time.Minute
)

// Worker polls job_run for claimable rows and hands them to registered
// pipelines. Instances coordinate through the SKIP LOCKED claim alone, so
// any number of processes can run the same loop.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier
	metrics  *observability.Metrics
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier, metrics *observability.Metrics) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		metrics:  metrics,
	}
}

// Start launches the pool and returns; the loops exit when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting job worker pool", "concurrency", concurrency, "types", w.registry.Types())

	for i := 0; i < concurrency; i++ {
		go w.runLoop(ctx, i+1)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "workerID", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("Claim next runnable job failed", "workerID", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.run(ctx, workerID, job)
		}
	}
}

func (w *Worker) run(ctx context.Context, workerID int, job *types.JobRun) {
	start := time.Now()
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic", "workerID", workerID, "jobID", job.ID, "jobType", job.JobType, "panic", r)
			jc.Fail("panic", fmt.Errorf("panic: %v", r))
		}
		status := job.Status
		if !types.TerminalJobStatus(status) {
			// The only way a claimed run ends non-terminal is the cancel
			// guard rejecting its final write.
			status = types.JobStatusCanceled
		}
		w.metrics.ObserveJobRun(job.JobType, status, time.Since(start))
	}()

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job type", "workerID", workerID, "jobType", job.JobType, "jobID", job.ID)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job type %s", job.JobType))
		return
	}

	if err := h.Run(jc); err != nil {
		// Pipelines normally call Fail themselves; this is the safety net
		// for the ones that just return.
		jc.Fail("run", err)
	}
}
