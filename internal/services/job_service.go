package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

// JobService owns the job_run table from the request side. Rows go in
// queued and the worker pool claims them on its next tick; the row itself
// is the message, there is no separate dispatch step.
type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	// EnqueueUnlessRunnable collapses repeat requests: when a runnable job
	// of the same type already targets the entity, it returns that job with
	// created=false instead of stacking another one.
	EnqueueUnlessRunnable(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, bool, error)
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	ListForRequestUser(dbc dbctx.Context, limit int) ([]*types.JobRun, error)
	CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	RestartForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner user id: %w", ErrInvalidArgument)
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job type: %w", ErrInvalidArgument)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	// Carry the request trace into the payload so worker logs line up with
	// the request that enqueued the job.
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	now := time.Now()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Progress:    0,
		Message:     "Queued",
		Payload:     datatypes.JSON(payloadJSON),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	// Inside a transaction this lands on the pending carrier and goes out
	// after commit.
	s.notify.JobCreated(dbc.Ctx, ownerUserID, job)
	s.log.Info("Job enqueued", "jobID", job.ID, "jobType", jobType)
	return job, nil
}

func (s *jobService) EnqueueUnlessRunnable(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, bool, error) {
	if entityID == nil || *entityID == uuid.Nil {
		return nil, false, fmt.Errorf("missing entity id: %w", ErrInvalidArgument)
	}
	exists, err := s.repo.ExistsRunnable(dbc, ownerUserID, jobType, entityType, entityID)
	if err != nil {
		return nil, false, fmt.Errorf("check runnable jobs: %w", err)
	}
	if exists {
		job, err := s.repo.GetLatestByEntity(dbc, ownerUserID, entityType, *entityID, jobType)
		if err != nil {
			return nil, false, fmt.Errorf("fetch latest job: %w", err)
		}
		if job != nil {
			return job, false, nil
		}
		// Raced to terminal between the two reads; fall through and enqueue.
	}
	job, err := s.Enqueue(dbc, ownerUserID, jobType, entityType, entityID, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id: %w", ErrInvalidArgument)
	}
	job, err := s.repo.GetByID(dbc, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}
	if job == nil || job.OwnerUserID != rd.UserID {
		return nil, fmt.Errorf("job %s: %w", jobID, repos.ErrNotFound)
	}
	return job, nil
}

func (s *jobService) ListForRequestUser(dbc dbctx.Context, limit int) ([]*types.JobRun, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	jobs, err := s.repo.ListByOwner(dbc, rd.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *jobService) CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForRequestUser(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if types.TerminalJobStatus(job.Status) {
		// Cancel after the fact is a no-op, not an error.
		return job, nil
	}

	now := time.Now()
	changed, err := s.repo.UpdateFieldsUnlessStatus(dbc, jobID, []string{
		types.JobStatusSucceeded, types.JobStatusFailed, types.JobStatusCanceled,
	}, map[string]interface{}{
		"status":       types.JobStatusCanceled,
		"message":      "Canceled",
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	if !changed {
		// Finished while we were looking. Return whatever it settled into.
		return s.GetByIDForRequestUser(dbc, jobID)
	}

	job.Status = types.JobStatusCanceled
	job.Message = "Canceled"
	job.LockedAt = nil
	job.HeartbeatAt = &now
	job.UpdatedAt = now
	// A worker already past claim sees the flip through the runtime guard
	// on its next Progress or Succeed call.
	s.notify.JobCanceled(dbc.Ctx, job.OwnerUserID, job)
	s.log.Info("Job canceled", "jobID", jobID, "jobType", job.JobType)
	return job, nil
}

func (s *jobService) RestartForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForRequestUser(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobStatusFailed && job.Status != types.JobStatusCanceled {
		return nil, fmt.Errorf("job %s is %s and cannot restart: %w", jobID, job.Status, ErrInvalidArgument)
	}

	now := time.Now()
	// Guarded on the live row so a concurrent retry pickup wins cleanly.
	// Attempts reset to zero: a restart is a fresh budget, not a retry.
	changed, err := s.repo.UpdateFieldsUnlessStatus(dbc, jobID, []string{
		types.JobStatusQueued, types.JobStatusRunning, types.JobStatusSucceeded,
	}, map[string]interface{}{
		"status":        types.JobStatusQueued,
		"stage":         "queued",
		"progress":      0,
		"attempts":      0,
		"message":       "Restarting",
		"error":         "",
		"last_error_at": nil,
		"result":        datatypes.JSON([]byte(`{}`)),
		"locked_at":     nil,
		"heartbeat_at":  nil,
		"updated_at":    now,
	})
	if err != nil {
		return nil, fmt.Errorf("restart job: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("job %s changed concurrently: %w", jobID, repos.ErrConflict)
	}

	job.Status = types.JobStatusQueued
	job.Stage = "queued"
	job.Progress = 0
	job.Attempts = 0
	job.Message = "Restarting"
	job.Error = ""
	job.LastErrorAt = nil
	job.Result = datatypes.JSON([]byte(`{}`))
	job.LockedAt = nil
	job.HeartbeatAt = nil
	job.UpdatedAt = now
	s.notify.JobRestarted(dbc.Ctx, job.OwnerUserID, job)
	s.log.Info("Job restarted", "jobID", jobID, "jobType", job.JobType)
	return job, nil
}
