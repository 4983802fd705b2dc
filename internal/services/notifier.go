package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/realtime"
)

// =========================
// Job notifier
// =========================

// JobNotifier announces job lifecycle events. Every event goes to the
// owner's user channel and to the job's own channel, so a client can follow
// either its whole account or one job. Emission runs through SSEEmitter's
// Pending handling: inside a transaction the messages wait for the drain.

type JobNotifier interface {
	JobCreated(ctx context.Context, userID uuid.UUID, job *types.JobRun)
	JobProgress(ctx context.Context, userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(ctx context.Context, userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(ctx context.Context, userID uuid.UUID, job *types.JobRun)
	JobCanceled(ctx context.Context, userID uuid.UUID, job *types.JobRun)
	JobRestarted(ctx context.Context, userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	emit SSEEmitter
}

func NewJobNotifier(emit SSEEmitter) JobNotifier {
	return &jobNotifier{emit: emit}
}

func (n *jobNotifier) JobCreated(ctx context.Context, userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobCreated, map[string]any{"job": job})
}

func (n *jobNotifier) JobProgress(ctx context.Context, userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobProgress, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"stage":    stage,
		"progress": progress,
		"message":  message,
		"job":      job,
	})
}

func (n *jobNotifier) JobFailed(ctx context.Context, userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobFailed, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"stage":    stage,
		"error":    errorMessage,
		"job":      job,
	})
}

func (n *jobNotifier) JobDone(ctx context.Context, userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobDone, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"job":      job,
	})
}

func (n *jobNotifier) JobCanceled(ctx context.Context, userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobCanceled, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"job":      job,
	})
}

func (n *jobNotifier) JobRestarted(ctx context.Context, userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.fanOut(ctx, userID, job, realtime.SSEEventJobRestarted, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"job":      job,
	})
}

func (n *jobNotifier) fanOut(ctx context.Context, userID uuid.UUID, job *types.JobRun, event realtime.SSEEvent, data map[string]any) {
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   event,
		Data:    data,
	})
	if id := safeJobID(job); id != uuid.Nil {
		n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.JobChannel(id),
			Event:   event,
			Data:    data,
		})
	}
}

// =========================
// Session notifier
// =========================

type SessionNotifier interface {
	SessionPhaseChanged(ctx context.Context, userID uuid.UUID, session *types.FocusSession, fromPhase, toPhase string, xpAwarded int)
}

type sessionNotifier struct {
	emit SSEEmitter
}

func NewSessionNotifier(emit SSEEmitter) SessionNotifier {
	return &sessionNotifier{emit: emit}
}

func (n *sessionNotifier) SessionPhaseChanged(ctx context.Context, userID uuid.UUID, session *types.FocusSession, fromPhase, toPhase string, xpAwarded int) {
	if n == nil || n.emit == nil || userID == uuid.Nil || session == nil {
		return
	}
	data := map[string]any{
		"session_id": session.ID,
		"from_phase": fromPhase,
		"to_phase":   toPhase,
		"xp_awarded": xpAwarded,
		"session":    session,
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventSessionPhase,
		Data:    data,
	})
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.SessionChannel(session.ID),
		Event:   realtime.SSEEventSessionPhase,
		Data:    data,
	})
}

// =========================
// Nudge notifier
// =========================

type NudgeNotifier interface {
	NudgeCreated(ctx context.Context, userID uuid.UUID, nudge *types.Nudge)
}

type nudgeNotifier struct {
	emit SSEEmitter
}

func NewNudgeNotifier(emit SSEEmitter) NudgeNotifier {
	return &nudgeNotifier{emit: emit}
}

func (n *nudgeNotifier) NudgeCreated(ctx context.Context, userID uuid.UUID, nudge *types.Nudge) {
	if n == nil || n.emit == nil || userID == uuid.Nil || nudge == nil {
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventNudgeCreated,
		Data:    map[string]any{"nudge": nudge},
	})
}

// =========================
// helpers
// =========================

func safeJobID(job *types.JobRun) uuid.UUID {
	if job == nil {
		return uuid.Nil
	}
	return job.ID
}

func safeJobType(job *types.JobRun) string {
	if job == nil {
		return ""
	}
	return job.JobType
}
