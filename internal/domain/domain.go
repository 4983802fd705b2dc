// Package domain re-exports the persisted model types so callers can
// import one package (conventionally aliased as "types") instead of each
// subpackage.
package domain

import (
	"github.com/menttor/menttor-backend/internal/domain/auth"
	"github.com/menttor/menttor-backend/internal/domain/jobs"
	"github.com/menttor/menttor-backend/internal/domain/learning"
	"github.com/menttor/menttor-backend/internal/domain/media"
	"github.com/menttor/menttor-backend/internal/domain/sessions"
	"github.com/menttor/menttor-backend/internal/domain/user"
)

type User = user.User
type UserToken = auth.UserToken

type LearningDoc = learning.LearningDoc
type ExportRecord = learning.ExportRecord
type LearningPath = learning.LearningPath
type PathNode = learning.PathNode

type Asset = media.Asset

type FocusSession = sessions.FocusSession
type Nudge = sessions.Nudge

type JobRun = jobs.JobRun

func TerminalJobStatus(status string) bool { return jobs.TerminalJobStatus(status) }

const (
	JobStatusQueued    = jobs.JobStatusQueued
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed
	JobStatusCanceled  = jobs.JobStatusCanceled

	JobTypeDocExport       = jobs.JobTypeDocExport
	JobTypeShareCardRender = jobs.JobTypeShareCardRender

	SessionStatusActive    = sessions.SessionStatusActive
	SessionStatusPaused    = sessions.SessionStatusPaused
	SessionStatusCompleted = sessions.SessionStatusCompleted
	SessionStatusAbandoned = sessions.SessionStatusAbandoned

	NudgeStatusPending   = sessions.NudgeStatusPending
	NudgeStatusDismissed = sessions.NudgeStatusDismissed

	PathNodeStatusLocked     = learning.PathNodeStatusLocked
	PathNodeStatusAvailable  = learning.PathNodeStatusAvailable
	PathNodeStatusInProgress = learning.PathNodeStatusInProgress
	PathNodeStatusCompleted  = learning.PathNodeStatusCompleted
)
