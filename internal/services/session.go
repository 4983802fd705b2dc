package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/sessions"
)

// SessionService owns the focus-session lifecycle. Handlers flip status
// (pause, resume, abandon); phase transitions happen only in AdvanceDue,
// which the scheduler calls on every tick. A new session starts idle and
// moves into warmup on the first resume, so "resume" doubles as the start
// button the same way it does on a paused session.
type SessionService interface {
	Start(dbc dbctx.Context, docID *uuid.UUID) (*types.FocusSession, error)
	// Get returns the session plus time remaining in its current phase
	// (zero for untimed phases and non-active sessions).
	Get(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, time.Duration, error)
	Pause(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error)
	Resume(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error)
	Abandon(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error)
	// AdvanceDue applies every phase transition due at now across all active
	// sessions and returns how many were applied. Safe to run concurrently
	// on several instances; the guarded repo update decides each race.
	AdvanceDue(ctx context.Context, now time.Time) (int, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.FocusSessionRepo
	userSvc     UserService
	learningSvc LearningService
	notifier    SessionNotifier
	table       *sessions.Table
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	sessionRepo repos.FocusSessionRepo,
	userSvc UserService,
	learningSvc LearningService,
	notifier SessionNotifier,
	table *sessions.Table,
) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
		userSvc:     userSvc,
		learningSvc: learningSvc,
		notifier:    notifier,
		table:       table,
	}
}

func (ss *sessionService) Start(dbc dbctx.Context, docID *uuid.UUID) (*types.FocusSession, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if docID != nil {
		if _, err := ss.learningSvc.GetDoc(dbc, *docID); err != nil {
			return nil, err
		}
	}

	var session *types.FocusSession
	err := ss.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		live, err := ss.sessionRepo.GetLiveByOwner(inner, rd.UserID)
		if err != nil {
			return fmt.Errorf("check live session: %w", err)
		}
		if live != nil {
			return fmt.Errorf("session %s is already live: %w", live.ID, repos.ErrConflict)
		}
		created, err := ss.sessionRepo.Create(inner, []*types.FocusSession{{
			OwnerUserID:    rd.UserID,
			DocID:          docID,
			Status:         types.SessionStatusActive,
			Phase:          sessions.PhaseIdle,
			PhaseStartedAt: time.Now(),
		}})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		session = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("Focus session started", "sessionID", session.ID, "userID", rd.UserID)
	return session, nil
}

func (ss *sessionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, time.Duration, error) {
	session, err := ss.ownedSession(dbc, id)
	if err != nil {
		return nil, 0, err
	}
	return session, ss.table.Remaining(stateOf(session), time.Now()), nil
}

func (ss *sessionService) Pause(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error) {
	session, err := ss.ownedSession(dbc, id)
	if err != nil {
		return nil, err
	}
	if session.Status != types.SessionStatusActive {
		return nil, fmt.Errorf("session is not active: %w", ErrInvalidArgument)
	}
	now := time.Now()
	changed, err := ss.sessionRepo.UpdateFieldsIfStatus(dbc, id, types.SessionStatusActive, map[string]interface{}{
		"status":    types.SessionStatusPaused,
		"paused_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("pause session: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("session changed concurrently: %w", repos.ErrConflict)
	}
	session.Status = types.SessionStatusPaused
	session.PausedAt = &now
	return session, nil
}

func (ss *sessionService) Resume(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error) {
	session, err := ss.ownedSession(dbc, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	// A fresh session is active but idle; resuming it is the start action.
	if session.Status == types.SessionStatusActive && session.Phase == sessions.PhaseIdle {
		next, changes := ss.table.Begin(stateOf(session), now)
		if len(changes) == 0 {
			return session, nil
		}
		won, err := ss.sessionRepo.AdvancePhase(dbc, id, sessions.PhaseIdle, next.Phase, now, false)
		if err != nil {
			return nil, fmt.Errorf("begin session: %w", err)
		}
		if !won {
			return nil, fmt.Errorf("session changed concurrently: %w", repos.ErrConflict)
		}
		session.Phase = next.Phase
		session.PhaseStartedAt = now
		ss.notifier.SessionPhaseChanged(dbc.Ctx, session.OwnerUserID, session, sessions.PhaseIdle, next.Phase, 0)
		return session, nil
	}

	if session.Status != types.SessionStatusPaused {
		return nil, fmt.Errorf("session is not paused: %w", ErrInvalidArgument)
	}
	next := ss.table.Resume(stateOf(session), now)
	changed, err := ss.sessionRepo.UpdateFieldsIfStatus(dbc, id, types.SessionStatusPaused, map[string]interface{}{
		"status":           types.SessionStatusActive,
		"paused_at":        nil,
		"phase_started_at": next.PhaseStartedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("session changed concurrently: %w", repos.ErrConflict)
	}
	session.Status = types.SessionStatusActive
	session.PausedAt = nil
	session.PhaseStartedAt = next.PhaseStartedAt
	return session, nil
}

func (ss *sessionService) Abandon(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error) {
	session, err := ss.ownedSession(dbc, id)
	if err != nil {
		return nil, err
	}
	if session.Status == types.SessionStatusCompleted || session.Status == types.SessionStatusAbandoned {
		// Already finished; abandoning again is a no-op.
		return session, nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":    types.SessionStatusAbandoned,
		"ended_at":  now,
		"paused_at": nil,
	}
	changed, err := ss.sessionRepo.UpdateFieldsIfStatus(dbc, id, session.Status, updates)
	if err != nil {
		return nil, fmt.Errorf("abandon session: %w", err)
	}
	if !changed {
		// Raced a pause, resume or completion; re-read and retry once from
		// whatever state won.
		session, err = ss.sessionRepo.GetByID(dbc, id)
		if err != nil {
			return nil, fmt.Errorf("fetch session: %w", err)
		}
		if session == nil {
			return nil, fmt.Errorf("session %s: %w", id, repos.ErrNotFound)
		}
		if session.Status == types.SessionStatusCompleted || session.Status == types.SessionStatusAbandoned {
			return session, nil
		}
		if _, err := ss.sessionRepo.UpdateFieldsIfStatus(dbc, id, session.Status, updates); err != nil {
			return nil, fmt.Errorf("abandon session: %w", err)
		}
	}
	session.Status = types.SessionStatusAbandoned
	session.EndedAt = &now
	session.PausedAt = nil
	return session, nil
}

func (ss *sessionService) AdvanceDue(ctx context.Context, now time.Time) (int, error) {
	active, err := ss.sessionRepo.ListActive(dbctx.Context{Ctx: ctx})
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}

	applied := 0
	for _, s := range active {
		n, err := ss.advanceSession(ctx, s, now)
		if err != nil {
			ss.log.Warn("Failed to advance session", "sessionID", s.ID, "error", err)
			continue
		}
		applied += n
	}
	return applied, nil
}

type phaseEvent struct {
	from, to string
	xp       int
	snapshot types.FocusSession
}

// advanceSession applies one session's due transitions inside a transaction
// and emits the phase events after commit. A guarded update that misses
// stops the chain: another instance is already past this point.
func (ss *sessionService) advanceSession(ctx context.Context, s *types.FocusSession, now time.Time) (int, error) {
	_, changes := ss.table.Advance(stateOf(s), now)
	if len(changes) == 0 {
		return 0, nil
	}

	var (
		emits        []phaseEvent
		completedDoc *uuid.UUID
		xpTotal      int
	)
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		cur := *s
		for _, ch := range changes {
			won, err := ss.sessionRepo.AdvancePhase(inner, s.ID, ch.From, ch.To, ch.At, ch.From == sessions.PhaseBreak)
			if err != nil {
				return fmt.Errorf("advance phase: %w", err)
			}
			if !won {
				break
			}
			cur.Phase = ch.To
			cur.PhaseStartedAt = ch.At
			if ch.From == sessions.PhaseBreak {
				cur.CycleCount++
			}
			cur.XPEarned += ch.XP
			xpTotal += ch.XP

			if ch.To == sessions.PhaseDone {
				endedAt := ch.At
				if _, err := ss.sessionRepo.UpdateFieldsIfStatus(inner, s.ID, types.SessionStatusActive, map[string]interface{}{
					"status":   types.SessionStatusCompleted,
					"ended_at": endedAt,
				}); err != nil {
					return fmt.Errorf("complete session: %w", err)
				}
				cur.Status = types.SessionStatusCompleted
				cur.EndedAt = &endedAt
				completedDoc = s.DocID
			}
			emits = append(emits, phaseEvent{from: ch.From, to: ch.To, xp: ch.XP, snapshot: cur})
		}
		if xpTotal > 0 {
			if err := ss.sessionRepo.UpdateFields(inner, s.ID, map[string]interface{}{
				"xp_earned": gorm.Expr("xp_earned + ?", xpTotal),
			}); err != nil {
				return fmt.Errorf("credit session xp: %w", err)
			}
			if err := ss.userSvc.RecordActivity(inner, s.OwnerUserID, xpTotal, now); err != nil {
				return fmt.Errorf("record activity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range emits {
		e := &emits[i]
		ss.notifier.SessionPhaseChanged(ctx, s.OwnerUserID, &e.snapshot, e.from, e.to, e.xp)
	}
	if completedDoc != nil {
		if err := ss.learningSvc.CompleteNodeForDoc(dbctx.Context{Ctx: ctx}, *completedDoc); err != nil {
			ss.log.Warn("Failed to complete path node for doc", "docID", *completedDoc, "error", err)
		}
	}
	return len(emits), nil
}

func (ss *sessionService) ownedSession(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	session, err := ss.sessionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if session == nil || session.OwnerUserID != rd.UserID {
		return nil, fmt.Errorf("session %s: %w", id, repos.ErrNotFound)
	}
	return session, nil
}

func stateOf(s *types.FocusSession) sessions.State {
	return sessions.State{
		Phase:          s.Phase,
		PhaseStartedAt: s.PhaseStartedAt,
		PausedAt:       s.PausedAt,
		CycleCount:     s.CycleCount,
		XPEarned:       s.XPEarned,
		Status:         s.Status,
		EndedAt:        s.EndedAt,
	}
}
