package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/nudge"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/sessions"
)

// NudgeService persists and serves behavioral nudges. Sweep assembles one
// snapshot per candidate user, runs the rules, and inserts whatever fires;
// the dedupe key makes the sweep safe to run as often as the scheduler
// likes, on as many instances as are up.
type NudgeService interface {
	List(dbc dbctx.Context) ([]*types.Nudge, error)
	Dismiss(dbc dbctx.Context, id uuid.UUID) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type nudgeService struct {
	db          *gorm.DB
	log         *logger.Logger
	nudgeRepo   repos.NudgeRepo
	sessionRepo repos.FocusSessionRepo
	userRepo    repos.UserRepo
	notifier    NudgeNotifier
	cfg         nudge.Config
}

func NewNudgeService(
	db *gorm.DB,
	log *logger.Logger,
	nudgeRepo repos.NudgeRepo,
	sessionRepo repos.FocusSessionRepo,
	userRepo repos.UserRepo,
	notifier NudgeNotifier,
	cfg nudge.Config,
) NudgeService {
	return &nudgeService{
		db:          db,
		log:         log.With("service", "NudgeService"),
		nudgeRepo:   nudgeRepo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		cfg:         cfg,
	}
}

func (ns *nudgeService) List(dbc dbctx.Context) ([]*types.Nudge, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	nudges, err := ns.nudgeRepo.ListPendingByOwner(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list nudges: %w", err)
	}
	return nudges, nil
}

func (ns *nudgeService) Dismiss(dbc dbctx.Context, id uuid.UUID) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	changed, err := ns.nudgeRepo.Dismiss(dbc, id, rd.UserID, time.Now())
	if err != nil {
		return fmt.Errorf("dismiss nudge: %w", err)
	}
	if !changed {
		return fmt.Errorf("nudge %s: %w", id, repos.ErrNotFound)
	}
	return nil
}

func (ns *nudgeService) Sweep(ctx context.Context, now time.Time) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}

	// Candidate users come from three targeted queries instead of a walk
	// over the whole user table.
	idleAges := make(map[uuid.UUID]time.Duration)
	active, err := ns.sessionRepo.ListActive(dbc)
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}
	for _, s := range active {
		if s.Phase != sessions.PhaseIdle {
			continue
		}
		if age := now.Sub(s.PhaseStartedAt); age > idleAges[s.OwnerUserID] {
			idleAges[s.OwnerUserID] = age
		}
	}

	risky, err := ns.userRepo.ListStreakAtRisk(dbc, utcDate(now))
	if err != nil {
		return 0, fmt.Errorf("list streaks at risk: %w", err)
	}

	reviewCutoff := now.Add(-time.Duration(ns.cfg.ReviewAfterDays) * 24 * time.Hour)
	lastRecall, err := ns.sessionRepo.LastRecallByOwners(dbc, reviewCutoff)
	if err != nil {
		return 0, fmt.Errorf("list lapsed recalls: %w", err)
	}

	users := make(map[uuid.UUID]*types.User, len(risky))
	for _, u := range risky {
		users[u.ID] = u
	}
	var missing []uuid.UUID
	for id := range idleAges {
		if _, ok := users[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range lastRecall {
		if _, ok := users[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		rows, err := ns.userRepo.GetByIDs(dbc, missing)
		if err != nil {
			return 0, fmt.Errorf("fetch sweep users: %w", err)
		}
		for _, u := range rows {
			users[u.ID] = u
		}
	}

	created := 0
	for id, u := range users {
		snap := nudge.Snapshot{
			UserID:         id,
			Now:            now,
			StreakDays:     u.StreakDays,
			LastActiveAt:   u.LastActiveAt,
			IdleSessionAge: idleAges[id],
		}
		if ended, ok := lastRecall[id]; ok {
			endedAt := ended
			snap.LastRecallEndedAt = &endedAt
		}

		for _, p := range nudge.Evaluate(ns.cfg, snap) {
			row := &types.Nudge{
				OwnerUserID: id,
				Rule:        p.Rule,
				Message:     p.Message,
				Status:      types.NudgeStatusPending,
				DedupeKey:   p.DedupeKey,
				DeliveredAt: now,
			}
			// One row at a time so the insert count tells us whether this
			// exact nudge was fresh and should go out over SSE.
			n, err := ns.nudgeRepo.CreateIgnoreDuplicates(dbc, []*types.Nudge{row})
			if err != nil {
				ns.log.Warn("Failed to insert nudge", "userID", id, "rule", p.Rule, "error", err)
				continue
			}
			if n == 0 {
				continue
			}
			created++
			ns.notifier.NudgeCreated(ctx, id, row)
		}
	}
	return created, nil
}
