package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/realtime"
	"github.com/menttor/menttor-backend/internal/sessions"
)

type sessionFixture struct {
	svc      SessionService
	learning LearningService
	repo     repos.FocusSessionRepo
	emit     *fakeEmitter
}

func newSessionFixture(t *testing.T) sessionFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	emit := &fakeEmitter{}
	userRepo := repos.NewUserRepo(db, log)
	userSvc := NewUserService(db, log, userRepo)
	learningSvc := NewLearningService(db, log,
		repos.NewLearningDocRepo(db, log),
		repos.NewLearningPathRepo(db, log),
		repos.NewPathNodeRepo(db, log),
		userSvc, nil)
	repo := repos.NewFocusSessionRepo(db, log)
	svc := NewSessionService(db, log, repo, userSvc, learningSvc,
		NewSessionNotifier(emit), sessions.NewTable(log))
	return sessionFixture{svc: svc, learning: learningSvc, repo: repo, emit: emit}
}

func TestSessionStartOnePerUser(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sstart"))
	dbc := authedDBC(u)

	s, err := fx.svc.Start(dbc, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status != types.SessionStatusActive || s.Phase != sessions.PhaseIdle {
		t.Fatalf("fresh session: want active/idle got %s/%s", s.Status, s.Phase)
	}

	if _, err := fx.svc.Start(dbc, nil); !errors.Is(err, repos.ErrConflict) {
		t.Fatalf("second live session error: want ErrConflict got %v", err)
	}

	// After abandoning, a new one can start.
	if _, err := fx.svc.Abandon(dbc, s.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := fx.svc.Start(dbc, nil); err != nil {
		t.Fatalf("Start after abandon: %v", err)
	}
}

func TestSessionStartChecksDocOwnership(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	owner := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sowner"))
	other := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sother"))

	doc, err := fx.learning.CreateDoc(authedDBC(owner), CreateDocInput{
		Subject: "x", Subtopic: "y", Content: sampleContent,
	})
	if err != nil {
		t.Fatalf("CreateDoc: %v", err)
	}

	if _, err := fx.svc.Start(authedDBC(other), &doc.ID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("foreign doc error: want ErrNotFound got %v", err)
	}
	if _, err := fx.svc.Start(authedDBC(owner), &doc.ID); err != nil {
		t.Fatalf("Start with owned doc: %v", err)
	}
}

func TestSessionResumeBeginsIdleSession(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sbegin"))
	dbc := authedDBC(u)

	s, err := fx.svc.Start(dbc, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	begun, err := fx.svc.Resume(dbc, s.ID)
	if err != nil {
		t.Fatalf("Resume on idle: %v", err)
	}
	if begun.Phase != sessions.PhaseWarmup {
		t.Fatalf("begun phase: want=%s got=%s", sessions.PhaseWarmup, begun.Phase)
	}
	if n := fx.emit.countEvent(realtime.SSEEventSessionPhase); n != 2 {
		t.Fatalf("phase events (user + session channel): want=2 got=%d", n)
	}

	_, remaining, err := fx.svc.Get(dbc, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if remaining <= 0 || remaining > 3*time.Minute {
		t.Fatalf("warmup remaining out of range: %v", remaining)
	}
}

func TestSessionPauseResumePreservesPhaseClock(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("spause"))
	dbc := authedDBC(u)

	s, err := fx.svc.Start(dbc, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := fx.svc.Resume(dbc, s.ID); err != nil {
		t.Fatalf("begin: %v", err)
	}

	paused, err := fx.svc.Pause(dbc, s.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.Status != types.SessionStatusPaused || paused.PausedAt == nil {
		t.Fatalf("paused session: %+v", paused)
	}
	// Paused sessions report no remaining time.
	if _, remaining, _ := fx.svc.Get(dbc, s.ID); remaining != 0 {
		t.Fatalf("paused remaining: want=0 got=%v", remaining)
	}
	if _, err := fx.svc.Pause(dbc, s.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("double pause error: want ErrInvalidArgument got %v", err)
	}

	resumed, err := fx.svc.Resume(dbc, s.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Status != types.SessionStatusActive || resumed.PausedAt != nil {
		t.Fatalf("resumed session: %+v", resumed)
	}
	if resumed.Phase != sessions.PhaseWarmup {
		t.Fatalf("resume phase: want=%s got=%s", sessions.PhaseWarmup, resumed.Phase)
	}
}

func TestSessionAbandonIsIdempotent(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sgone"))
	dbc := authedDBC(u)

	s, err := fx.svc.Start(dbc, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	first, err := fx.svc.Abandon(dbc, s.ID)
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if first.Status != types.SessionStatusAbandoned || first.EndedAt == nil {
		t.Fatalf("abandoned session: %+v", first)
	}
	again, err := fx.svc.Abandon(dbc, s.ID)
	if err != nil {
		t.Fatalf("second Abandon: %v", err)
	}
	if again.Status != types.SessionStatusAbandoned {
		t.Fatalf("second abandon status: want=%s got=%s", types.SessionStatusAbandoned, again.Status)
	}
}

func TestSessionOwnershipGuard(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sown"))
	peek := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("speek"))

	s, err := fx.svc.Start(authedDBC(u), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := fx.svc.Get(authedDBC(peek), s.ID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("foreign session error: want ErrNotFound got %v", err)
	}
	if _, _, err := fx.svc.Get(authedDBC(u), uuid.New()); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("missing session error: want ErrNotFound got %v", err)
	}
}

func TestSessionAdvanceDueMovesWarmupToFocus(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sadv"))
	dbc := authedDBC(u)

	s, err := fx.svc.Start(dbc, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := fx.svc.Resume(dbc, s.ID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// Rewind the phase clock so warmup (3m) is overdue but focus (25m) is not.
	plain := dbctx.Context{Ctx: anonDBC().Ctx}
	started := time.Now().Add(-10 * time.Minute)
	if err := fx.repo.UpdateFields(plain, s.ID, map[string]interface{}{
		"phase_started_at": started,
	}); err != nil {
		t.Fatalf("rewind phase clock: %v", err)
	}

	applied, err := fx.svc.AdvanceDue(anonDBC().Ctx, time.Now())
	if err != nil {
		t.Fatalf("AdvanceDue: %v", err)
	}
	if applied < 1 {
		t.Fatalf("applied transitions: want>=1 got=%d", applied)
	}

	row, err := fx.repo.GetByID(plain, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Phase != sessions.PhaseFocus {
		t.Fatalf("phase after advance: want=%s got=%s", sessions.PhaseFocus, row.Phase)
	}
	if row.XPEarned != 5 {
		t.Fatalf("session xp after warmup: want=5 got=%d", row.XPEarned)
	}
	// The phase clock moved to the warmup due time, not the tick time.
	wantStart := started.Add(3 * time.Minute)
	if gap := row.PhaseStartedAt.Sub(wantStart); gap < -time.Second || gap > time.Second {
		t.Fatalf("phase_started_at: want~%v got=%v", wantStart, row.PhaseStartedAt)
	}

	userRow := &types.User{}
	if err := db.Where("id = ?", u.ID).First(userRow).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if userRow.XP != 5 {
		t.Fatalf("user xp after warmup: want=5 got=%d", userRow.XP)
	}

	// A second tick at the same instant finds nothing due.
	if _, err := fx.svc.AdvanceDue(anonDBC().Ctx, time.Now()); err != nil {
		t.Fatalf("second AdvanceDue: %v", err)
	}
	row2, _ := fx.repo.GetByID(plain, s.ID)
	if row2.Phase != sessions.PhaseFocus || row2.XPEarned != 5 {
		t.Fatalf("second tick changed state: %+v", row2)
	}
}

func TestSessionFinalBreakCompletesAndFinishesNode(t *testing.T) {
	fx := newSessionFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("sdone"))
	dbc := authedDBC(u)

	path, err := fx.learning.CreatePath(dbc, CreatePathInput{
		Title: "One", Subject: "x",
		Nodes: []CreatePathNodeInput{{Title: "Only"}},
	})
	if err != nil {
		t.Fatalf("CreatePath: %v", err)
	}
	nodeID := path.Nodes[0].ID
	doc, err := fx.learning.CreateDoc(dbc, CreateDocInput{
		Subject: "x", Subtopic: "y", Content: sampleContent, PathNodeID: &nodeID,
	})
	if err != nil {
		t.Fatalf("CreateDoc: %v", err)
	}

	s, err := fx.svc.Start(dbc, &doc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Put the session in its last break with the break overdue.
	plain := dbctx.Context{Ctx: anonDBC().Ctx}
	if err := fx.repo.UpdateFields(plain, s.ID, map[string]interface{}{
		"phase":            sessions.PhaseBreak,
		"phase_started_at": time.Now().Add(-6 * time.Minute),
		"cycle_count":      3,
	}); err != nil {
		t.Fatalf("stage final break: %v", err)
	}

	if _, err := fx.svc.AdvanceDue(anonDBC().Ctx, time.Now()); err != nil {
		t.Fatalf("AdvanceDue: %v", err)
	}

	row, err := fx.repo.GetByID(plain, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Status != types.SessionStatusCompleted {
		t.Fatalf("status: want=%s got=%s", types.SessionStatusCompleted, row.Status)
	}
	if row.Phase != sessions.PhaseDone {
		t.Fatalf("phase: want=%s got=%s", sessions.PhaseDone, row.Phase)
	}
	if row.EndedAt == nil {
		t.Fatalf("ended_at not set")
	}
	if row.CycleCount != 4 {
		t.Fatalf("cycle count: want=4 got=%d", row.CycleCount)
	}

	nodeRepo := repos.NewPathNodeRepo(db, testutil.Logger(t))
	node, err := nodeRepo.GetByID(plain, nodeID)
	if err != nil {
		t.Fatalf("node GetByID: %v", err)
	}
	if node.Status != types.PathNodeStatusCompleted {
		t.Fatalf("node status after completion: want=%s got=%s", types.PathNodeStatusCompleted, node.Status)
	}
}
