package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/menttor/menttor-backend/internal/domain/sessions"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewTable(log)
}

func active(phase string, started time.Time) State {
	return State{Phase: phase, PhaseStartedAt: started, Status: domain.SessionStatusActive}
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestAdvanceIdleStaysPut(t *testing.T) {
	tbl := testTable(t)
	s, changes := tbl.Advance(active(PhaseIdle, t0), t0.Add(12*time.Hour))
	if len(changes) != 0 || s.Phase != PhaseIdle || s.Status != domain.SessionStatusActive {
		t.Fatalf("idle advanced: %+v %+v", s, changes)
	}
}

func TestBeginStartsWarmup(t *testing.T) {
	tbl := testTable(t)
	s, changes := tbl.Begin(active(PhaseIdle, t0), t0.Add(time.Minute))
	if s.Phase != PhaseWarmup || !s.PhaseStartedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("state after begin: %+v", s)
	}
	if len(changes) != 1 || changes[0].From != PhaseIdle || changes[0].To != PhaseWarmup {
		t.Fatalf("changes: %+v", changes)
	}

	// Begin on anything but an active idle session is a no-op.
	s2, ch2 := tbl.Begin(active(PhaseFocus, t0), t0)
	if len(ch2) != 0 || s2.Phase != PhaseFocus {
		t.Fatalf("begin touched a running session: %+v", s2)
	}
}

func TestAdvanceNotDue(t *testing.T) {
	tbl := testTable(t)
	s, changes := tbl.Advance(active(PhaseWarmup, t0), t0.Add(3*time.Minute-time.Second))
	if len(changes) != 0 || s.Phase != PhaseWarmup || s.XPEarned != 0 {
		t.Fatalf("early tick moved the session: %+v %+v", s, changes)
	}
}

func TestAdvanceSingleTransition(t *testing.T) {
	tbl := testTable(t)
	s, changes := tbl.Advance(active(PhaseWarmup, t0), t0.Add(3*time.Minute))
	if s.Phase != PhaseFocus {
		t.Fatalf("phase = %q", s.Phase)
	}
	if s.XPEarned != 5 {
		t.Fatalf("xp = %d", s.XPEarned)
	}
	if len(changes) != 1 {
		t.Fatalf("changes: %+v", changes)
	}
	c := changes[0]
	if c.From != PhaseWarmup || c.To != PhaseFocus || !c.At.Equal(t0.Add(3*time.Minute)) || c.XP != 5 {
		t.Fatalf("change: %+v", c)
	}
}

func TestAdvanceCatchesUpLateTick(t *testing.T) {
	tbl := testTable(t)
	// 3m warmup + 25m focus + 5m recall are all overdue.
	s, changes := tbl.Advance(active(PhaseWarmup, t0), t0.Add(33*time.Minute))
	if s.Phase != PhaseBreak {
		t.Fatalf("phase = %q", s.Phase)
	}
	if len(changes) != 3 {
		t.Fatalf("expected 3 transitions, got %+v", changes)
	}
	if s.XPEarned != 5+25+15 {
		t.Fatalf("xp = %d", s.XPEarned)
	}
	if !s.PhaseStartedAt.Equal(t0.Add(33 * time.Minute)) {
		t.Fatalf("break started at %v", s.PhaseStartedAt)
	}
	// Each transition happened at its scheduled due time.
	if !changes[1].At.Equal(t0.Add(28 * time.Minute)) {
		t.Fatalf("focus ended at %v", changes[1].At)
	}
}

func TestAdvanceCompletesSession(t *testing.T) {
	tbl := testTable(t)
	s, changes := tbl.Advance(active(PhaseWarmup, t0), t0.Add(5*time.Hour))
	if s.Phase != PhaseDone || s.Status != domain.SessionStatusCompleted {
		t.Fatalf("state: %+v", s)
	}
	// warmup + 4 cycles of focus/recall/break.
	if want := 5 + 4*(25+15); s.XPEarned != want {
		t.Fatalf("xp = %d, want %d", s.XPEarned, want)
	}
	if len(changes) != 13 {
		t.Fatalf("%d transitions", len(changes))
	}
	end := t0.Add(143 * time.Minute)
	if s.EndedAt == nil || !s.EndedAt.Equal(end) {
		t.Fatalf("ended at %v, want %v", s.EndedAt, end)
	}
	if s.CycleCount != tbl.MaxCycles {
		t.Fatalf("cycles = %d", s.CycleCount)
	}
	last := changes[len(changes)-1]
	if last.To != PhaseDone || !last.At.Equal(end) {
		t.Fatalf("last change: %+v", last)
	}
}

func TestBreakCyclesBackToFocus(t *testing.T) {
	tbl := testTable(t)
	st := active(PhaseBreak, t0)
	st.CycleCount = 1
	s, _ := tbl.Advance(st, t0.Add(5*time.Minute))
	if s.Phase != PhaseFocus || s.CycleCount != 2 {
		t.Fatalf("state: %+v", s)
	}
	if s.Status != domain.SessionStatusActive {
		t.Fatalf("status: %q", s.Status)
	}
}

func TestFinalBreakCompletes(t *testing.T) {
	tbl := testTable(t)
	st := active(PhaseBreak, t0)
	st.CycleCount = tbl.MaxCycles - 1
	s, changes := tbl.Advance(st, t0.Add(5*time.Minute))
	if s.Phase != PhaseDone || s.Status != domain.SessionStatusCompleted {
		t.Fatalf("state: %+v", s)
	}
	if len(changes) != 1 || changes[0].To != PhaseDone {
		t.Fatalf("changes: %+v", changes)
	}
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	tbl := testTable(t)
	s := active(PhaseWarmup, t0)

	s = tbl.Pause(s, t0.Add(time.Minute))
	if s.Status != domain.SessionStatusPaused || s.PausedAt == nil {
		t.Fatalf("after pause: %+v", s)
	}

	// Nine minutes later the clock resumes with two minutes still left.
	s = tbl.Resume(s, t0.Add(10*time.Minute))
	if s.Status != domain.SessionStatusActive || s.PausedAt != nil {
		t.Fatalf("after resume: %+v", s)
	}
	if got := tbl.Remaining(s, t0.Add(10*time.Minute)); got != 2*time.Minute {
		t.Fatalf("remaining = %v", got)
	}

	s, changes := tbl.Advance(s, t0.Add(12*time.Minute))
	if s.Phase != PhaseFocus || len(changes) != 1 {
		t.Fatalf("after advance: %+v %+v", s, changes)
	}
	if !changes[0].At.Equal(t0.Add(12 * time.Minute)) {
		t.Fatalf("transition at %v", changes[0].At)
	}
}

func TestAdvanceSkipsPausedAndTerminal(t *testing.T) {
	tbl := testTable(t)

	paused := tbl.Pause(active(PhaseFocus, t0), t0.Add(time.Minute))
	if s, ch := tbl.Advance(paused, t0.Add(time.Hour)); len(ch) != 0 || s.Phase != PhaseFocus {
		t.Fatalf("paused session advanced: %+v", s)
	}

	gone := tbl.Abandon(active(PhaseFocus, t0), t0.Add(time.Minute))
	if s, ch := tbl.Advance(gone, t0.Add(time.Hour)); len(ch) != 0 || s.Status != domain.SessionStatusAbandoned {
		t.Fatalf("abandoned session advanced: %+v", s)
	}
}

func TestAbandon(t *testing.T) {
	tbl := testTable(t)
	s := tbl.Abandon(active(PhaseRecall, t0), t0.Add(time.Minute))
	if s.Status != domain.SessionStatusAbandoned || s.EndedAt == nil {
		t.Fatalf("state: %+v", s)
	}

	// Completed sessions stay completed.
	done, _ := tbl.Advance(active(PhaseWarmup, t0), t0.Add(5*time.Hour))
	if got := tbl.Abandon(done, t0.Add(6*time.Hour)); got.Status != domain.SessionStatusCompleted {
		t.Fatalf("abandon rewrote a completed session: %+v", got)
	}
}

func TestRemainingUntimedPhases(t *testing.T) {
	tbl := testTable(t)
	if got := tbl.Remaining(active(PhaseIdle, t0), t0); got != 0 {
		t.Fatalf("idle remaining = %v", got)
	}
}

func TestPhasesPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phases.yaml")
	custom := `version: 1
max_cycles: 1
phases:
  - phase: warmup
    next: focus
    duration_seconds: 1
    xp_reward: 1
  - phase: focus
    next: recall
    duration_seconds: 1
    xp_reward: 2
  - phase: recall
    next: break
    duration_seconds: 1
    xp_reward: 3
  - phase: break
    next: focus
    duration_seconds: 1
`
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatalf("write phases: %v", err)
	}
	t.Setenv(phasesPathEnv, path)

	tbl := testTable(t)
	s, _ := tbl.Advance(active(PhaseWarmup, t0), t0.Add(10*time.Second))
	if s.Phase != PhaseDone || s.XPEarned != 6 {
		t.Fatalf("custom table not applied: %+v", s)
	}
}

func TestUnreadableOverrideFallsBack(t *testing.T) {
	t.Setenv(phasesPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	tbl := testTable(t)
	spec, ok := tbl.Spec(PhaseFocus)
	if !ok || spec.Duration != 25*time.Minute {
		t.Fatalf("fallback table wrong: %+v ok=%v", spec, ok)
	}
}
