package nudge

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	evening = time.Date(2025, 3, 10, 19, 30, 0, 0, time.UTC)
	morning = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
)

func ptr(t time.Time) *time.Time { return &t }

func rules(ps []Proposal) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Rule)
	}
	return out
}

func TestEvaluateQuietSnapshot(t *testing.T) {
	s := Snapshot{
		UserID:       uuid.New(),
		Now:          evening,
		StreakDays:   4,
		LastActiveAt: ptr(evening.Add(-time.Hour)),
	}
	if got := Evaluate(DefaultConfig(), s); len(got) != 0 {
		t.Fatalf("quiet snapshot nudged: %v", rules(got))
	}
}

func TestSessionIdleRule(t *testing.T) {
	cfg := DefaultConfig()
	s := Snapshot{UserID: uuid.New(), Now: morning, LastActiveAt: ptr(morning), IdleSessionAge: 11 * time.Minute}
	got := Evaluate(cfg, s)
	if len(got) != 1 || got[0].Rule != RuleSessionIdle {
		t.Fatalf("got %v", rules(got))
	}
	if got[0].Message == "" || got[0].DedupeKey == "" {
		t.Fatalf("incomplete proposal: %+v", got[0])
	}

	s.IdleSessionAge = 9 * time.Minute
	if got := Evaluate(cfg, s); len(got) != 0 {
		t.Fatalf("fired under threshold: %v", rules(got))
	}
}

func TestStreakAtRiskRule(t *testing.T) {
	cfg := DefaultConfig()
	base := Snapshot{
		UserID:       uuid.New(),
		Now:          evening,
		StreakDays:   7,
		LastActiveAt: ptr(evening.Add(-26 * time.Hour)),
	}

	got := Evaluate(cfg, base)
	if len(got) != 1 || got[0].Rule != RuleStreakAtRisk {
		t.Fatalf("got %v", rules(got))
	}

	// Before the evening threshold the rule holds its tongue.
	earlier := base
	earlier.Now = morning
	earlier.LastActiveAt = ptr(morning.Add(-26 * time.Hour))
	if got := Evaluate(cfg, earlier); len(got) != 0 {
		t.Fatalf("fired in the morning: %v", rules(got))
	}

	// No streak, nothing to lose.
	flat := base
	flat.StreakDays = 0
	if got := Evaluate(cfg, flat); len(got) != 0 {
		t.Fatalf("fired without a streak: %v", rules(got))
	}

	// Already active today.
	active := base
	active.LastActiveAt = ptr(evening.Add(-2 * time.Hour))
	if got := Evaluate(cfg, active); len(got) != 0 {
		t.Fatalf("fired despite activity: %v", rules(got))
	}
}

func TestReviewDueRule(t *testing.T) {
	cfg := DefaultConfig()
	s := Snapshot{
		UserID:            uuid.New(),
		Now:               morning,
		LastActiveAt:      ptr(morning),
		LastRecallEndedAt: ptr(morning.Add(-96 * time.Hour)),
	}
	got := Evaluate(cfg, s)
	if len(got) != 1 || got[0].Rule != RuleReviewDue {
		t.Fatalf("got %v", rules(got))
	}

	s.LastRecallEndedAt = ptr(morning.Add(-48 * time.Hour))
	if got := Evaluate(cfg, s); len(got) != 0 {
		t.Fatalf("fired too soon: %v", rules(got))
	}

	s.LastRecallEndedAt = nil
	if got := Evaluate(cfg, s); len(got) != 0 {
		t.Fatalf("fired with no recall history: %v", rules(got))
	}
}

func TestMultipleRulesFireTogether(t *testing.T) {
	cfg := DefaultConfig()
	s := Snapshot{
		UserID:            uuid.New(),
		Now:               evening,
		StreakDays:        3,
		LastActiveAt:      ptr(evening.Add(-30 * time.Hour)),
		IdleSessionAge:    time.Hour,
		LastRecallEndedAt: ptr(evening.Add(-100 * time.Hour)),
	}
	got := Evaluate(cfg, s)
	want := []string{RuleSessionIdle, RuleStreakAtRisk, RuleReviewDue}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", rules(got), want)
	}
	for i, r := range want {
		if got[i].Rule != r {
			t.Fatalf("rule order %v, want %v", rules(got), want)
		}
	}
}

func TestDedupeKeyPerRuleAndDay(t *testing.T) {
	id := uuid.New()
	day := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	k1 := DedupeKey(RuleSessionIdle, id, day)
	k2 := DedupeKey(RuleStreakAtRisk, id, day)
	if k1 == k2 {
		t.Fatalf("rules share a key: %s", k1)
	}
	if got := DedupeKey(RuleSessionIdle, id, day.Add(-time.Hour)); got != k1 {
		t.Fatalf("same day split keys: %s vs %s", got, k1)
	}
	if got := DedupeKey(RuleSessionIdle, id, day.Add(2*time.Minute)); got == k1 {
		t.Fatalf("next day reused key: %s", got)
	}
}
