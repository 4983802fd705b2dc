// Package nudge decides which behavioral prompts a user should receive.
// Evaluation is pure over a snapshot the scheduler assembles; persisting
// the nudge row (deduped per rule and UTC day) and fanning it out over
// SSE happens in the service layer. Nudges are advisory and never block
// anything.
package nudge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RuleSessionIdle  = "session_idle"
	RuleStreakAtRisk = "streak_at_risk"
	RuleReviewDue    = "review_due"
)

// Config holds the rule thresholds. Hours are UTC; user-local timezones
// are out of scope for the sweep.
type Config struct {
	IdleAfter       time.Duration
	RiskHourUTC     int
	ReviewAfterDays int
}

func DefaultConfig() Config {
	return Config{
		IdleAfter:       10 * time.Minute,
		RiskHourUTC:     18,
		ReviewAfterDays: 3,
	}
}

// Snapshot is one user's state at sweep time.
type Snapshot struct {
	UserID       uuid.UUID
	Now          time.Time
	StreakDays   int
	LastActiveAt *time.Time

	// IdleSessionAge is how long the newest active session has been
	// sitting in the idle phase; zero means no idle session.
	IdleSessionAge time.Duration

	// LastRecallEndedAt is when a recall phase most recently completed.
	LastRecallEndedAt *time.Time
}

// Proposal is a nudge the rules want delivered. DedupeKey caps delivery
// at once per rule per user per UTC day.
type Proposal struct {
	Rule      string
	Message   string
	DedupeKey string
}

func DedupeKey(rule string, userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", rule, userID, at.UTC().Format("2006-01-02"))
}

// Evaluate runs every rule against the snapshot and returns the nudges
// that fire, in rule order.
func Evaluate(cfg Config, s Snapshot) []Proposal {
	var out []Proposal
	add := func(rule, message string) {
		out = append(out, Proposal{
			Rule:      rule,
			Message:   message,
			DedupeKey: DedupeKey(rule, s.UserID, s.Now),
		})
	}

	if s.IdleSessionAge >= cfg.IdleAfter && cfg.IdleAfter > 0 {
		add(RuleSessionIdle, "Your focus session never started. Ready when you are.")
	}

	if s.StreakDays > 0 && !activeToday(s.LastActiveAt, s.Now) && s.Now.UTC().Hour() >= cfg.RiskHourUTC {
		add(RuleStreakAtRisk, fmt.Sprintf("Your %d-day streak ends at midnight. A quick session keeps it alive.", s.StreakDays))
	}

	if s.LastRecallEndedAt != nil {
		age := s.Now.Sub(*s.LastRecallEndedAt)
		if age >= time.Duration(cfg.ReviewAfterDays)*24*time.Hour {
			add(RuleReviewDue, "It has been a few days since your last recall round. A short review locks it in.")
		}
	}

	return out
}

func activeToday(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	y1, m1, d1 := last.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
