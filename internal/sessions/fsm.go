package sessions

import (
	"time"

	domain "github.com/menttor/menttor-backend/internal/domain/sessions"
)

// State is the phase-relevant snapshot of one focus session. It mirrors
// the columns the scheduler reads and writes; converting to and from the
// gorm model is the session service's job.
type State struct {
	Phase          string
	PhaseStartedAt time.Time
	PausedAt       *time.Time
	CycleCount     int
	XPEarned       int
	Status         string
	EndedAt        *time.Time
}

// Change is one applied transition. At is the instant the phase actually
// ended (its scheduled due time, not the tick time), so late ticks do not
// distort the timeline.
type Change struct {
	From string
	To   string
	At   time.Time
	XP   int
}

// Advance applies every transition due at now and returns the new state.
// Pure: the input is not mutated. Idle and done are untimed, paused and
// terminal sessions never move, and a tick that fires late catches up one
// full phase at a time, each consuming its exact duration.
func (t *Table) Advance(s State, now time.Time) (State, []Change) {
	if s.Status != domain.SessionStatusActive {
		return s, nil
	}

	var changes []Change
	for {
		spec, ok := t.phases[s.Phase]
		if !ok {
			break
		}
		due := s.PhaseStartedAt.Add(spec.Duration)
		if now.Before(due) {
			break
		}

		next := spec.Next
		if s.Phase == PhaseBreak {
			s.CycleCount++
			if s.CycleCount >= t.MaxCycles {
				next = PhaseDone
			}
		}

		s.XPEarned += spec.XPReward
		changes = append(changes, Change{From: s.Phase, To: next, At: due, XP: spec.XPReward})
		s.Phase = next
		s.PhaseStartedAt = due

		if next == PhaseDone {
			s.Status = domain.SessionStatusCompleted
			ended := due
			s.EndedAt = &ended
			break
		}
	}
	return s, changes
}

// Begin moves an idle session into warmup. The scheduler never does this
// on its own; it is the explicit start action.
func (t *Table) Begin(s State, now time.Time) (State, []Change) {
	if s.Status != domain.SessionStatusActive || s.Phase != PhaseIdle {
		return s, nil
	}
	s.Phase = PhaseWarmup
	s.PhaseStartedAt = now
	return s, []Change{{From: PhaseIdle, To: PhaseWarmup, At: now}}
}

// Pause freezes an active session. The phase clock stops; Resume shifts
// PhaseStartedAt by the paused span so remaining time is preserved.
func (t *Table) Pause(s State, now time.Time) State {
	if s.Status != domain.SessionStatusActive {
		return s
	}
	s.Status = domain.SessionStatusPaused
	paused := now
	s.PausedAt = &paused
	return s
}

func (t *Table) Resume(s State, now time.Time) State {
	if s.Status != domain.SessionStatusPaused || s.PausedAt == nil {
		return s
	}
	s.PhaseStartedAt = s.PhaseStartedAt.Add(now.Sub(*s.PausedAt))
	s.PausedAt = nil
	s.Status = domain.SessionStatusActive
	return s
}

// Abandon terminates a session that is not already finished.
func (t *Table) Abandon(s State, now time.Time) State {
	if s.Status == domain.SessionStatusCompleted || s.Status == domain.SessionStatusAbandoned {
		return s
	}
	s.Status = domain.SessionStatusAbandoned
	ended := now
	s.EndedAt = &ended
	return s
}

// Remaining reports time left in the current phase, zero for untimed
// phases or anything not active.
func (t *Table) Remaining(s State, now time.Time) time.Duration {
	if s.Status != domain.SessionStatusActive {
		return 0
	}
	spec, ok := t.phases[s.Phase]
	if !ok {
		return 0
	}
	left := s.PhaseStartedAt.Add(spec.Duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
