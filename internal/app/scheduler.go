package app

import (
	"context"
	"time"

	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/services"
)

// Scheduler drives time-based state: focus session phase transitions on a
// short tick and the nudge sweep on a longer one. Every instance runs one;
// the guarded repo updates decide any races between them.
type Scheduler struct {
	log      *logger.Logger
	sessions services.SessionService
	nudges   services.NudgeService

	tick       time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
}

func NewScheduler(log *logger.Logger, sessions services.SessionService, nudges services.NudgeService, tick, sweepEvery time.Duration) *Scheduler {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	return &Scheduler{
		log:        log.With("component", "Scheduler"),
		sessions:   sessions,
		nudges:     nudges,
		tick:       tick,
		sweepEvery: sweepEvery,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(s.tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.runOnce(ctx, now.UTC())
			}
		}
	}()
}

// runOnce is a single tick; tests call it directly with a chosen now.
func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	if n, err := s.sessions.AdvanceDue(ctx, now); err != nil {
		s.log.Warn("Session advance failed", "error", err)
	} else if n > 0 {
		s.log.Debug("Advanced focus sessions", "count", n)
	}

	if now.Sub(s.lastSweep) < s.sweepEvery {
		return
	}
	s.lastSweep = now
	if n, err := s.nudges.Sweep(ctx, now); err != nil {
		s.log.Warn("Nudge sweep failed", "error", err)
	} else if n > 0 {
		s.log.Info("Delivered nudges", "count", n)
	}
}
