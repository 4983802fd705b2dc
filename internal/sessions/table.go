// Package sessions is the focus-session phase machine. The phase graph
// (phase, next, duration, xp reward) lives in an embedded YAML table so
// tuning durations does not touch code; idle and done are untimed and
// exist only in code. All transition logic is pure over a State snapshot,
// with the wall clock passed in, so the scheduler and the tests drive the
// same functions.
package sessions

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

const phasesPathEnv = "SESSION_PHASES_PATH"

//go:embed phases.yaml
var phasesFS embed.FS

const (
	PhaseIdle   = "idle"
	PhaseWarmup = "warmup"
	PhaseFocus  = "focus"
	PhaseRecall = "recall"
	PhaseBreak  = "break"
	PhaseDone   = "done"
)

// PhaseSpec is one timed phase: after Duration the session moves to Next
// and receives XPReward.
type PhaseSpec struct {
	Phase    string
	Next     string
	Duration time.Duration
	XPReward int
}

type yamlPhase struct {
	Phase           string `yaml:"phase"`
	Next            string `yaml:"next"`
	DurationSeconds int    `yaml:"duration_seconds"`
	XPReward        int    `yaml:"xp_reward"`
}

type yamlTable struct {
	Version   int         `yaml:"version"`
	MaxCycles int         `yaml:"max_cycles"`
	Phases    []yamlPhase `yaml:"phases"`
}

// fallback mirrors phases.yaml so a broken override path still yields a
// working machine.
var fallbackTable = Table{
	MaxCycles: 4,
	phases: map[string]PhaseSpec{
		PhaseWarmup: {Phase: PhaseWarmup, Next: PhaseFocus, Duration: 3 * time.Minute, XPReward: 5},
		PhaseFocus:  {Phase: PhaseFocus, Next: PhaseRecall, Duration: 25 * time.Minute, XPReward: 25},
		PhaseRecall: {Phase: PhaseRecall, Next: PhaseBreak, Duration: 5 * time.Minute, XPReward: 15},
		PhaseBreak:  {Phase: PhaseBreak, Next: PhaseFocus, Duration: 5 * time.Minute, XPReward: 0},
	},
}

// Table is the loaded transition table. Construct once in app wiring and
// inject.
type Table struct {
	MaxCycles int
	phases    map[string]PhaseSpec
}

func NewTable(baseLog *logger.Logger) *Table {
	log := baseLog.With("service", "SessionPhaseTable")
	t, err := loadTable()
	if err != nil {
		log.Warn("session phase table load failed; using fallback", "error", err)
		fb := fallbackTable
		return &fb
	}
	return t
}

// Spec returns the timed spec for a phase; untimed phases (idle, done)
// report ok=false.
func (t *Table) Spec(phase string) (PhaseSpec, bool) {
	s, ok := t.phases[phase]
	return s, ok
}

func loadTable() (*Table, error) {
	data, err := readTable()
	if err != nil {
		return nil, err
	}
	var yt yamlTable
	if err := yaml.Unmarshal(data, &yt); err != nil {
		return nil, err
	}
	return buildTable(yt)
}

func readTable() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(phasesPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return phasesFS.ReadFile("phases.yaml")
}

func buildTable(yt yamlTable) (*Table, error) {
	if len(yt.Phases) == 0 {
		return nil, errors.New("no phases defined")
	}
	if yt.MaxCycles < 1 {
		return nil, errors.New("max_cycles must be at least 1")
	}

	t := &Table{MaxCycles: yt.MaxCycles, phases: make(map[string]PhaseSpec, len(yt.Phases))}
	for _, p := range yt.Phases {
		name := strings.TrimSpace(p.Phase)
		if name == "" {
			return nil, errors.New("phase name is required")
		}
		if _, dup := t.phases[name]; dup {
			return nil, fmt.Errorf("duplicate phase: %s", name)
		}
		if p.DurationSeconds <= 0 {
			return nil, fmt.Errorf("phase %s: duration must be positive", name)
		}
		t.phases[name] = PhaseSpec{
			Phase:    name,
			Next:     strings.TrimSpace(p.Next),
			Duration: time.Duration(p.DurationSeconds) * time.Second,
			XPReward: p.XPReward,
		}
	}

	for name, spec := range t.phases {
		if spec.Next == PhaseDone {
			continue
		}
		if _, ok := t.phases[spec.Next]; !ok {
			return nil, fmt.Errorf("phase %s: unknown next phase %s", name, spec.Next)
		}
	}
	if _, ok := t.phases[PhaseWarmup]; !ok {
		return nil, fmt.Errorf("table must define the %s phase", PhaseWarmup)
	}
	return t, nil
}
