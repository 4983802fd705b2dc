package concepts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewExtractor(log)
}

func TestExtractRanksCategories(t *testing.T) {
	e := newTestExtractor(t)
	text := "The derivative of a polynomial is found with calculus. An equation relates force to acceleration."
	got := e.Extract("", text, 0)
	if len(got) < 2 {
		t.Fatalf("expected at least two categories, got %+v", got)
	}
	if got[0].Category != "mathematics" {
		t.Fatalf("top category %q, want mathematics (%+v)", got[0].Category, got)
	}
	if got[1].Category != "physics" {
		t.Fatalf("second category %q, want physics (%+v)", got[1].Category, got)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not ranked: %+v", got)
	}
}

func TestExtractSubjectWeighsDouble(t *testing.T) {
	e := newTestExtractor(t)
	// One text hit each way, but the subject hit counts double.
	got := e.Extract("Calculus", "A force acts on the block.", 0)
	if len(got) == 0 || got[0].Category != "mathematics" {
		t.Fatalf("subject weighting lost: %+v", got)
	}
}

func TestExtractMatchesWholeTokensOnly(t *testing.T) {
	e := newTestExtractor(t)
	// "motion" and "function" contain "ion", which must not fire chemistry.
	got := e.Extract("", "The function describes motion.", 0)
	for _, m := range got {
		if m.Category == "chemistry" {
			t.Fatalf("substring false positive: %+v", got)
		}
	}
}

func TestExtractMultiWordKeyword(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("", "Choosing the right data structure matters.", 0)
	if len(got) == 0 || got[0].Category != "computer_science" {
		t.Fatalf("multi-word keyword missed: %+v", got)
	}
}

func TestExtractLimit(t *testing.T) {
	e := newTestExtractor(t)
	text := "calculus energy molecule cell algorithm market empire grammar painting chord"
	all := e.Extract("", text, 0)
	if len(all) < 3 {
		t.Fatalf("corpus text should hit many categories, got %+v", all)
	}
	one := e.Extract("", text, 1)
	if len(one) != 1 {
		t.Fatalf("limit=1 returned %d matches", len(one))
	}
	if one[0].Category != all[0].Category {
		t.Fatalf("limit changed ranking: %q vs %q", one[0].Category, all[0].Category)
	}
}

func TestExtractNoMatches(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Extract("", "zebra chased another zebra", 0); len(got) != 0 {
		t.Fatalf("unexpected matches: %+v", got)
	}
	if got := e.Primary("", "zebra chased another zebra"); got != "default" {
		t.Fatalf("Primary = %q, want default", got)
	}
}

func TestPrimary(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Primary("Calculus I", "limits and derivatives"); got != "mathematics" {
		t.Fatalf("Primary = %q", got)
	}
}

func TestRulesPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	custom := `version: 1
rules:
  - category: astronomy
    priority: 5
    keywords: [telescope, nebula]
`
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	t.Setenv(conceptRulesPathEnv, path)

	e := newTestExtractor(t)
	got := e.Extract("", "pointing the telescope at a nebula", 0)
	if len(got) != 1 || got[0].Category != "astronomy" {
		t.Fatalf("override rules not loaded: %+v", got)
	}
	if got[0].Score != 10 {
		t.Fatalf("score %d, want 2 hits x priority 5", got[0].Score)
	}
}

func TestUnreadableOverrideFallsBack(t *testing.T) {
	t.Setenv(conceptRulesPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	e := newTestExtractor(t)
	// The small in-code fallback still classifies core subjects.
	if got := e.Primary("", "solve the equation"); got != "mathematics" {
		t.Fatalf("fallback rules missing: %q", got)
	}
}
