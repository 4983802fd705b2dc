// Package concepts classifies learning text into subject categories with
// an ordered keyword rule table. The output is advisory: it picks share
// card palettes, seeds image-generation prompts and cache keys, and never
// gates business logic.
package concepts

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

const conceptRulesPathEnv = "CONCEPT_RULES_PATH"

//go:embed concept_rules.yaml
var rulesFS embed.FS

// Rule scores one category. Multi-word keywords match as substrings of the
// lowercased text; single words match whole tokens only, so "art" does not
// fire inside "particle".
type Rule struct {
	Category string   `yaml:"category"`
	Priority int      `yaml:"priority"`
	Keywords []string `yaml:"keywords"`
}

type ruleFile struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Match is one ranked category with the keywords that fired.
type Match struct {
	Category string   `json:"category"`
	Score    int      `json:"score"`
	Keywords []string `json:"keywords,omitempty"`
}

// fallback rules used when both the override path and the embedded table
// fail to load.
var fallbackRules = []Rule{
	{Category: "mathematics", Priority: 3, Keywords: []string{"equation", "calculus", "algebra", "derivative"}},
	{Category: "physics", Priority: 3, Keywords: []string{"force", "energy", "quantum"}},
	{Category: "computer_science", Priority: 3, Keywords: []string{"algorithm", "recursion", "binary"}},
}

// Extractor holds the loaded rule table. Construct once in app wiring and
// inject; there is no package-level singleton.
type Extractor struct {
	rules []Rule
	log   *logger.Logger
}

func NewExtractor(baseLog *logger.Logger) *Extractor {
	log := baseLog.With("service", "ConceptExtractor")
	rules, err := loadRules()
	if err != nil {
		log.Warn("concept rules load failed; using fallback table", "error", err)
		rules = fallbackRules
	}
	return &Extractor{rules: rules, log: log}
}

func loadRules() ([]Rule, error) {
	data, err := readRules()
	if err != nil {
		return nil, err
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, err
	}
	if err := validateRules(rf.Rules); err != nil {
		return nil, err
	}
	return rf.Rules, nil
}

func readRules() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(conceptRulesPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return rulesFS.ReadFile("concept_rules.yaml")
}

func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.New("no rules defined")
	}
	seen := map[string]bool{}
	for _, r := range rules {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			return errors.New("rule category is required")
		}
		if seen[name] {
			return fmt.Errorf("duplicate category: %s", name)
		}
		seen[name] = true
		if len(r.Keywords) == 0 {
			return fmt.Errorf("category %s: no keywords", name)
		}
		if r.Priority <= 0 {
			return fmt.Errorf("category %s: priority must be positive", name)
		}
	}
	return nil
}

// Extract ranks categories for the given subject and text. Subject tokens
// weigh double; ties keep rule-table order. limit <= 0 means all matches.
func (e *Extractor) Extract(subject, text string, limit int) []Match {
	textTokens := tokenize(text)
	subjTokens := tokenize(subject)
	lowText := strings.ToLower(text)
	lowSubj := strings.ToLower(subject)

	var out []Match
	for _, r := range e.rules {
		score := 0
		var hit []string
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			var n int
			if strings.ContainsRune(kw, ' ') {
				n = strings.Count(lowText, kw) + 2*strings.Count(lowSubj, kw)
			} else {
				n = textTokens[kw] + 2*subjTokens[kw]
			}
			if n > 0 {
				score += n * r.Priority
				hit = append(hit, kw)
			}
		}
		if score > 0 {
			out = append(out, Match{Category: r.Category, Score: score, Keywords: hit})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Primary returns the top category, or "default" when nothing matches.
func (e *Extractor) Primary(subject, text string) string {
	if m := e.Extract(subject, text, 1); len(m) > 0 {
		return m[0].Category
	}
	return "default"
}

func tokenize(s string) map[string]int {
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		counts[tok]++
	}
	return counts
}
