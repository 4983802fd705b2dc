// Package diagram cleans Mermaid chart text before it reaches the
// client-side renderer. Model output drifts in predictable ways (code
// fences around the chart, unicode arrows, init directives, unquoted
// labels with reserved characters); an ordered rule table repairs each
// drift best-effort and reports which rules fired. Rendering itself
// stays in the client; PDF export draws a placeholder instead.
package diagram

import (
	"regexp"
	"strings"
)

// Result is a sanitized chart plus what was done to it. Notes lists the
// names of the rules that changed the text, in application order.
type Result struct {
	Chart   string   `json:"chart"`
	Kind    string   `json:"kind,omitempty"`
	Changed bool     `json:"changed"`
	Notes   []string `json:"notes,omitempty"`
}

type rule struct {
	name  string
	apply func(string) string
}

// Rule order matters: fences come off before anything inspects lines,
// and arrows are normalized before labels are quoted so the label regex
// never sees a half-rewritten edge.
var rules = []rule{
	{"trim", strings.TrimSpace},
	{"strip_code_fences", stripCodeFences},
	{"strip_invisible_runes", stripInvisibleRunes},
	{"strip_init_directives", stripInitDirectives},
	{"normalize_arrows", normalizeArrows},
	{"quote_labels", quoteLabels},
	{"collapse_blank_lines", collapseBlankLines},
}

// Sanitize runs the scrub rules over chart. Total over strings: empty or
// hopeless input comes back unchanged rather than failing.
func Sanitize(chart string) Result {
	out := chart
	var notes []string
	for _, r := range rules {
		next := r.apply(out)
		if next != out {
			notes = append(notes, r.name)
			out = next
		}
	}
	return Result{
		Chart:   out,
		Kind:    DetectKind(out),
		Changed: len(notes) > 0,
		Notes:   notes,
	}
}

// kinds maps the lowercased first token of a chart to its canonical
// diagram keyword.
var kinds = map[string]string{
	"graph":           "graph",
	"flowchart":       "flowchart",
	"sequencediagram": "sequenceDiagram",
	"classdiagram":    "classDiagram",
	"statediagram":    "stateDiagram",
	"statediagram-v2": "stateDiagram",
	"erdiagram":       "erDiagram",
	"journey":         "journey",
	"gantt":           "gantt",
	"pie":             "pie",
}

// DetectKind returns the canonical diagram keyword of the first
// non-blank line, or "" when the chart does not start with one.
func DetectKind(chart string) string {
	for _, line := range strings.Split(chart, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tok := strings.ToLower(strings.Fields(line)[0])
		return kinds[tok]
	}
	return ""
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	body := lines[1:]
	if strings.TrimSpace(body[len(body)-1]) == "```" {
		body = body[:len(body)-1]
	}
	out := strings.TrimSpace(strings.Join(body, "\n"))
	// A fence language that landed on its own line ("mermaid\ngraph TD").
	if rest, ok := strings.CutPrefix(out, "mermaid\n"); ok {
		out = strings.TrimSpace(rest)
	}
	return out
}

func stripInvisibleRunes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '﻿', '​', '‌', '‍', '⁠':
			return -1
		}
		return r
	}, s)
}

var reInitDirective = regexp.MustCompile(`(?s)%%\{.*?\}%%`)

func stripInitDirectives(s string) string {
	return strings.TrimSpace(reInitDirective.ReplaceAllString(s, ""))
}

var (
	reUnicodeArrow = regexp.MustCompile(`\s*[→⇒⟶]\s*`)
	reLongArrow    = regexp.MustCompile(`-{3,}>`)
	// A bare -> between node-ish characters. Only meaningful for
	// graph/flowchart, where Mermaid requires -->; sequence and state
	// diagrams have their own single-dash edges.
	reShortArrow = regexp.MustCompile(`([A-Za-z0-9\])}"'])\s*->\s*([A-Za-z(\[{"'|])`)
)

func normalizeArrows(s string) string {
	s = reUnicodeArrow.ReplaceAllString(s, " --> ")
	s = reLongArrow.ReplaceAllString(s, "-->")
	switch DetectKind(s) {
	case "graph", "flowchart":
		s = reShortArrow.ReplaceAllString(s, "$1 --> $2")
	}
	return s
}

// reBareLabel matches a square-bracket node label holding characters the
// Mermaid parser chokes on unless the label is quoted. Already-quoted
// labels are excluded by the " in the character class.
var reBareLabel = regexp.MustCompile(`\[([^"\[\]\n]*[(){};:,|][^"\[\]\n]*)\]`)

func quoteLabels(s string) string {
	return reBareLabel.ReplaceAllString(s, `["$1"]`)
}

var reBlankRun = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)

func collapseBlankLines(s string) string {
	return reBlankRun.ReplaceAllString(s, "\n\n")
}
