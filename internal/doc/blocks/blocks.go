// Package blocks defines the content model for learning documents: a closed
// tagged union of semantic block types plus the decoder that turns the stored
// JSON array into typed blocks.
//
// Decoding is deliberately lenient. A document authored against a newer block
// vocabulary still decodes; blocks whose type this build does not know are
// dropped and reported back to the caller instead of failing the whole
// document.
package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Block is one semantic unit of learning content. The set of implementations
// is fixed at compile time; consumers dispatch with a type switch and treat
// anything they do not recognize as a no-op.
type Block interface {
	// Kind returns the wire name of the variant, e.g. "paragraph".
	Kind() string

	block()
}

// Content is an ordered block sequence. Order is rendering order.
type Content []Block

// Wire names for the block variants.
const (
	KindHeading               = "heading"
	KindParagraph             = "paragraph"
	KindProgressiveDisclosure = "progressive_disclosure"
	KindActiveRecall          = "active_recall"
	KindComparisonTable       = "comparison_table"
	KindCallout               = "callout"
	KindMermaidDiagram        = "mermaid_diagram"
	Kind3DVisualization       = "3d_visualization"
)

// Heading is a section title. Level 1 is the largest.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Paragraph is a run of body text, possibly containing markdown/LaTeX markup.
type Paragraph struct {
	Text string `json:"text"`
}

// ProgressiveDisclosure presents a key idea and summary before the full
// explanation. VisualURL is optional and points at a supporting figure.
type ProgressiveDisclosure struct {
	KeyIdea   string `json:"key_idea"`
	Summary   string `json:"summary"`
	FullText  string `json:"full_text"`
	VisualURL string `json:"visual_url,omitempty"`
}

// ActiveRecall poses a question before revealing its answer.
type ActiveRecall struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ComparisonTable is either a real grid (Headers plus Rows) or, when the
// generator produced only a flat list, a sequence of Items.
type ComparisonTable struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Items   []string   `json:"items,omitempty"`
}

// HasGrid reports whether the table carries enough structure to render as a
// grid rather than a flat list.
func (t *ComparisonTable) HasGrid() bool {
	return len(t.Headers) > 0 && len(t.Rows) > 0
}

// CalloutStyle selects the visual treatment of a callout box.
type CalloutStyle string

const (
	StyleMetaphor CalloutStyle = "metaphor"
	StyleAnalogy  CalloutStyle = "analogy"
	StyleExample  CalloutStyle = "example"
	StyleWarning  CalloutStyle = "warning"
	StyleInfo     CalloutStyle = "info"
	StyleSuccess  CalloutStyle = "success"
	StyleTip      CalloutStyle = "tip"
)

// Known reports whether s is one of the styles this build renders natively.
// Unknown styles fall back to the info treatment.
func (s CalloutStyle) Known() bool {
	switch s {
	case StyleMetaphor, StyleAnalogy, StyleExample, StyleWarning, StyleInfo, StyleSuccess, StyleTip:
		return true
	}
	return false
}

// Callout is a highlighted aside. Style keys the box color and label.
type Callout struct {
	Text  string       `json:"text"`
	Style CalloutStyle `json:"style"`
}

// MermaidDiagram holds the raw chart text. Interactive rendering happens in
// the client; exports draw a placeholder.
type MermaidDiagram struct {
	Chart string `json:"chart"`
}

// ThreeDVisualization references an interactive 3D scene by description.
// Exports draw a placeholder.
type ThreeDVisualization struct {
	Description string `json:"description"`
}

func (*Heading) Kind() string               { return KindHeading }
func (*Paragraph) Kind() string             { return KindParagraph }
func (*ProgressiveDisclosure) Kind() string { return KindProgressiveDisclosure }
func (*ActiveRecall) Kind() string          { return KindActiveRecall }
func (*ComparisonTable) Kind() string       { return KindComparisonTable }
func (*Callout) Kind() string               { return KindCallout }
func (*MermaidDiagram) Kind() string        { return KindMermaidDiagram }
func (*ThreeDVisualization) Kind() string   { return Kind3DVisualization }

func (*Heading) block()               {}
func (*Paragraph) block()             {}
func (*ProgressiveDisclosure) block() {}
func (*ActiveRecall) block()          {}
func (*ComparisonTable) block()       {}
func (*Callout) block()               {}
func (*MermaidDiagram) block()        {}
func (*ThreeDVisualization) block()   {}

type rawBlock struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var jsonNull = []byte("null")

// Decode parses a stored block array. It fails only on malformed JSON; blocks
// with an unrecognized type are dropped from the result and their type names
// returned in input order so callers can log them.
func Decode(raw []byte) (Content, []string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}
	var rbs []rawBlock
	if err := json.Unmarshal(raw, &rbs); err != nil {
		return nil, nil, fmt.Errorf("decode blocks: %w", err)
	}
	content := make(Content, 0, len(rbs))
	var skipped []string
	for i, rb := range rbs {
		b, err := decodeOne(rb)
		if err != nil {
			return nil, nil, fmt.Errorf("decode block %d (%s): %w", i, rb.Type, err)
		}
		if b == nil {
			skipped = append(skipped, rb.Type)
			continue
		}
		content = append(content, b)
	}
	return content, skipped, nil
}

// decodeOne returns (nil, nil) for unknown types.
func decodeOne(rb rawBlock) (Block, error) {
	var target Block
	switch strings.TrimSpace(rb.Type) {
	case KindHeading:
		target = &Heading{}
	case KindParagraph:
		target = &Paragraph{}
	case KindProgressiveDisclosure:
		target = &ProgressiveDisclosure{}
	case KindActiveRecall:
		target = &ActiveRecall{}
	case KindComparisonTable:
		target = &ComparisonTable{}
	case KindCallout:
		target = &Callout{}
	case KindMermaidDiagram:
		target = &MermaidDiagram{}
	case Kind3DVisualization:
		target = &ThreeDVisualization{}
	default:
		return nil, nil
	}
	if len(rb.Data) > 0 && !bytes.Equal(bytes.TrimSpace(rb.Data), jsonNull) {
		if err := json.Unmarshal(rb.Data, target); err != nil {
			return nil, err
		}
	}
	if c, ok := target.(*Callout); ok {
		c.Style = CalloutStyle(strings.ToLower(strings.TrimSpace(string(c.Style))))
	}
	if h, ok := target.(*Heading); ok {
		if h.Level < 1 {
			h.Level = 1
		} else if h.Level > 6 {
			h.Level = 6
		}
	}
	return target, nil
}
