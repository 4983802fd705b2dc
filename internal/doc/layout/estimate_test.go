package layout

import (
	"strings"
	"testing"

	"github.com/menttor/menttor-backend/internal/doc/blocks"
)

// Headings, paragraphs and tables share the exact wrapping math between
// estimate and render, so the two must agree to the point.
func TestEstimateMatchesRenderForMeasuredBlocks(t *testing.T) {
	m := A4()
	cases := []struct {
		name  string
		block blocks.Block
	}{
		{"heading underlined", &blocks.Heading{Level: 1, Text: strings.Repeat("Long Heading Words ", 6)}},
		{"heading plain", &blocks.Heading{Level: 3, Text: "Short"}},
		{"paragraph", &blocks.Paragraph{Text: strings.Repeat("normalized body copy with several words ", 8)}},
		{"grid table", &blocks.ComparisonTable{
			Headers: []string{"Concept", "Description"},
			Rows: [][]string{
				{"Limit", strings.Repeat("what a function approaches ", 4)},
				{"Slope", "rise over run"},
			},
		}},
		{"item list", &blocks.ComparisonTable{Items: []string{"one-sided", strings.Repeat("a longer item that will wrap onto more lines ", 3)}}},
	}
	for _, tc := range cases {
		fc := newFakeCanvas()
		fc.AddPage()
		est := EstimateHeight(fc, m, tc.block, m.ContentWidth())
		next, err := renderBlock(fc, tc.block, m.MarginTop, m)
		if err != nil {
			t.Fatalf("%s: renderBlock: %v", tc.name, err)
		}
		if delta := next - m.MarginTop; !approx(est, delta) {
			t.Fatalf("%s: estimate %v, rendered %v", tc.name, est, delta)
		}
	}
}

// Boxed blocks and placeholders estimate heuristically; the estimate may
// overshoot but never land under the rendered height, otherwise content
// would spill into the footer band.
func TestEstimateCoversRenderedHeight(t *testing.T) {
	m := A4()
	cases := []struct {
		name  string
		block blocks.Block
	}{
		{"disclosure", &blocks.ProgressiveDisclosure{
			KeyIdea:   "Derivatives measure instantaneous change",
			Summary:   strings.Repeat("summary sentence with plain words ", 5),
			FullText:  strings.Repeat("the full explanation goes on for a while ", 7),
			VisualURL: "https://cdn.example.com/derivative.png",
		}},
		{"recall", &blocks.ActiveRecall{
			Question: strings.Repeat("what does the limit definition say ", 4),
			Answer:   strings.Repeat("it formalizes approach without arrival ", 4),
		}},
		{"callout", &blocks.Callout{Style: blocks.StyleAnalogy, Text: strings.Repeat("like a speedometer read at one instant ", 5)}},
		{"callout single word", &blocks.Callout{Style: blocks.StyleTip, Text: strings.Repeat("x", 120)}},
		{"mermaid", &blocks.MermaidDiagram{Chart: "graph TD; A-->B"}},
		{"threed", &blocks.ThreeDVisualization{Description: "an interactive surface plot of z = x*y"}},
	}
	for _, tc := range cases {
		fc := newFakeCanvas()
		fc.AddPage()
		est := EstimateHeight(fc, m, tc.block, m.ContentWidth())
		next, err := renderBlock(fc, tc.block, m.MarginTop, m)
		if err != nil {
			t.Fatalf("%s: renderBlock: %v", tc.name, err)
		}
		if delta := next - m.MarginTop; est < delta-0.01 {
			t.Fatalf("%s: estimate %v under rendered height %v", tc.name, est, delta)
		}
	}
}

func TestEstimateGrowsWithText(t *testing.T) {
	m := A4()
	fc := newFakeCanvas()
	short := EstimateHeight(fc, m, &blocks.Paragraph{Text: "one line"}, m.ContentWidth())
	long := EstimateHeight(fc, m, &blocks.Paragraph{Text: strings.Repeat("many more words here ", 20)}, m.ContentWidth())
	if long <= short {
		t.Fatalf("longer paragraph estimated %v, shorter %v", long, short)
	}
}

func TestEstimateEmptyParagraph(t *testing.T) {
	m := A4()
	fc := newFakeCanvas()
	got := EstimateHeight(fc, m, &blocks.Paragraph{Text: "   "}, m.ContentWidth())
	if want := m.LineHeight + paragraphGap; !approx(got, want) {
		t.Fatalf("empty paragraph estimate %v, want one blank line %v", got, want)
	}
}
