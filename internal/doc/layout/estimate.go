package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/menttor/menttor-backend/internal/doc/blocks"
	"github.com/menttor/menttor-backend/internal/doc/mdtext"
)

// EstimateHeight predicts the vertical space b needs at the given content
// width without drawing anything. Headings, paragraphs and tables measure
// real wrapped lines through the canvas font metrics; boxed blocks and
// placeholders use generous per-character heuristics instead, trading
// accuracy for not laying the box out twice. Estimates may overshoot; they
// must not undershoot badly enough to push content into the footer band.
// Unknown variants estimate to zero.
func EstimateHeight(c Canvas, m Metrics, b blocks.Block, width float64) float64 {
	switch b := b.(type) {
	case *blocks.Heading:
		size := headingSize(b.Level)
		c.SetFont(fontFamily, "B", size)
		lines := wrapText(c, mdtext.Normalize(b.Text), width)
		h := float64(len(lines))*headingLineHeight(size) + headingGap
		if b.Level <= 2 {
			h += headingRuleGap
		}
		return h
	case *blocks.Paragraph:
		c.SetFont(fontFamily, "", bodySize)
		lines := wrapText(c, mdtext.Normalize(b.Text), width)
		return float64(len(lines))*m.LineHeight + paragraphGap
	case *blocks.ProgressiveDisclosure:
		sections := []string{b.KeyIdea, b.Summary, b.FullText}
		if b.VisualURL != "" {
			sections = append(sections, "Visual: "+b.VisualURL)
		}
		return boxEstimate(sections, width)
	case *blocks.ActiveRecall:
		return boxEstimate([]string{"Q: " + b.Question, "A: " + b.Answer}, width)
	case *blocks.ComparisonTable:
		if !b.HasGrid() {
			c.SetFont(fontFamily, "", bodySize)
			n := 0
			for _, item := range b.Items {
				n += len(wrapText(c, "• "+mdtext.Normalize(item), width))
			}
			return float64(n)*m.LineHeight + paragraphGap
		}
		return layoutTable(c, b, width).total() + blockGap
	case *blocks.Callout:
		return boxEstimate([]string{b.Text}, width)
	case *blocks.MermaidDiagram:
		return placeholderBoxH + blockGap
	case *blocks.ThreeDVisualization:
		return placeholderBoxH + blockGap
	default:
		return 0
	}
}

// boxEstimate approximates a rendered box: label line, each non-blank section
// at 0.6 em per rune, plus one slack line so the heuristic stays above what
// the exact layout produces.
func boxEstimate(sections []string, width float64) float64 {
	inner := width - 2*boxPadX
	h := 2*boxPadY + labelSize + labelGap + boxLineHeight
	kept := 0
	for _, s := range sections {
		if strings.TrimSpace(s) == "" {
			continue
		}
		h += approxLines(s, inner, boxTextSize) * boxLineHeight
		kept++
	}
	if kept > 1 {
		h += float64(kept-1) * sectionGap
	}
	return h + blockGap
}

func approxLines(s string, width, size float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	perChar := size * 0.6
	var lines float64
	for _, part := range strings.Split(s, "\n") {
		runes := utf8.RuneCountInString(strings.TrimSpace(part))
		if runes == 0 {
			lines++
			continue
		}
		lines += math.Ceil(float64(runes) * perChar / width)
	}
	return lines
}
