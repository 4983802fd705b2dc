package layout

import (
	"strings"

	"github.com/menttor/menttor-backend/internal/doc/blocks"
	"github.com/menttor/menttor-backend/internal/doc/mdtext"
)

const (
	fontFamily = "Helvetica"

	bodySize    = 11.0
	footerSize  = 9.0
	headerSize  = 9.0
	labelSize   = 9.5
	boxTextSize = 10.5

	boxLineHeight = 13.0
	tableFontSize = 10.0
	tableLineH    = 12.0

	headingGap     = 10.0
	headingRuleGap = 6.0
	ruleOffset     = 3.0
	paragraphGap   = 8.0
	blockGap       = 12.0
	headerGap      = 18.0

	boxPadX    = 10.0
	boxPadY    = 10.0
	labelGap   = 6.0
	sectionGap = 5.0

	tableCellPadX = 4.0
	tableCellPadY = 4.0

	placeholderBoxH        = 100.0
	placeholderDetailLines = 4
)

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 20
	case 2:
		return 16
	case 3:
		return 14
	case 4:
		return 12.5
	case 5:
		return 11.5
	default:
		return 11
	}
}

func headingLineHeight(size float64) float64 { return size * 1.25 }

type rgb struct{ r, g, b int }

var (
	colorHeading         = rgb{15, 23, 42}
	colorBody            = rgb{51, 65, 85}
	colorMuted           = rgb{71, 85, 105}
	colorFaint           = rgb{148, 163, 184}
	colorRule            = rgb{203, 213, 225}
	colorTableHeadFill   = rgb{241, 245, 249}
	colorPlaceholderFill = rgb{248, 250, 252}
)

// calloutFills keys the box background by callout style. Unknown styles use
// the info fill.
var calloutFills = map[blocks.CalloutStyle]rgb{
	blocks.StyleMetaphor: {237, 233, 254},
	blocks.StyleAnalogy:  {204, 251, 241},
	blocks.StyleExample:  {220, 252, 231},
	blocks.StyleWarning:  {254, 243, 199},
	blocks.StyleInfo:     {219, 234, 254},
	blocks.StyleSuccess:  {209, 250, 229},
	blocks.StyleTip:      {254, 249, 195},
}

func calloutFill(style blocks.CalloutStyle) rgb {
	if f, ok := calloutFills[style]; ok {
		return f
	}
	return calloutFills[blocks.StyleInfo]
}

// renderBlock draws b at cursor and returns the advanced cursor. Variants the
// switch does not know are a no-op with the cursor unchanged. The caller has
// already decided the block fits the page, or accepted the overflow.
func renderBlock(c Canvas, b blocks.Block, cursor float64, m Metrics) (float64, error) {
	switch b := b.(type) {
	case *blocks.Heading:
		cursor = renderHeading(c, b, cursor, m)
	case *blocks.Paragraph:
		cursor = renderParagraph(c, b.Text, cursor, m)
	case *blocks.ProgressiveDisclosure:
		sections := []string{b.KeyIdea, b.Summary, b.FullText}
		if b.VisualURL != "" {
			sections = append(sections, "Visual: "+b.VisualURL)
		}
		cursor = renderBox(c, cursor, m, calloutFills[blocks.StyleInfo], "Key Idea", sections)
	case *blocks.ActiveRecall:
		sections := []string{"Q: " + b.Question, "A: " + b.Answer}
		cursor = renderBox(c, cursor, m, calloutFills[blocks.StyleTip], "Active Recall", sections)
	case *blocks.ComparisonTable:
		cursor = renderTable(c, b, cursor, m)
	case *blocks.Callout:
		label := string(b.Style)
		if !b.Style.Known() {
			label = string(blocks.StyleInfo)
		}
		cursor = renderBox(c, cursor, m, calloutFill(b.Style), label, []string{b.Text})
	case *blocks.MermaidDiagram:
		cursor = renderPlaceholder(c, "Mermaid diagram", "Shown interactively in the app; not included in the PDF export.", cursor, m)
	case *blocks.ThreeDVisualization:
		cursor = renderPlaceholder(c, "3D visualization", b.Description, cursor, m)
	}
	return cursor, c.Err()
}

func renderHeading(c Canvas, h *blocks.Heading, y float64, m Metrics) float64 {
	size := headingSize(h.Level)
	lh := headingLineHeight(size)
	c.SetFont(fontFamily, "B", size)
	c.SetTextColor(colorHeading.r, colorHeading.g, colorHeading.b)
	for _, ln := range wrapText(c, mdtext.Normalize(h.Text), m.ContentWidth()) {
		c.Text(m.MarginLeft, y+size, ln)
		y += lh
	}
	if h.Level <= 2 {
		c.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
		c.Line(m.MarginLeft, y+ruleOffset, m.PageWidth-m.MarginRight, y+ruleOffset)
		y += headingRuleGap
	}
	return y + headingGap
}

func renderParagraph(c Canvas, text string, y float64, m Metrics) float64 {
	c.SetFont(fontFamily, "", bodySize)
	c.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	for _, ln := range wrapText(c, mdtext.Normalize(text), m.ContentWidth()) {
		c.Text(m.MarginLeft, y+bodySize, ln)
		y += m.LineHeight
	}
	return y + paragraphGap
}

// renderBox draws a filled box holding an uppercase label line and one or
// more normalized text sections with fixed internal padding.
func renderBox(c Canvas, y float64, m Metrics, fill rgb, label string, sections []string) float64 {
	width := m.ContentWidth()
	inner := width - 2*boxPadX

	c.SetFont(fontFamily, "", boxTextSize)
	var wrapped [][]string
	total := 0
	for _, s := range sections {
		s = mdtext.Normalize(s)
		if s == "" {
			continue
		}
		ls := wrapText(c, s, inner)
		wrapped = append(wrapped, ls)
		total += len(ls)
	}

	boxH := 2*boxPadY + labelSize + labelGap + float64(total)*boxLineHeight
	if len(wrapped) > 1 {
		boxH += float64(len(wrapped)-1) * sectionGap
	}

	c.SetFillColor(fill.r, fill.g, fill.b)
	c.Rect(m.MarginLeft, y, width, boxH, "F")

	ty := y + boxPadY
	c.SetFont(fontFamily, "B", labelSize)
	c.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
	c.Text(m.MarginLeft+boxPadX, ty+labelSize, strings.ToUpper(label))
	ty += labelSize + labelGap

	c.SetFont(fontFamily, "", boxTextSize)
	c.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	for i, ls := range wrapped {
		if i > 0 {
			ty += sectionGap
		}
		for _, ln := range ls {
			c.Text(m.MarginLeft+boxPadX, ty+boxTextSize, ln)
			ty += boxLineHeight
		}
	}
	return y + boxH + blockGap
}

func renderTable(c Canvas, t *blocks.ComparisonTable, y float64, m Metrics) float64 {
	if !t.HasGrid() {
		return renderItemList(c, t.Items, y, m)
	}
	tl := layoutTable(c, t, m.ContentWidth())

	c.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	c.SetFillColor(colorTableHeadFill.r, colorTableHeadFill.g, colorTableHeadFill.b)
	c.SetTextColor(colorHeading.r, colorHeading.g, colorHeading.b)
	c.SetFont(fontFamily, "B", tableFontSize)
	y = renderTableRow(c, tl.header, y, m.MarginLeft, tl.colWidth, tl.headerH, "FD")

	c.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	c.SetFont(fontFamily, "", tableFontSize)
	for i, row := range tl.rows {
		y = renderTableRow(c, row, y, m.MarginLeft, tl.colWidth, tl.bodyH[i], "D")
	}
	return y + blockGap
}

func renderTableRow(c Canvas, cells [][]string, y, x0, colW, rowH float64, rectStyle string) float64 {
	for ci, lines := range cells {
		x := x0 + float64(ci)*colW
		c.Rect(x, y, colW, rowH, rectStyle)
		ty := y + tableCellPadY
		for _, ln := range lines {
			c.Text(x+tableCellPadX, ty+tableFontSize, ln)
			ty += tableLineH
		}
	}
	return y + rowH
}

func renderItemList(c Canvas, items []string, y float64, m Metrics) float64 {
	c.SetFont(fontFamily, "", bodySize)
	c.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	for _, item := range items {
		for _, ln := range wrapText(c, "• "+mdtext.Normalize(item), m.ContentWidth()) {
			c.Text(m.MarginLeft, y+bodySize, ln)
			y += m.LineHeight
		}
	}
	return y + paragraphGap
}

// renderPlaceholder draws the degraded stand-in for content that only exists
// interactively (diagrams, 3D scenes).
func renderPlaceholder(c Canvas, title, detail string, y float64, m Metrics) float64 {
	width := m.ContentWidth()
	c.SetFillColor(colorPlaceholderFill.r, colorPlaceholderFill.g, colorPlaceholderFill.b)
	c.SetDrawColor(colorFaint.r, colorFaint.g, colorFaint.b)
	c.Rect(m.MarginLeft, y, width, placeholderBoxH, "FD")

	c.SetFont(fontFamily, "B", boxTextSize)
	c.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
	c.Text(m.MarginLeft+boxPadX, y+boxPadY+boxTextSize, title)

	c.SetFont(fontFamily, "I", labelSize)
	lines := wrapText(c, mdtext.Normalize(detail), width-2*boxPadX)
	if len(lines) > placeholderDetailLines {
		lines = lines[:placeholderDetailLines]
	}
	ty := y + boxPadY + boxTextSize + labelGap
	for _, ln := range lines {
		c.Text(m.MarginLeft+boxPadX, ty+labelSize, ln)
		ty += boxLineHeight
	}
	return y + placeholderBoxH + blockGap
}

// tableLayout is the resolved geometry of a grid table at a given width:
// equal column widths, row heights driven by the tallest wrapped cell.
type tableLayout struct {
	colWidth float64
	header   [][]string
	headerH  float64
	rows     [][][]string
	bodyH    []float64
}

func (tl tableLayout) total() float64 {
	h := tl.headerH
	for _, rh := range tl.bodyH {
		h += rh
	}
	return h
}

func layoutTable(c Canvas, t *blocks.ComparisonTable, width float64) tableLayout {
	cols := len(t.Headers)
	tl := tableLayout{colWidth: width / float64(cols)}
	inner := tl.colWidth - 2*tableCellPadX

	c.SetFont(fontFamily, "B", tableFontSize)
	tl.header = make([][]string, cols)
	maxLines := 1
	for i, cell := range t.Headers {
		ls := wrapText(c, mdtext.Normalize(cell), inner)
		tl.header[i] = ls
		if len(ls) > maxLines {
			maxLines = len(ls)
		}
	}
	tl.headerH = float64(maxLines)*tableLineH + 2*tableCellPadY

	c.SetFont(fontFamily, "", tableFontSize)
	for _, row := range t.Rows {
		cells := make([][]string, cols)
		maxLines = 1
		for ci := 0; ci < cols; ci++ {
			var cell string
			if ci < len(row) {
				cell = row[ci]
			}
			ls := wrapText(c, mdtext.Normalize(cell), inner)
			cells[ci] = ls
			if len(ls) > maxLines {
				maxLines = len(ls)
			}
		}
		tl.rows = append(tl.rows, cells)
		tl.bodyH = append(tl.bodyH, float64(maxLines)*tableLineH+2*tableCellPadY)
	}
	return tl
}
