package layout

import (
	"fmt"

	"github.com/menttor/menttor-backend/internal/doc/blocks"
)

// engineState is the pagination controller state. writingPage lays blocks
// onto the current page; pageBreak is the transient state entered when the
// next block's estimate does not fit, resolved by allocating a fresh page.
type engineState int

const (
	writingPage engineState = iota
	pageBreak
)

// Engine paginates one block sequence onto a canvas. An Engine serves a
// single export invocation: it owns the cursor from the first block until the
// deferred footers are stamped, and is not shared or reused.
type Engine struct {
	canvas Canvas
	m      Metrics
	header string
	state  engineState
	cursor float64
}

// NewEngine wires a canvas and page geometry. header, when non-empty, is
// stamped in the top margin of every page.
func NewEngine(c Canvas, m Metrics, header string) *Engine {
	return &Engine{canvas: c, m: m, header: header}
}

// Render lays out all blocks and then stamps "Page i of N" footers, deferred
// because N is only known once the last block has been placed. Any drawing
// error aborts the run; the canvas holds partial state afterwards and must be
// discarded rather than written out.
func (e *Engine) Render(content blocks.Content) error {
	e.startPage()
	for _, b := range content {
		est := EstimateHeight(e.canvas, e.m, b, e.m.ContentWidth())
		if e.cursor+est > e.m.ContentBottom() && e.cursor > e.m.MarginTop {
			e.state = pageBreak
			e.startPage()
		}
		next, err := renderBlock(e.canvas, b, e.cursor, e.m)
		if err != nil {
			return fmt.Errorf("render %s block: %w", b.Kind(), err)
		}
		e.cursor = next
	}
	e.stampFooters()
	return e.canvas.Err()
}

// startPage allocates a page, stamps the running header and resets the
// cursor to the top margin.
func (e *Engine) startPage() {
	e.canvas.AddPage()
	if e.header != "" {
		e.canvas.SetFont(fontFamily, "I", headerSize)
		e.canvas.SetTextColor(colorFaint.r, colorFaint.g, colorFaint.b)
		e.canvas.Text(e.m.MarginLeft, e.m.MarginTop-headerGap, e.header)
	}
	e.cursor = e.m.MarginTop
	e.state = writingPage
}

func (e *Engine) stampFooters() {
	n := e.canvas.PageCount()
	e.canvas.SetFont(fontFamily, "", footerSize)
	e.canvas.SetTextColor(colorFaint.r, colorFaint.g, colorFaint.b)
	for i := 1; i <= n; i++ {
		e.canvas.SetPage(i)
		label := fmt.Sprintf("Page %d of %d", i, n)
		x := (e.m.PageWidth - e.canvas.StringWidth(label)) / 2
		e.canvas.Text(x, e.m.PageHeight-e.m.MarginBottom-6, label)
	}
}
