// Package layout paginates decoded learning content onto a drawing canvas.
//
// The pipeline per export: a pagination engine walks the block sequence, asks
// the height estimator for a space budget per block, breaks pages when the
// budget does not fit, dispatches each block to its draw routine, and finally
// revisits every page to stamp "Page i of N" footers once N is known.
package layout

import "io"

// Canvas is the drawing surface the engine renders onto. Coordinates are in
// points with the origin at the top-left of the page; y grows downward and
// text y is the baseline. Implementations keep a current font and current
// colors, set through the Set methods.
type Canvas interface {
	AddPage()
	// SetPage repositions drawing onto an already allocated page (1-based),
	// used to stamp footers after the total page count is known.
	SetPage(page int)
	PageCount() int

	SetFont(family, style string, size float64)
	// StringWidth measures s in the current font.
	StringWidth(s string) float64

	Text(x, y float64, s string)
	// Rect draws a rectangle; style is "D" (stroke), "F" (fill) or "FD".
	Rect(x, y, w, h float64, style string)
	Line(x1, y1, x2, y2 float64)

	SetTextColor(r, g, b int)
	SetFillColor(r, g, b int)
	SetDrawColor(r, g, b int)

	// Err reports the first drawing error the backend recorded, if any.
	Err() error
	// Output writes the finished document.
	Output(w io.Writer) error
}

// Metrics fixes the page geometry for one export. All values are points.
type Metrics struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	// LineHeight is the body text line advance.
	LineHeight float64
	// FooterMargin is the band above the bottom margin reserved for the page
	// footer; content never enters it.
	FooterMargin float64
}

// A4 returns the portrait geometry exports use.
func A4() Metrics {
	return Metrics{
		PageWidth:    595.28,
		PageHeight:   841.89,
		MarginTop:    56,
		MarginBottom: 56,
		MarginLeft:   48,
		MarginRight:  48,
		LineHeight:   14,
		FooterMargin: 24,
	}
}

// ContentWidth is the horizontal space available to blocks.
func (m Metrics) ContentWidth() float64 {
	return m.PageWidth - m.MarginLeft - m.MarginRight
}

// ContentBottom is the lowest y content may reach. The footer band and the
// bottom margin lie below it.
func (m Metrics) ContentBottom() float64 {
	return m.PageHeight - m.MarginBottom - m.FooterMargin
}
