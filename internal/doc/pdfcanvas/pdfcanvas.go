// Package pdfcanvas adapts gofpdf to the layout.Canvas surface.
//
// Pages are driven entirely by the layout engine: automatic page breaks are
// disabled and the document margins are zeroed so every coordinate the
// engine computes lands on the page untouched. Core fonts are cp1252, so
// text runs through the page's unicode translator; glyphs outside cp1252
// degrade to their closest encodable form.
package pdfcanvas

import (
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDF is a portrait A4 document measured in points.
type PDF struct {
	f  *gofpdf.Fpdf
	tr func(string) string
}

func New(title string) *PDF {
	f := gofpdf.New("P", "pt", "A4", "")
	f.SetAutoPageBreak(false, 0)
	f.SetMargins(0, 0, 0)
	f.SetTitle(title, true)
	f.SetCreator("Menttor", true)
	return &PDF{f: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

func (p *PDF) AddPage()      { p.f.AddPage() }
func (p *PDF) SetPage(n int) { p.f.SetPage(n) }
func (p *PDF) PageCount() int {
	return p.f.PageCount()
}

func (p *PDF) SetFont(family, style string, size float64) {
	p.f.SetFont(family, style, size)
}

func (p *PDF) StringWidth(s string) float64 {
	return p.f.GetStringWidth(p.tr(s))
}

func (p *PDF) Text(x, y float64, s string) {
	p.f.Text(x, y, p.tr(s))
}

func (p *PDF) Rect(x, y, w, h float64, style string) {
	p.f.Rect(x, y, w, h, style)
}

func (p *PDF) Line(x1, y1, x2, y2 float64) {
	p.f.Line(x1, y1, x2, y2)
}

func (p *PDF) SetTextColor(r, g, b int) { p.f.SetTextColor(r, g, b) }
func (p *PDF) SetFillColor(r, g, b int) { p.f.SetFillColor(r, g, b) }
func (p *PDF) SetDrawColor(r, g, b int) { p.f.SetDrawColor(r, g, b) }

func (p *PDF) Err() error { return p.f.Error() }

// Output writes the finished document. Nothing is written when a prior
// drawing call has already failed.
func (p *PDF) Output(w io.Writer) error {
	return p.f.Output(w)
}
