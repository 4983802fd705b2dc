package layout

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// fakeCanvas is a deterministic Canvas for layout tests: every rune measures
// charW points regardless of font, and all draw calls are recorded per page
// so geometry is assertable without decoding a PDF.
type fakeCanvas struct {
	charW     float64
	pages     []*fakePage
	cur       int // 1-based
	font      fakeFont
	texts     int
	failAfter int // when > 0, Text calls beyond this count fail
	err       error
}

type fakeFont struct {
	family, style string
	size          float64
}

type fakeText struct {
	X, Y  float64
	S     string
	Style string
	Size  float64
}

type fakeRect struct {
	X, Y, W, H float64
	Style      string
}

type fakePage struct {
	texts []fakeText
	rects []fakeRect
	lines [][4]float64
}

func newFakeCanvas() *fakeCanvas { return &fakeCanvas{charW: 6} }

func (f *fakeCanvas) AddPage() {
	f.pages = append(f.pages, &fakePage{})
	f.cur = len(f.pages)
}

func (f *fakeCanvas) SetPage(n int) {
	if n >= 1 && n <= len(f.pages) {
		f.cur = n
	}
}

func (f *fakeCanvas) PageCount() int { return len(f.pages) }

func (f *fakeCanvas) SetFont(family, style string, size float64) {
	f.font = fakeFont{family: family, style: style, size: size}
}

func (f *fakeCanvas) StringWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * f.charW
}

func (f *fakeCanvas) page() *fakePage {
	if len(f.pages) == 0 {
		f.AddPage()
	}
	return f.pages[f.cur-1]
}

func (f *fakeCanvas) Text(x, y float64, s string) {
	f.texts++
	if f.failAfter > 0 && f.texts > f.failAfter {
		f.err = errors.New("canvas write failed")
		return
	}
	p := f.page()
	p.texts = append(p.texts, fakeText{X: x, Y: y, S: s, Style: f.font.style, Size: f.font.size})
}

func (f *fakeCanvas) Rect(x, y, w, h float64, style string) {
	p := f.page()
	p.rects = append(p.rects, fakeRect{X: x, Y: y, W: w, H: h, Style: style})
}

func (f *fakeCanvas) Line(x1, y1, x2, y2 float64) {
	p := f.page()
	p.lines = append(p.lines, [4]float64{x1, y1, x2, y2})
}

func (f *fakeCanvas) SetTextColor(r, g, b int) {}
func (f *fakeCanvas) SetFillColor(r, g, b int) {}
func (f *fakeCanvas) SetDrawColor(r, g, b int) {}

func (f *fakeCanvas) Err() error { return f.err }

func (f *fakeCanvas) Output(w io.Writer) error { return f.err }

// pageText joins all strings drawn on page n (1-based) with newlines.
func (f *fakeCanvas) pageText(n int) string {
	if n < 1 || n > len(f.pages) {
		return ""
	}
	parts := make([]string, 0, len(f.pages[n-1].texts))
	for _, t := range f.pages[n-1].texts {
		parts = append(parts, t.S)
	}
	return strings.Join(parts, "\n")
}

// findText returns the first recorded draw whose string contains s, searching
// pages in order.
func (f *fakeCanvas) findText(s string) (fakeText, bool) {
	for _, p := range f.pages {
		for _, t := range p.texts {
			if strings.Contains(t.S, s) {
				return t, true
			}
		}
	}
	return fakeText{}, false
}
