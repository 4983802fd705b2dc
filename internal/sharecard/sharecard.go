// Package sharecard draws the social share images for a learning doc: a
// 1200x630 card for link previews and a 1080x1080 square for feeds. The
// background palette is keyed by the doc's concept category.
package sharecard

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

const (
	CardWidth  = 1200
	CardHeight = 630
	SquareSize = 1080

	margin   = 64.0
	ribbonH  = 14.0
	brandTag = "MENTTOR"
)

// Card is everything the renderer needs about one doc.
type Card struct {
	Subject    string
	Subtopic   string
	Category   string
	Progress   float64 // 0..1
	StreakDays int
	XP         int
}

type Palette struct {
	BG     color.NRGBA
	Accent color.NRGBA
	Text   color.NRGBA
}

type Renderer struct {
	log     *logger.Logger
	palette map[string]Palette

	titleFace font.Face
	bodyFace  font.Face
	smallFace font.Face
}

func NewRenderer(log *logger.Logger) (*Renderer, error) {
	rendererLog := log.With("service", "ShareCardRenderer")

	colorsJSONPath := os.Getenv("SHARECARD_COLORS_JSON_PATH")
	if strings.TrimSpace(colorsJSONPath) == "" {
		return nil, fmt.Errorf("Env var SHARECARD_COLORS_JSON_PATH is empty")
	}
	rendererLog.Info("Loading share card palette...", "path", colorsJSONPath)

	palette, err := loadPalette(colorsJSONPath)
	if err != nil {
		return nil, fmt.Errorf("could not load share card palette: %w", err)
	}

	fontPath := os.Getenv("SHARECARD_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("Env var SHARECARD_FONT is empty")
	}
	rendererLog.Info("Loading share card font", "font", fontPath)

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}

	return &Renderer{
		log:       rendererLog,
		palette:   palette,
		titleFace: newFace(parsedFont, 68),
		bodyFace:  newFace(parsedFont, 40),
		smallFace: newFace(parsedFont, 28),
	}, nil
}

// RenderCard draws the 1200x630 link-preview variant.
func (r *Renderer) RenderCard(c Card) (bytes.Buffer, error) {
	return r.render(c, CardWidth, CardHeight)
}

// RenderSquare draws the 1080x1080 feed variant.
func (r *Renderer) RenderSquare(c Card) (bytes.Buffer, error) {
	return r.render(c, SquareSize, SquareSize)
}

func (r *Renderer) render(c Card, w, h int) (bytes.Buffer, error) {
	var buf bytes.Buffer

	pal := r.paletteFor(c.Category)
	fw, fh := float64(w), float64(h)

	dc := gg.NewContext(w, h)

	// Background
	dc.SetColor(pal.BG)
	dc.DrawRectangle(0, 0, fw, fh)
	dc.Fill()

	// Accent motif in the top-right corner
	dc.SetRGBA255(int(pal.Accent.R), int(pal.Accent.G), int(pal.Accent.B), 28)
	dc.DrawCircle(fw-90, 70, fw/4.5)
	dc.Fill()

	// Brand tag
	dc.SetFontFace(r.smallFace)
	dc.SetColor(pal.Accent)
	dc.DrawString(brandTag, margin, margin+24)

	// Subject / subtopic
	maxTextW := fw - 2*margin
	dc.SetFontFace(r.titleFace)
	dc.SetColor(pal.Text)
	dc.DrawString(fitString(dc, c.Subject, maxTextW), margin, fh*0.45)

	if sub := strings.TrimSpace(c.Subtopic); sub != "" {
		dc.SetFontFace(r.bodyFace)
		dc.SetRGBA255(int(pal.Text.R), int(pal.Text.G), int(pal.Text.B), 200)
		dc.DrawString(fitString(dc, sub, maxTextW), margin, fh*0.45+60)
	}

	// Streak / XP line and progress percentage above the ribbon
	ribbonY := fh - 88
	footerY := ribbonY - 28

	dc.SetFontFace(r.smallFace)
	if footer := footerLine(c); footer != "" {
		dc.SetRGBA255(int(pal.Text.R), int(pal.Text.G), int(pal.Text.B), 220)
		dc.DrawString(footer, margin, footerY)
	}

	progress := clamp01(c.Progress)
	pct := fmt.Sprintf("%d%%", int(math.Round(progress*100)))
	pctW, _ := dc.MeasureString(pct)
	dc.SetColor(pal.Accent)
	dc.DrawString(pct, fw-margin-pctW, footerY)

	// Progress ribbon: faint track, solid fill
	trackW := fw - 2*margin
	dc.SetRGBA255(int(pal.Accent.R), int(pal.Accent.G), int(pal.Accent.B), 64)
	dc.DrawRoundedRectangle(margin, ribbonY, trackW, ribbonH, ribbonH/2)
	dc.Fill()

	if fillW := trackW * progress; fillW >= ribbonH {
		dc.SetColor(pal.Accent)
		dc.DrawRoundedRectangle(margin, ribbonY, fillW, ribbonH, ribbonH/2)
		dc.Fill()
	}

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (r *Renderer) paletteFor(category string) Palette {
	key := strings.ToLower(strings.TrimSpace(category))
	if pal, ok := r.palette[key]; ok {
		return pal
	}
	return r.palette["default"]
}

func footerLine(c Card) string {
	parts := make([]string, 0, 2)
	if c.StreakDays > 0 {
		parts = append(parts, fmt.Sprintf("%d-day streak", c.StreakDays))
	}
	if c.XP > 0 {
		parts = append(parts, fmt.Sprintf("%d XP", c.XP))
	}
	return strings.Join(parts, "  •  ")
}

// fitString trims s until it fits maxW with the context's current face.
func fitString(dc *gg.Context, s string, maxW float64) string {
	s = strings.TrimSpace(s)
	if w, _ := dc.MeasureString(s); w <= maxW {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + "..."
		if w, _ := dc.MeasureString(candidate); w <= maxW {
			return candidate
		}
	}
	return "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// -------------------- Palette loading --------------------

type paletteEntry struct {
	BG     string `json:"bg"`
	Accent string `json:"accent"`
	Text   string `json:"text"`
}

func loadPalette(jsonPath string) (map[string]Palette, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var raw map[string]paletteEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}

	palette := make(map[string]Palette, len(raw))
	for key, entry := range raw {
		pal, err := parsePalette(entry)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", key, err)
		}
		palette[strings.ToLower(strings.TrimSpace(key))] = pal
	}
	if _, ok := palette["default"]; !ok {
		return nil, fmt.Errorf("palette is missing the %q entry", "default")
	}
	return palette, nil
}

func parsePalette(entry paletteEntry) (Palette, error) {
	bg, err := parseHexColor(entry.BG)
	if err != nil {
		return Palette{}, fmt.Errorf("bg: %w", err)
	}
	accent, err := parseHexColor(entry.Accent)
	if err != nil {
		return Palette{}, fmt.Errorf("accent: %w", err)
	}
	text := color.NRGBA{R: 0xF8, G: 0xFA, B: 0xFC, A: 0xFF}
	if strings.TrimSpace(entry.Text) != "" {
		if text, err = parseHexColor(entry.Text); err != nil {
			return Palette{}, fmt.Errorf("text: %w", err)
		}
	}
	return Palette{BG: bg, Accent: accent, Text: text}, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return color.NRGBA{}, fmt.Errorf("invalid hex")
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
