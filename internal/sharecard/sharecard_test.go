package sharecard

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

var (
	testDefaultBG  = color.NRGBA{R: 0x0F, G: 0x17, B: 0x2A, A: 0xFF}
	testMathBG     = color.NRGBA{R: 0x1E, G: 0x3A, B: 0x8A, A: 0xFF}
	testMathAccent = color.NRGBA{R: 0x60, G: 0xA5, B: 0xFA, A: 0xFF}
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	text := color.NRGBA{R: 0xF8, G: 0xFA, B: 0xFC, A: 0xFF}
	return &Renderer{
		log: log,
		palette: map[string]Palette{
			"default":     {BG: testDefaultBG, Accent: color.NRGBA{R: 0x38, G: 0xBD, B: 0xF8, A: 0xFF}, Text: text},
			"mathematics": {BG: testMathBG, Accent: testMathAccent, Text: text},
		},
		titleFace: basicfont.Face7x13,
		bodyFace:  basicfont.Face7x13,
		smallFace: basicfont.Face7x13,
	}
}

func decodePNG(t *testing.T, buf bytes.Buffer) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func rgbEqual(a, b color.NRGBA) bool {
	return a.R == b.R && a.G == b.G && a.B == b.B
}

// columnHasColor scans the bottom half of one pixel column for an exact
// color match, so the test does not hard-code ribbon coordinates.
func columnHasColor(img image.Image, x int, want color.NRGBA) bool {
	b := img.Bounds()
	for y := b.Dy() / 2; y < b.Dy(); y++ {
		if rgbEqual(pixelAt(img, x, y), want) {
			return true
		}
	}
	return false
}

func TestRenderCardUsesCategoryPalette(t *testing.T) {
	r := testRenderer(t)
	buf, err := r.RenderCard(Card{
		Subject:    "Calculus",
		Subtopic:   "Derivatives and limits",
		Category:   "mathematics",
		Progress:   1,
		StreakDays: 12,
		XP:         450,
	})
	if err != nil {
		t.Fatalf("RenderCard: %v", err)
	}
	img := decodePNG(t, buf)

	b := img.Bounds()
	if b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Fatalf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), CardWidth, CardHeight)
	}
	if got := pixelAt(img, 2, 2); !rgbEqual(got, testMathBG) {
		t.Fatalf("background pixel = %+v, want %+v", got, testMathBG)
	}
	if !columnHasColor(img, CardWidth/2, testMathAccent) {
		t.Fatal("full progress should paint the ribbon in the accent color")
	}
}

func TestRenderSquareFallsBackToDefaultPalette(t *testing.T) {
	r := testRenderer(t)
	buf, err := r.RenderSquare(Card{Subject: "Astro-botany", Category: "astro-botany", Progress: 0.4})
	if err != nil {
		t.Fatalf("RenderSquare: %v", err)
	}
	img := decodePNG(t, buf)

	b := img.Bounds()
	if b.Dx() != SquareSize || b.Dy() != SquareSize {
		t.Fatalf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), SquareSize, SquareSize)
	}
	if got := pixelAt(img, 2, 2); !rgbEqual(got, testDefaultBG) {
		t.Fatalf("background pixel = %+v, want default bg %+v", got, testDefaultBG)
	}
}

func TestZeroProgressPaintsNoFill(t *testing.T) {
	r := testRenderer(t)
	buf, err := r.RenderCard(Card{Subject: "Calculus", Category: "mathematics", Progress: 0})
	if err != nil {
		t.Fatalf("RenderCard: %v", err)
	}
	img := decodePNG(t, buf)
	if columnHasColor(img, CardWidth/2, testMathAccent) {
		t.Fatal("zero progress should leave only the faint track, no solid fill")
	}
}

func TestPaletteForNormalizesAndFallsBack(t *testing.T) {
	r := testRenderer(t)
	if got := r.paletteFor("  Mathematics "); !rgbEqual(got.BG, testMathBG) {
		t.Fatalf("paletteFor(Mathematics).BG = %+v", got.BG)
	}
	if got := r.paletteFor("underwater basket weaving"); !rgbEqual(got.BG, testDefaultBG) {
		t.Fatalf("unknown category should use default, got BG %+v", got.BG)
	}
}

func TestLoadPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	payload := `{
		"default":      {"bg": "#0F172A", "accent": "#38BDF8"},
		" Mathematics ": {"bg": "#1E3A8A", "accent": "#60A5FA", "text": "#EFF6FF"}
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write palette: %v", err)
	}

	palette, err := loadPalette(path)
	if err != nil {
		t.Fatalf("loadPalette: %v", err)
	}
	mathPal, ok := palette["mathematics"]
	if !ok {
		t.Fatalf("keys should be normalized, got %v", palette)
	}
	if mathPal.Text.R != 0xEF || mathPal.Text.G != 0xF6 || mathPal.Text.B != 0xFF {
		t.Fatalf("text color = %+v", mathPal.Text)
	}
	if def := palette["default"]; def.Text.R != 0xF8 || def.Text.G != 0xFA || def.Text.B != 0xFC {
		t.Fatalf("omitted text should default to near-white, got %+v", def.Text)
	}
}

func TestLoadPaletteRequiresDefaultEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	if err := os.WriteFile(path, []byte(`{"mathematics": {"bg": "#1E3A8A", "accent": "#60A5FA"}}`), 0o600); err != nil {
		t.Fatalf("write palette: %v", err)
	}
	if _, err := loadPalette(path); err == nil {
		t.Fatal("expected error for palette without a default entry")
	}
}

func TestLoadPaletteRejectsBadHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	if err := os.WriteFile(path, []byte(`{"default": {"bg": "blue", "accent": "#60A5FA"}}`), 0o600); err != nil {
		t.Fatalf("write palette: %v", err)
	}
	if _, err := loadPalette(path); err == nil {
		t.Fatal("expected error for non-hex color")
	}
}

func TestParseHexColor(t *testing.T) {
	got, err := parseHexColor("#1E3A8A")
	if err != nil {
		t.Fatalf("parseHexColor: %v", err)
	}
	if got.R != 0x1E || got.G != 0x3A || got.B != 0x8A || got.A != 0xFF {
		t.Fatalf("got %+v", got)
	}
	if _, err := parseHexColor("60A5FA"); err != nil {
		t.Fatalf("bare hex should parse: %v", err)
	}
	if _, err := parseHexColor("#XYZ123"); err == nil {
		t.Fatal("expected error for invalid hex digits")
	}
	if _, err := parseHexColor("#FFF"); err == nil {
		t.Fatal("expected error for short hex")
	}
}

func TestFitStringTruncates(t *testing.T) {
	dc := gg.NewContext(10, 10)
	dc.SetFontFace(basicfont.Face7x13)

	long := strings.Repeat("abcdefgh ", 10)
	maxW := 100.0
	got := fitString(dc, long, maxW)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated string should end with ellipsis, got %q", got)
	}
	if w, _ := dc.MeasureString(got); w > maxW {
		t.Fatalf("fitted width %.1f exceeds max %.1f", w, maxW)
	}
	if len(got) >= len(long) {
		t.Fatal("fitted string should be shorter than the input")
	}

	if got := fitString(dc, "short", maxW); got != "short" {
		t.Fatalf("short string should pass through, got %q", got)
	}
}

func TestNewRendererRequiresEnv(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	t.Setenv("SHARECARD_COLORS_JSON_PATH", "")
	t.Setenv("SHARECARD_FONT", "")
	if _, err := NewRenderer(log); err == nil || !strings.Contains(err.Error(), "SHARECARD_COLORS_JSON_PATH") {
		t.Fatalf("expected missing palette path error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "colors.json")
	if err := os.WriteFile(path, []byte(`{"default": {"bg": "#0F172A", "accent": "#38BDF8"}}`), 0o600); err != nil {
		t.Fatalf("write palette: %v", err)
	}
	t.Setenv("SHARECARD_COLORS_JSON_PATH", path)
	if _, err := NewRenderer(log); err == nil || !strings.Contains(err.Error(), "SHARECARD_FONT") {
		t.Fatalf("expected missing font error, got %v", err)
	}
}
