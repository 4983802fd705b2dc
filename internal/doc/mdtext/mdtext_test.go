package mdtext

import (
	"strings"
	"testing"
)

func TestNormalizeStripsInlineMarkup(t *testing.T) {
	got := Normalize("**Bold** text with `code`.")
	if got != "Bold text with code." {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeMarkdownStructure(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading collapses", "## Section Two\n\nBody text.", "Section Two\n\nBody text."},
		{"link keeps text", "Compare [limits](https://example.com/limits) here.", "Compare limits here."},
		{"image keeps alt", "![graph of x](https://cdn.example.com/x.png)", "graph of x"},
		{"autolink keeps url", "<https://example.com>", "https://example.com"},
		{"bullets", "- first\n- second", "• first\n• second"},
		{"numbered", "1. one\n1. two", "1. one\n2. two"},
		{"numbered offset", "3. three\n4. four", "3. three\n4. four"},
		{"blockquote unwrapped", "> Quoted advice.", "Quoted advice."},
		{"thematic break dropped", "before\n\n---\n\nafter", "before\n\nafter"},
		{"emphasis nested", "*really **important*** point", "really important point"},
		{"stray delimiters", "~~struck~~ and **unclosed", "struck and unclosed"},
		{"code span markup stripped", "Inline `code **with** stars` here.", "Inline code with stars here."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeLaTeX(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`The fraction \frac{dy}{dx} measures change.`, "The fraction dy/dx measures change."},
		{`\sqrt{16} = 4`, "√(16) = 4"},
		{`$E = mc^2$`, "E = mc²"},
		{`\alpha, \beta, \pi, \Omega`, "α, β, π, Ω"},
		{`x \leq y and y \geq z and a \neq b`, "x ≤ y and y ≥ z and a ≠ b"},
		{`a \pm b \times c \cdot d \approx e`, "a ± b × c · d ≈ e"},
		{`\infty and \hbar`, "∞ and ℏ"},
		{`f: A \rightarrow B`, "f: A → B"},
		{`x_1 + x_2`, "x₁ + x₂"},
		{`x^{10} and y^n`, "x¹⁰ and yⁿ"},
		{`\frac{\sqrt{2}}{2}`, "√(2)/2"},
		{`$$\int x dx$$`, "∫ x dx"},
		{`\text{speed} = \frac{d}{t}`, "speed = d/t"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeUnknownMacroPassesThrough(t *testing.T) {
	in := `\unknowncmd{arg} stays`
	if got := Normalize(in); got != in {
		t.Fatalf("got %q, want input unchanged", got)
	}
}

func TestNormalizeDollarAmountsUntouched(t *testing.T) {
	in := "$5 and $6 prices"
	if got := Normalize(in); got != in {
		t.Fatalf("got %q, want input unchanged", got)
	}
}

func TestNormalizeCodeFence(t *testing.T) {
	in := "```go\nx := 1\n\ny := 2\n```"
	want := "[Code Block (go)]\n\n    x := 1\n\n    y := 2"
	got := Normalize(in)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	in = "```\nplain\n```"
	if got := Normalize(in); got != "[Code Block]\n\n    plain" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeCodeKeepsInteriorSpacing(t *testing.T) {
	in := "```python\ndef f(x):\n    return x  **  2\n```"
	got := Normalize(in)
	if !strings.Contains(got, "    def f(x):\n        return x  **  2") {
		t.Fatalf("code body was rewritten: %q", got)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := Normalize("a\n\n\n\n\nb"); got != "a\n\nb" {
		t.Fatalf("blank runs: got %q", got)
	}
	if got := Normalize("Mixed  spaces\tand tabs."); got != "Mixed spaces and tabs." {
		t.Fatalf("space runs: got %q", got)
	}
}

func TestNormalizeTotal(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "**", "`", "~~"} {
		if got := Normalize(in); got != "" {
			t.Fatalf("Normalize(%q) = %q, want empty", in, got)
		}
	}
	// Never panics on lone syntax fragments.
	for _, in := range []string{"$", `\`, "[", "](", "^", "_"} {
		_ = Normalize(in)
	}
}

var idempotenceCorpus = []string{
	"# Calculus\n\nThe **derivative** of $f(x) = x^2$ is $f'(x) = 2x$.",
	"- first\n- second\n  - nested\n\n1. one\n2. two",
	"```python\ndef f(x):\n    return x**2\n```",
	"Compare [limits](https://example.com/limits) with *continuity*.",
	"> Note: \\frac{a}{b} inside a quote.\n\nMore text.\n\n\n\nAfter many blanks.",
	"Already plain • bullet text\n\n√(2)/2 stays.",
	"Mixed  spaces\tand tabs on one line.",
	"\\alpha + \\beta \\rightarrow \\gamma, x_1 \\neq x_2, \\unknown{stays}",
	"Text with unmatched **bold and a stray ` tick",
	"Line one\nline two with a soft break.",
	"A paragraph.\n\n    indented code line\n    second code line\n\nAfter.",
	"3. an offset\n4. ordered list",
	"Inline `code **with** stars` kept literally.",
}

func TestNormalizeIdempotent(t *testing.T) {
	for i, in := range idempotenceCorpus {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("corpus[%d] not idempotent:\n in: %q\n 1x: %q\n 2x: %q", i, in, once, twice)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Derivatives & Limits", "derivatives-limits"},
		{"  The Chain Rule!  ", "the-chain-rule"},
		{"", ""},
		{"---", ""},
		{strings.Repeat("very-long-title-", 10), "very-long-title-very-long-title-very-long-title-very-long-title"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
