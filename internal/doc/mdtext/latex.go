package mdtext

import (
	"regexp"
	"strings"
)

// The LaTeX pass rewrites a fixed table of macros into Unicode or ASCII
// approximations and drops math delimiters. Anything outside the table passes
// through unchanged; the pass never fails.

var (
	displayMathRe = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	// Inline math requires a non-space character just inside each delimiter so
	// that prose like "$5 and $6" is left alone.
	inlineMathRe = regexp.MustCompile(`\$([^\s$](?:[^$\n]*[^\s$])?)\$`)

	fracBraceRe = regexp.MustCompile(`\\frac\s*\{([^{}]*)\}\s*\{([^{}]*)\}`)
	fracDigitRe = regexp.MustCompile(`\\frac\s*(\d)\s*(\d)`)
	sqrtBraceRe = regexp.MustCompile(`\\sqrt\s*\{([^{}]*)\}`)
	sqrtDigitRe = regexp.MustCompile(`\\sqrt\s*(\d+)`)
	textMacroRe = regexp.MustCompile(`\\(?:text|math[a-z]+)\{([^{}]*)\}`)

	supBraceRe = regexp.MustCompile(`\^\{([0-9n+\-]+)\}`)
	supCharRe  = regexp.MustCompile(`\^([0-9n])`)
	subBraceRe = regexp.MustCompile(`_\{([0-9+\-]+)\}`)
	subCharRe  = regexp.MustCompile(`_([0-9])`)
)

// latexReplacer maps macro names to glyphs. Where one macro name is a prefix
// of another (\rightarrow and \right, \leq and \le) the longer entry must come
// first; strings.Replacer tries patterns in argument order.
var latexReplacer = strings.NewReplacer(
	// arrows before the \left / \right strippers
	"\\leftrightarrow", "↔",
	"\\rightarrow", "→",
	"\\leftarrow", "←",
	"\\Rightarrow", "⇒",
	"\\Leftarrow", "⇐",
	"\\left", "",
	"\\right", "",

	// comparisons, long form first
	"\\leq", "≤",
	"\\le", "≤",
	"\\geq", "≥",
	"\\ge", "≥",
	"\\neq", "≠",
	"\\ne", "≠",
	"\\approx", "≈",

	// operators
	"\\pm", "±",
	"\\mp", "∓",
	"\\times", "×",
	"\\cdot", "·",
	"\\div", "÷",
	"\\infty", "∞",
	"\\hbar", "ℏ",
	"\\ell", "ℓ",
	"\\partial", "∂",
	"\\nabla", "∇",
	"\\int", "∫",
	"\\sum", "∑",
	"\\prod", "∏",
	"\\propto", "∝",
	"\\degree", "°",

	// lowercase Greek
	"\\alpha", "α",
	"\\beta", "β",
	"\\gamma", "γ",
	"\\delta", "δ",
	"\\epsilon", "ε",
	"\\zeta", "ζ",
	"\\eta", "η",
	"\\theta", "θ",
	"\\iota", "ι",
	"\\kappa", "κ",
	"\\lambda", "λ",
	"\\mu", "μ",
	"\\nu", "ν",
	"\\xi", "ξ",
	"\\pi", "π",
	"\\rho", "ρ",
	"\\sigma", "σ",
	"\\tau", "τ",
	"\\upsilon", "υ",
	"\\phi", "φ",
	"\\chi", "χ",
	"\\psi", "ψ",
	"\\omega", "ω",

	// uppercase Greek that differs from Latin
	"\\Gamma", "Γ",
	"\\Delta", "Δ",
	"\\Theta", "Θ",
	"\\Lambda", "Λ",
	"\\Xi", "Ξ",
	"\\Pi", "Π",
	"\\Sigma", "Σ",
	"\\Phi", "Φ",
	"\\Psi", "Ψ",
	"\\Omega", "Ω",

	// spacing
	"\\,", " ",
	"\\;", " ",
	"\\!", "",
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', 'n': 'ⁿ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋',
}

func mapRunes(s string, table map[rune]rune) string {
	return strings.Map(func(r rune) rune {
		if m, ok := table[r]; ok {
			return m
		}
		return r
	}, s)
}

func normalizeLaTeX(s string) string {
	if !strings.ContainsAny(s, `$\^_`) {
		return s
	}

	s = displayMathRe.ReplaceAllString(s, "$1")
	s = inlineMathRe.ReplaceAllString(s, "$1")

	// \frac and \sqrt arguments may nest one inside the other; a couple of
	// passes resolves realistic depths.
	for i := 0; i < 3; i++ {
		prev := s
		s = textMacroRe.ReplaceAllString(s, "$1")
		s = fracBraceRe.ReplaceAllString(s, "$1/$2")
		s = sqrtBraceRe.ReplaceAllString(s, "√($1)")
		if s == prev {
			break
		}
	}
	s = fracDigitRe.ReplaceAllString(s, "$1/$2")
	s = sqrtDigitRe.ReplaceAllString(s, "√$1")

	s = latexReplacer.Replace(s)

	s = supBraceRe.ReplaceAllStringFunc(s, func(m string) string {
		return mapRunes(supBraceRe.FindStringSubmatch(m)[1], superscripts)
	})
	s = supCharRe.ReplaceAllStringFunc(s, func(m string) string {
		return mapRunes(strings.TrimPrefix(m, "^"), superscripts)
	})
	s = subBraceRe.ReplaceAllStringFunc(s, func(m string) string {
		return mapRunes(subBraceRe.FindStringSubmatch(m)[1], subscripts)
	})
	s = subCharRe.ReplaceAllStringFunc(s, func(m string) string {
		return mapRunes(strings.TrimPrefix(m, "_"), subscripts)
	})
	return s
}
