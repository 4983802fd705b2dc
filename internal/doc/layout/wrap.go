package layout

import (
	"strings"
	"unicode/utf8"
)

// wrapText breaks s into lines no wider than width, measured with the
// canvas's current font. Embedded newlines are kept as line boundaries.
func wrapText(c Canvas, s string, width float64) []string {
	var out []string
	for _, part := range strings.Split(s, "\n") {
		out = append(out, wrapLine(c, part, width)...)
	}
	return out
}

func wrapLine(c Canvas, s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, word := range words {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if c.StringWidth(candidate) <= width {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		// Words wider than a full line wrap at rune boundaries.
		for c.StringWidth(word) > width && utf8.RuneCountInString(word) > 1 {
			cut := fitPrefix(c, word, width)
			if cut >= len(word) {
				break
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// fitPrefix returns the byte length of the longest prefix of word that fits
// in width, always at least one rune so callers make progress.
func fitPrefix(c Canvas, word string, width float64) int {
	_, first := utf8.DecodeRuneInString(word)
	fit := first
	for i := first; i < len(word); {
		_, n := utf8.DecodeRuneInString(word[i:])
		if c.StringWidth(word[:i+n]) > width {
			break
		}
		i += n
		fit = i
	}
	return fit
}
