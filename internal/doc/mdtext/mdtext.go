// Package mdtext turns markdown/LaTeX-flavored learning text into the plain
// text the PDF canvas can draw.
//
// Normalize is total and idempotent: it never fails, and running it over its
// own output is a no-op. Idempotence is load-bearing for the rest of the doc
// pipeline (estimator and renderer may each normalize independently), so the
// emitted shapes are chosen to survive a re-parse unchanged: bullets become
// "• " lines which CommonMark treats as plain text, code lines keep a
// four-space indent which re-parses as an indented code block, and soft line
// breaks are preserved as newlines.
package mdtext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const codeIndent = "    "

var mdParser = goldmark.New().Parser()

// Normalize strips markdown structure and rewrites known LaTeX macros,
// returning a plain-text approximation of s. Empty or malformed input yields
// best-effort output, never an error.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = normalizeLaTeX(s)

	var parts []string
	for _, b := range markdownBlocks(s) {
		if b.code {
			for i := range b.lines {
				b.lines[i] = strings.TrimRight(b.lines[i], " \t")
			}
			parts = append(parts, strings.Join(b.lines, "\n"))
			continue
		}
		kept := make([]string, 0, len(b.lines))
		for _, ln := range b.lines {
			kept = append(kept, scrubLine(ln))
		}
		if t := strings.TrimSpace(strings.Join(kept, "\n")); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

var hspaceRe = regexp.MustCompile(`[ \t]+`)

// scrubLine removes delimiter runs goldmark leaves behind (unbalanced strong
// markers, strikethrough, backticks inside code spans) and collapses
// horizontal whitespace. Stripping every occurrence keeps the result stable
// under a second pass. Fenced and indented code lines never come through
// here.
func scrubLine(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "~~", "")
	line = strings.ReplaceAll(line, "`", "")
	line = hspaceRe.ReplaceAllString(line, " ")
	return strings.Trim(line, " \t")
}

// textBlock is one flush-left run of output lines. Blocks are joined with a
// single blank line, which collapses whatever blank-line runs the input had.
type textBlock struct {
	lines []string
	code  bool
}

type mdWalker struct {
	src    []byte
	blocks []textBlock
}

func markdownBlocks(s string) []textBlock {
	src := []byte(s)
	w := &mdWalker{src: src}
	w.walkChildren(mdParser.Parse(text.NewReader(src)))
	return w.blocks
}

func (w *mdWalker) walkChildren(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.walkBlock(c)
	}
}

func (w *mdWalker) walkBlock(n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		w.addTextBlock(w.inline(n))
	case *ast.Paragraph:
		w.addTextBlock(w.inline(n))
	case *ast.TextBlock:
		w.addTextBlock(w.inline(n))
	case *ast.Blockquote:
		w.walkChildren(n)
	case *ast.List:
		w.list(n)
	case *ast.FencedCodeBlock:
		lang := strings.TrimSpace(string(n.Language(w.src)))
		if lang != "" {
			w.addTextBlock(fmt.Sprintf("[Code Block (%s)]", lang))
		} else {
			w.addTextBlock("[Code Block]")
		}
		w.codeLines(n)
	case *ast.CodeBlock:
		w.codeLines(n)
	case *ast.ThematicBreak, *ast.HTMLBlock:
		// dropped from plain text
	default:
		if n.HasChildren() {
			w.walkChildren(n)
		}
	}
}

// list renders each item as a "• " or "N. " line. Item children beyond the
// first paragraph (nested lists, extra paragraphs, code) flush the current
// run and are emitted as their own blocks so the output re-parses the same
// way it was written.
func (w *mdWalker) list(n *ast.List) {
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			w.blocks = append(w.blocks, textBlock{lines: lines})
			lines = nil
		}
	}

	num := n.Start
	if num == 0 {
		num = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		prefix := "• "
		if n.IsOrdered() {
			prefix = fmt.Sprintf("%d. ", num)
			num++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if first {
					lines = append(lines, strings.Split(prefix+w.inline(c), "\n")...)
					first = false
					continue
				}
			}
			flush()
			w.walkBlock(c)
		}
		if first {
			lines = append(lines, strings.TrimRight(prefix, " "))
		}
	}
	flush()
}

func (w *mdWalker) codeLines(n ast.Node) {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, codeIndent+strings.TrimRight(string(seg.Value(w.src)), "\r\n"))
	}
	for len(out) > 0 && strings.TrimSpace(out[0]) == "" {
		out = out[1:]
	}
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	if len(out) > 0 {
		w.blocks = append(w.blocks, textBlock{lines: out, code: true})
	}
}

func (w *mdWalker) addTextBlock(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	w.blocks = append(w.blocks, textBlock{lines: strings.Split(s, "\n")})
}

func (w *mdWalker) inline(n ast.Node) string {
	var sb strings.Builder
	w.inlineChildren(&sb, n)
	return sb.String()
}

func (w *mdWalker) inlineChildren(sb *strings.Builder, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.inlineNode(sb, c)
	}
}

func (w *mdWalker) inlineNode(sb *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(w.src))
		if n.HardLineBreak() || n.SoftLineBreak() {
			sb.WriteByte('\n')
		}
	case *ast.String:
		sb.Write(n.Value)
	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(w.src))
			}
		}
	case *ast.Emphasis:
		w.inlineChildren(sb, n)
	case *ast.Link:
		w.inlineChildren(sb, n)
	case *ast.Image:
		w.inlineChildren(sb, n)
	case *ast.AutoLink:
		sb.Write(n.Label(w.src))
	case *ast.RawHTML:
		// dropped
	default:
		if n.HasChildren() {
			w.inlineChildren(sb, n)
		}
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify reduces a title to a lowercase hyphenated token usable in a
// filename. Returns "" when nothing survives.
func Slugify(s string) string {
	s = slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if len(s) > 64 {
		s = strings.TrimRight(s[:64], "-")
	}
	return s
}
