package layout

import "strings"

// Ellipsis terminates the last line when text had to be cut.
const Ellipsis = "..."

// Line is one wrapped line of text. Y is the offset of its baseline from the
// first line's baseline.
type Line struct {
	Text  string
	Y     int
	Width int
}

// Align positions a line horizontally relative to an anchor x.
type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
)

// X returns the left edge for a line of the given width anchored at x.
func (a Align) X(x, width int) int {
	switch a {
	case AlignEnd:
		return x - width
	case AlignCenter:
		return x - width/2
	default:
		return x
	}
}

// Wrap flows text into at most maxLines lines no wider than maxWidth,
// breaking only at spaces and hyphens. A hyphen that ends a line stays on
// it; a space does not. The last permitted line breaks only at spaces and is
// terminated with an ellipsis when text was cut and the ellipsis fits. A
// single word wider than maxWidth is emitted whole on its own line.
func Wrap(m Measurer, text string, maxWidth, maxLines, lineSpacing int) []Line {
	var lines []Line
	rest := text
	for len(lines) < maxLines {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		var s string
		if len(lines) == maxLines-1 {
			s, rest = fitLast(m, rest, maxWidth), ""
		} else {
			s, rest = fitLine(m, rest, maxWidth)
		}
		lines = append(lines, Line{
			Text:  s,
			Y:     len(lines) * lineSpacing,
			Width: m.Width(s),
		})
	}
	return lines
}

// fitLine takes the longest prefix of text that fits, breaking at a space or
// after a hyphen.
func fitLine(m Measurer, text string, maxWidth int) (string, string) {
	if m.Width(text) <= maxWidth {
		return strings.TrimRight(text, " "), ""
	}
	var line, rest, first, firstRest string
	found := false
	for i := 0; i < len(text); i++ {
		var cand, remain string
		switch text[i] {
		case ' ':
			cand, remain = strings.TrimRight(text[:i], " "), text[i+1:]
		case '-':
			cand, remain = text[:i+1], text[i+1:]
		default:
			continue
		}
		if cand == "" {
			continue
		}
		if first == "" {
			first, firstRest = cand, remain
		}
		if m.Width(cand) > maxWidth {
			break
		}
		line, rest, found = cand, remain, true
	}
	if found {
		return line, rest
	}
	if first != "" {
		return first, firstRest
	}
	return text, ""
}

// fitLast fills the final line. It prefers the longest space-bounded prefix
// that still fits with an ellipsis appended; failing that, the longest
// prefix that fits on its own; failing that, the overflowing first word.
func fitLast(m Measurer, text string, maxWidth int) string {
	if m.Width(text) <= maxWidth {
		return strings.TrimRight(text, " ")
	}
	var withEllipsis, plain, first string
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' {
			continue
		}
		cand := strings.TrimRight(text[:i], " ")
		if cand == "" {
			continue
		}
		if first == "" {
			first = cand
		}
		if m.Width(cand) > maxWidth {
			break
		}
		plain = cand
		if m.Width(cand+Ellipsis) <= maxWidth {
			withEllipsis = cand + Ellipsis
		}
	}
	switch {
	case withEllipsis != "":
		return withEllipsis
	case plain != "":
		return plain
	case first != "":
		return first
	default:
		return text
	}
}
