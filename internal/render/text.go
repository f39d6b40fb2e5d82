package render

import "transit-board-go/internal/layout"

// DrawAligned draws one line of text anchored at x and returns its width.
func DrawAligned(s Surface, f *Font, x, y int, text string, align layout.Align, c Ink) int {
	w := f.Width(text)
	s.DrawText(f.Face, align.X(x, w), y, text, c)
	return w
}

// DrawWrapped flows text over up to maxLines lines and returns the number
// of lines drawn.
func DrawWrapped(s Surface, f *Font, x, y int, text string, align layout.Align, maxWidth, maxLines, spacing int, c Ink) int {
	lines := layout.Wrap(f, text, maxWidth, maxLines, spacing)
	for _, l := range lines {
		s.DrawText(f.Face, align.X(x, l.Width), y+l.Y, l.Text, c)
	}
	return len(lines)
}

// Truncate shortens text to a single line no wider than maxWidth.
func Truncate(f *Font, text string, maxWidth int) string {
	lines := layout.Wrap(f, text, maxWidth, 1, 0)
	if len(lines) == 0 {
		return ""
	}
	return lines[0].Text
}
