package layout

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

// monoMeasurer renders every rune 10px wide.
type monoMeasurer struct{}

func (monoMeasurer) Width(s string) int { return utf8.RuneCountInString(s) * 10 }

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestWrap(t *testing.T) {
	m := monoMeasurer{}

	tests := []struct {
		name     string
		text     string
		maxWidth int
		maxLines int
		want     []string
	}{
		{"empty input emits nothing", "", 100, 3, []string{}},
		{"whitespace only emits nothing", "    ", 100, 3, []string{}},
		{"fits on one line", "Central", 100, 2, []string{"Central"}},
		{"breaks at space", "Central Station", 100, 2, []string{"Central", "Station"}},
		{"keeps hyphen on non-last line", "Bondi-Junction Interchange", 120, 3, []string{"Bondi-", "Junction", "Interchange"}},
		{"last line ignores hyphens", "Parramatta Road-Lilyfield West", 170, 1, []string{"Parramatta..."}},
		{"ellipsis omitted when it does not fit", "abcdefgh ijkl", 100, 1, []string{"abcdefgh"}},
		{"ellipsis wins over a longer bare prefix", "aaaa bbbb cccc", 100, 1, []string{"aaaa..."}},
		{"single long word overflows", "Supercalifragilistic", 50, 2, []string{"Supercalifragilistic"}},
		{"overflowing first word then continues", "Supercalifragilistic is long", 50, 3, []string{"Supercalifragilistic", "is", "long"}},
		{"skips leading spaces", "   hello", 100, 1, []string{"hello"}},
		{"truncates to max lines", "one two three four five six", 90, 2, []string{"one two", "three..."}},
		{"zero max lines", "anything", 100, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(m, tt.text, tt.maxWidth, tt.maxLines, 20)
			assert.Equal(t, tt.want, texts(got))
		})
	}
}

func TestWrapOffsetsAndWidths(t *testing.T) {
	lines := Wrap(monoMeasurer{}, "alpha beta gamma", 60, 3, 22)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.Equal(t, i*22, l.Y)
		assert.Equal(t, monoMeasurer{}.Width(l.Text), l.Width)
	}
}

func TestWrapProperties(t *testing.T) {
	m := monoMeasurer{}
	rng := rand.New(rand.NewSource(7))
	words := []string{"a", "bus", "to", "Circular", "Quay", "via", "Kingsford", "Maroubra", "Junction", "Sydney"}

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(12)
		parts := make([]string, n)
		widest := 0
		for j := range parts {
			parts[j] = words[rng.Intn(len(words))]
			if w := m.Width(parts[j]); w > widest {
				widest = w
			}
		}
		text := strings.Join(parts, " ")
		maxWidth := widest + rng.Intn(120)
		maxLines := 1 + rng.Intn(4)

		lines := Wrap(m, text, maxWidth, maxLines, 10)

		require.NotEmpty(t, lines, text)
		assert.LessOrEqual(t, len(lines), maxLines)
		for _, l := range lines {
			assert.LessOrEqual(t, l.Width, maxWidth, "line %q of %q", l.Text, text)
		}

		consumed := strings.Join(texts(lines), " ")
		if len(lines) == maxLines && strings.Count(consumed, " ") < strings.Count(text, " ") {
			last := lines[len(lines)-1]
			cut := strings.TrimSuffix(last.Text, Ellipsis)
			if m.Width(cut+Ellipsis) <= maxWidth {
				assert.True(t, strings.HasSuffix(last.Text, Ellipsis), "expected ellipsis on %q", last.Text)
			}
		}
	}
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 100, AlignStart.X(100, 40))
	assert.Equal(t, 60, AlignEnd.X(100, 40))
	assert.Equal(t, 80, AlignCenter.X(100, 40))
}

type countingMeasurer struct {
	calls int
}

func (c *countingMeasurer) Width(s string) int {
	c.calls++
	return len(s)
}

func TestCachedMeasurer(t *testing.T) {
	inner := &countingMeasurer{}
	m, err := NewCachedMeasurer(inner, 16)
	require.NoError(t, err)

	assert.Equal(t, 5, m.Width("hello"))
	assert.Equal(t, 5, m.Width("hello"))
	assert.Equal(t, 1, inner.calls)

	assert.Equal(t, 3, m.Width("bye"))
	assert.Equal(t, 2, inner.calls)

	_, err = NewCachedMeasurer(nil, 16)
	assert.Error(t, err)
	_, err = NewCachedMeasurer(inner, 0)
	assert.Error(t, err)
}

func TestFaceMeasurer(t *testing.T) {
	m := FaceMeasurer{Face: basicfont.Face7x13}
	assert.Equal(t, 21, m.Width("abc"))
	assert.Equal(t, 0, m.Width(""))
}
