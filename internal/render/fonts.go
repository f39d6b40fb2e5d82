package render

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"transit-board-go/internal/layout"
)

// Point sizes at 72 DPI, so one point is one pixel.
const (
	TitleSize   = 34
	HeadingSize = 16
	BodySize    = 15
	DisplaySize = 36

	widthCacheSize = 512
)

// Font pairs a face with a cached width measurer.
type Font struct {
	Face    font.Face
	measure layout.Measurer
}

func NewFont(face font.Face) *Font {
	var m layout.Measurer = layout.FaceMeasurer{Face: face}
	if cached, err := layout.NewCachedMeasurer(m, widthCacheSize); err == nil {
		m = cached
	}
	return &Font{Face: face, measure: m}
}

// Width implements layout.Measurer.
func (f *Font) Width(s string) int { return f.measure.Width(s) }

// Ascent is the distance from the top of the line to the baseline.
func (f *Font) Ascent() int { return f.Face.Metrics().Ascent.Ceil() }

// Height is the recommended line spacing.
func (f *Font) Height() int { return f.Face.Metrics().Height.Ceil() }

// Faces are the four text styles used on the board.
type Faces struct {
	// Title is the large bold face for line names and minutes.
	Title *Font
	// Heading is the small bold face for stop names and units.
	Heading *Font
	// Body is the small regular face for destinations and status.
	Body *Font
	// Display is the large regular face for full-screen messages.
	Display *Font
}

// LoadFaces parses TrueType fonts from disk. Empty paths use the embedded
// Go fonts.
func LoadFaces(regularPath, boldPath string) (Faces, error) {
	regular, err := parseFont(regularPath, goregular.TTF)
	if err != nil {
		return Faces{}, err
	}
	bold, err := parseFont(boldPath, gobold.TTF)
	if err != nil {
		return Faces{}, err
	}
	return Faces{
		Title:   NewFont(newFace(bold, TitleSize)),
		Heading: NewFont(newFace(bold, HeadingSize)),
		Body:    NewFont(newFace(regular, BodySize)),
		Display: NewFont(newFace(regular, DisplaySize)),
	}, nil
}

// BasicFaces uses the fixed 7x13 bitmap face for every style.
func BasicFaces() Faces {
	f := NewFont(basicfont.Face7x13)
	return Faces{Title: f, Heading: f, Body: f, Display: f}
}

func parseFont(path string, fallback []byte) (*truetype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("render: read font: %w", err)
		}
		data = b
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font %q: %w", path, err)
	}
	return f, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
