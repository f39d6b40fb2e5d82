// Package icons supplies the monochrome bitmaps drawn on the board: transit
// mode glyphs, weather symbols and full-screen error art. Icons are read
// from a directory of PNG files named after the icon; anything missing is
// replaced by a generated placeholder so rendering never fails for lack of
// artwork.
package icons

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Set looks icons up by name and size.
type Set struct {
	dir   string
	cache map[string]image.Image
}

// New returns a Set reading PNGs from dir. An empty dir uses placeholders only.
func New(dir string) *Set {
	return &Set{dir: dir, cache: make(map[string]image.Image)}
}

// Get returns the named icon scaled to size x size pixels.
func (s *Set) Get(name string, size int) image.Image {
	key := fmt.Sprintf("%s@%d", name, size)
	if img, ok := s.cache[key]; ok {
		return img
	}
	img, err := s.load(name, size)
	if err != nil {
		img = Placeholder(name, size)
	}
	s.cache[key] = img
	return img
}

func (s *Set) load(name string, size int) (image.Image, error) {
	if s.dir == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(filepath.Join(s.dir, name+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("icons: decode %s: %w", name, err)
	}
	if b := src.Bounds(); b.Dx() == size && b.Dy() == size {
		return src, nil
	}
	return scale(src, size), nil
}

func scale(src image.Image, size int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Placeholder draws a framed initial for name: black ink on a transparent
// background.
func Placeholder(name string, size int) image.Image {
	if size < 1 {
		size = 1
	}
	const cell = 16
	small := image.NewNRGBA(image.Rect(0, 0, cell, cell))
	ink := color.NRGBA{A: 0xFF}
	for i := 0; i < cell; i++ {
		small.Set(i, 0, ink)
		small.Set(i, cell-1, ink)
		small.Set(0, i, ink)
		small.Set(cell-1, i, ink)
	}
	initial := "?"
	if n := strings.TrimSpace(name); n != "" {
		initial = strings.ToUpper(n[:1])
	}
	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(5, 12),
	}
	d.DrawString(initial)
	return scale(small, size)
}
