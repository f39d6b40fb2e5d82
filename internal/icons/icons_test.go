package icons

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func opaque(img image.Image, x, y int) bool {
	_, _, _, a := img.At(x, y).RGBA()
	return a > 0
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder("bus", 32)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.True(t, opaque(img, 0, 0), "frame is drawn")
	assert.False(t, opaque(img, 4, 4), "background is transparent")

	assert.Equal(t, image.Rect(0, 0, 1, 1), Placeholder("", 0).Bounds())
}

func TestSetLoadsAndScalesPNG(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	src.SetGray(0, 0, color.Gray{Y: 0})
	writePNG(t, filepath.Join(dir, "train.png"), src)

	s := New(dir)

	native := s.Get("train", 8)
	assert.Equal(t, image.Rect(0, 0, 8, 8), native.Bounds())

	big := s.Get("train", 32)
	assert.Equal(t, image.Rect(0, 0, 32, 32), big.Bounds())
	r, _, _, _ := big.At(1, 1).RGBA()
	assert.Zero(t, r, "top-left pixel scales up")
	r, _, _, _ = big.At(20, 20).RGBA()
	assert.NotZero(t, r)

	assert.Same(t, big, s.Get("train", 32))
}

func TestSetFallsBackToPlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ferry.png"), []byte("not a png"), 0o644))

	s := New(dir)
	for _, name := range []string{"ferry", "metro"} {
		img := s.Get(name, 24)
		assert.Equal(t, image.Rect(0, 0, 24, 24), img.Bounds())
		assert.True(t, opaque(img, 0, 0))
	}

	assert.Equal(t, image.Rect(0, 0, 16, 16), New("").Get("bus", 16).Bounds())
}
