package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Ink is a monochrome drawing colour.
type Ink uint8

const (
	Black Ink = 0
	White Ink = 0xFF
)

func (c Ink) gray() color.Gray { return color.Gray{Y: uint8(c)} }

// Surface is the set of drawing primitives panels render with. Every call
// is clipped to Bounds.
type Surface interface {
	Bounds() image.Rectangle
	Clip(r image.Rectangle) Surface
	SetPixel(x, y int, c Ink)
	FillRect(r image.Rectangle, c Ink)
	FillRoundRect(r image.Rectangle, radius int, c Ink)
	StrokeRect(r image.Rectangle, c Ink)
	HLine(x0, x1, y int, c Ink)
	Line(x0, y0, x1, y1 int, c Ink)
	Circle(cx, cy, r int, c Ink, fill bool)
	// Blit paints c wherever src is dark and opaque.
	Blit(src image.Image, at image.Point, c Ink)
	// DrawText draws s with its baseline at y.
	DrawText(face font.Face, x, y int, s string, c Ink)
}

// Canvas is an in-memory grayscale frame.
type Canvas struct {
	img        *image.Gray
	clip       image.Rectangle
	pageHeight int
}

// NewCanvas returns a white canvas of the given size.
func NewCanvas(w, h int) *Canvas {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{White.gray()}, image.Point{}, draw.Src)
	return &Canvas{img: img, clip: img.Rect}
}

// CanvasFrom starts a canvas from a copy of src.
func CanvasFrom(src *image.Gray) *Canvas {
	img := image.NewGray(src.Rect)
	draw.Draw(img, img.Rect, src, src.Rect.Min, draw.Src)
	return &Canvas{img: img, clip: img.Rect}
}

// Image exposes the backing frame.
func (c *Canvas) Image() *image.Gray { return c.img }

// SetPageHeight splits rendering into horizontal bands of h rows.
// Zero renders the whole frame as one page.
func (c *Canvas) SetPageHeight(h int) { c.pageHeight = h }

// Pages calls fn once per band with a surface clipped to that band and
// returns the number of bands. fn must draw the same thing on every call.
func (c *Canvas) Pages(fn func(Surface)) int {
	r := c.clip
	if c.pageHeight <= 0 || c.pageHeight >= r.Dy() {
		fn(c)
		return 1
	}
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y += c.pageHeight {
		fn(c.Clip(image.Rect(r.Min.X, y, r.Max.X, y+c.pageHeight)))
		n++
	}
	return n
}

func (c *Canvas) Bounds() image.Rectangle { return c.clip }

func (c *Canvas) Clip(r image.Rectangle) Surface {
	cc := *c
	cc.clip = c.clip.Intersect(r)
	return &cc
}

func (c *Canvas) SetPixel(x, y int, ink Ink) {
	if image.Pt(x, y).In(c.clip) {
		c.img.SetGray(x, y, ink.gray())
	}
}

func (c *Canvas) FillRect(r image.Rectangle, ink Ink) {
	r = r.Intersect(c.clip)
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, &image.Uniform{ink.gray()}, image.Point{}, draw.Src)
}

func (c *Canvas) FillRoundRect(r image.Rectangle, radius int, ink Ink) {
	if radius <= 0 {
		c.FillRect(r, ink)
		return
	}
	if limit := min(r.Dx(), r.Dy()) / 2; radius > limit {
		radius = limit
	}
	area := r.Intersect(c.clip)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			cx, cy := x, y
			if x < r.Min.X+radius {
				cx = r.Min.X + radius
			} else if x >= r.Max.X-radius {
				cx = r.Max.X - radius - 1
			}
			if y < r.Min.Y+radius {
				cy = r.Min.Y + radius
			} else if y >= r.Max.Y-radius {
				cy = r.Max.Y - radius - 1
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				c.img.SetGray(x, y, ink.gray())
			}
		}
	}
}

func (c *Canvas) StrokeRect(r image.Rectangle, ink Ink) {
	if r.Empty() {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	c.Line(x0, y0, x1, y0, ink)
	c.Line(x0, y1, x1, y1, ink)
	c.Line(x0, y0, x0, y1, ink)
	c.Line(x1, y0, x1, y1, ink)
}

func (c *Canvas) HLine(x0, x1, y int, ink Ink) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	c.FillRect(image.Rect(x0, y, x1+1, y+1), ink)
}

// Line draws with Bresenham's algorithm, both endpoints inclusive.
func (c *Canvas) Line(x0, y0, x1, y1 int, ink Ink) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		c.SetPixel(x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) Circle(cx, cy, r int, ink Ink, fill bool) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			d := x*x + y*y
			if fill {
				if d <= r*r {
					c.SetPixel(cx+x, cy+y, ink)
				}
			} else if d >= (r-1)*(r-1) && d <= r*r {
				c.SetPixel(cx+x, cy+y, ink)
			}
		}
	}
}

func (c *Canvas) Blit(src image.Image, at image.Point, ink Ink) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isInk(src.At(x, y)) {
				c.SetPixel(at.X+x-b.Min.X, at.Y+y-b.Min.Y, ink)
			}
		}
	}
}

func isInk(col color.Color) bool {
	if _, _, _, a := col.RGBA(); a < 0x8000 {
		return false
	}
	return color.GrayModel.Convert(col).(color.Gray).Y < 0x80
}

func (c *Canvas) DrawText(face font.Face, x, y int, s string, ink Ink) {
	if s == "" || c.clip.Empty() {
		return
	}
	dst, ok := c.img.SubImage(c.clip).(*image.Gray)
	if !ok {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink.gray()),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// Invert returns a copy of src with black and white swapped.
func Invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Rect)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			dst.SetGray(x, y, color.Gray{Y: 0xFF - src.GrayAt(x, y).Y})
		}
	}
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
