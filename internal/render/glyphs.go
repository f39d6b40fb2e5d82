package render

import (
	"image"
	"math"
)

// Battery draws a battery outline filled to percent in the w x h box at x, y.
func Battery(s Surface, x, y, w, h, percent int) {
	percent = max(0, min(100, percent))
	const stroke = 2
	xIndent := w / 24
	yIndent := h / 4
	thickness := h - 2*yIndent
	bumpIndent := thickness / 4
	bumpWidth := thickness - 2*bumpIndent
	bumpLength := w / 8
	length := w - bumpLength - 2*xIndent

	body := image.Rect(x+xIndent, y+yIndent, x+xIndent+length, y+yIndent+thickness)
	s.FillRect(body, Black)
	empty := int(math.Ceil(float64((length-2*stroke)*(100-percent)) / 100))
	if empty > 0 {
		right := body.Max.X - stroke
		s.FillRect(image.Rect(right-empty, body.Min.Y+stroke, right, body.Max.Y-stroke), White)
	}
	s.FillRect(image.Rect(body.Max.X, body.Min.Y+bumpIndent, body.Max.X+bumpLength, body.Min.Y+bumpIndent+bumpWidth), Black)
}

// Wifi draws a signal fan in the w x h box at x, y, filled to fraction.
func Wifi(s Surface, x, y, w, h int, fraction float64) {
	xIndent := w / 12
	yIndent := h / 8
	cx := x + w/2
	cy := y + h - yIndent

	start := math.Atan2(float64(h-3*yIndent), float64(w/2-xIndent))
	end := math.Atan2(float64(h-3*yIndent), float64(xIndent-w/2))
	radius := int(math.Ceil(math.Hypot(float64(w/2-xIndent), float64(h-3*yIndent))))

	Arc(s, cx, cy, start, end, radius-1, radius+1, Black)
	s.Line(cx, cy, x+xIndent, y+2*yIndent, Black)
	s.Line(cx, cy-1, x+xIndent+1, y+2*yIndent, Black)
	s.Line(cx, cy, x+w-xIndent, y+2*yIndent, Black)
	s.Line(cx, cy-1, x+w-xIndent-1, y+2*yIndent, Black)

	if fraction > 0 {
		Arc(s, cx, cy, start, end, 0, int(math.Ceil(float64(radius)*fraction)), Black)
	}
}

// Arc fills the ring between inner and outer radius whose angle, measured
// anticlockwise from the positive x axis, lies strictly between start and end.
func Arc(s Surface, cx, cy int, start, end float64, inner, outer int, c Ink) {
	for y := -outer; y <= outer; y++ {
		for x := -outer; x <= outer; x++ {
			d := x*x + y*y
			if d > outer*outer || d <= inner*inner {
				continue
			}
			if inArc(math.Atan2(float64(-y), float64(x)), start, end) {
				s.SetPixel(cx+x, cy+y, c)
			}
		}
	}
}

func inArc(angle, start, end float64) bool {
	if start > end {
		return angle > start || angle < end
	}
	return angle > start && angle < end
}

// Refresh draws a circular arrow in a size x size box at x, y.
func Refresh(s Surface, x, y, size int, c Ink) {
	r := size/2 - 2
	cx, cy := x+size/2, y+size/2
	Arc(s, cx, cy, -math.Pi*0.75, math.Pi*0.5, r-2, r, c)
	// Arrow head at the top end of the arc, pointing right.
	tipX, tipY := cx, cy-r+1
	head := max(3, size/5)
	for i := 0; i < head; i++ {
		s.Line(tipX+i, tipY-(head-i), tipX+i, tipY+(head-i), c)
	}
}

// Realtime draws the live-tracking mark: a dot with two radiating arcs,
// in a size x size box at x, y.
func Realtime(s Surface, x, y, size int, c Ink) {
	ox, oy := x+1, y+size-2
	dot := max(1, size/8)
	s.Circle(ox+dot, oy-dot, dot, c, true)
	for _, r := range []int{size / 2, size - 3} {
		Arc(s, ox, oy, -0.05, math.Pi/2+0.05, r-max(1, size/8), r, c)
	}
}
