package device

import "image"

// Rotate turns src clockwise by quarter turns (0 to 3; other values wrap).
func Rotate(src *image.Gray, turns int) *image.Gray {
	turns = ((turns % 4) + 4) % 4
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	if turns == 0 {
		return cloneGray(src)
	}
	dw, dh := w, h
	if turns%2 == 1 {
		dw, dh = h, w
	}
	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sx, sy int
			switch turns {
			case 1:
				sx, sy = y, h-1-x
			case 2:
				sx, sy = w-1-x, h-1-y
			case 3:
				sx, sy = w-1-y, x
			}
			dst.SetGray(x, y, src.GrayAt(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

// DiffRect returns the smallest rectangle covering every pixel that differs
// between prev and curr. A nil or differently sized prev differs everywhere.
func DiffRect(prev, curr *image.Gray) (image.Rectangle, bool) {
	if prev == nil || !prev.Rect.Eq(curr.Rect) {
		return curr.Bounds(), true
	}
	minX, minY := curr.Rect.Max.X, curr.Rect.Max.Y
	maxX, maxY := curr.Rect.Min.X, curr.Rect.Min.Y
	changed := false
	for y := curr.Rect.Min.Y; y < curr.Rect.Max.Y; y++ {
		for x := curr.Rect.Min.X; x < curr.Rect.Max.X; x++ {
			if prev.GrayAt(x, y) == curr.GrayAt(x, y) {
				continue
			}
			changed = true
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if !changed {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// AlignRect widens r to whole bytes along x, as the controller addresses
// eight pixels at a time, and keeps it inside bounds.
func AlignRect(r, bounds image.Rectangle) image.Rectangle {
	if r.Empty() {
		return r
	}
	x0 := max(r.Min.X&^7, bounds.Min.X)
	x1 := min((r.Max.X+7)&^7, bounds.Max.X)
	if x1 <= x0 {
		return bounds
	}
	return image.Rect(x0, r.Min.Y, x1, r.Max.Y).Intersect(bounds)
}

// invert swaps black and white.
func invert(src *image.Gray) *image.Gray {
	dst := cloneGray(src)
	for i, v := range dst.Pix {
		dst.Pix[i] = 0xFF - v
	}
	return dst
}
