package device

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"transit-board-go/internal/power"
)

// Preview is a panel that writes each frame to a PNG file.
type Preview struct {
	mu     sync.Mutex
	path   string
	bounds image.Rectangle
	invert bool
	last   *image.Gray
	pushes map[power.RefreshMode]int
	closed bool
}

// NewPreview returns a w x h preview panel. An empty path keeps frames in
// memory only.
func NewPreview(path string, w, h int, invert bool) *Preview {
	return &Preview{
		path:   path,
		bounds: image.Rect(0, 0, w, h),
		invert: invert,
		pushes: make(map[power.RefreshMode]int),
	}
}

func (p *Preview) Bounds() image.Rectangle { return p.bounds }

func (p *Preview) Push(frame *image.Gray, mode power.RefreshMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !frame.Rect.Eq(p.bounds) {
		return fmt.Errorf("device: frame %v does not fit preview %v", frame.Rect, p.bounds)
	}
	out := frame
	if p.invert {
		out = invert(frame)
	}
	if p.path != "" {
		if err := writePNG(p.path, out); err != nil {
			return err
		}
	}
	p.last = cloneGray(frame)
	p.pushes[mode]++
	return nil
}

// Pushes counts frames pushed with mode.
func (p *Preview) Pushes(mode power.RefreshMode) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushes[mode]
}

func (p *Preview) LastFrame() *image.Gray {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneGray(p.last)
}

func (p *Preview) PowerOff() error { return nil }

func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// writePNG replaces path atomically so readers never see a partial file.
func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("device: create preview: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("device: encode preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("device: write preview: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("device: replace preview: %w", err)
	}
	return nil
}
