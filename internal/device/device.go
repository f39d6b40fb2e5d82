// Package device holds the hardware edges of the board: the e-paper panel,
// the battery gauge, the wireless link and the power controls. Each edge is
// an interface with a hardware implementation and a fixed or file-backed
// one for development.
package device

import (
	"context"
	"errors"
	"image"
	"time"

	"transit-board-go/internal/power"
)

var (
	// ErrClosed is returned by panels used after Close.
	ErrClosed = errors.New("device: panel closed")
	// ErrNetworkDown is returned when the feed host cannot be reached.
	ErrNetworkDown = errors.New("device: network unreachable")
	// ErrClockUnsynced is returned when the system clock is not trustworthy.
	ErrClockUnsynced = errors.New("device: clock not synchronized")
)

// Panel is a display that accepts whole frames.
type Panel interface {
	// Bounds is the logical frame size, after rotation.
	Bounds() image.Rectangle
	Push(frame *image.Gray, mode power.RefreshMode) error
	// LastFrame is a copy of the last frame pushed, or nil.
	LastFrame() *image.Gray
	// PowerOff puts the panel in its lowest power state. The next Push
	// wakes it.
	PowerOff() error
	Close() error
}

// BatterySensor reads the cell voltage.
type BatterySensor interface {
	Millivolts() (int, error)
}

// SignalReader reads the wireless signal level in dBm. Zero means no link.
type SignalReader interface {
	RSSI() (int, error)
}

// Checker is a startup precondition.
type Checker interface {
	Check(ctx context.Context) error
}

// Sleeper suspends the board between cycles.
type Sleeper interface {
	// Delay waits inline with everything powered.
	Delay(ctx context.Context, d time.Duration) error
	// DeepSleep powers down until d has passed. Implementations that cannot
	// power down fall back to Delay and report deep=false.
	DeepSleep(ctx context.Context, d time.Duration) (deep bool, err error)
	// Halt powers down with no wake timer.
	Halt(ctx context.Context) error
}

// FixedBattery always reports the same voltage.
type FixedBattery int

func (b FixedBattery) Millivolts() (int, error) { return int(b), nil }

// FixedSignal always reports the same signal level.
type FixedSignal int

func (s FixedSignal) RSSI() (int, error) { return int(s), nil }

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

func cloneGray(src *image.Gray) *image.Gray {
	if src == nil {
		return nil
	}
	dst := &image.Gray{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
