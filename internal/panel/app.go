// Package panel lays apps out on the board and draws them.
package panel

import (
	"context"
	"image"
	"time"

	"transit-board-go/internal/power"
	"transit-board-go/internal/render"
)

// Frame carries the per-cycle inputs every app renders with.
type Frame struct {
	Now   time.Time
	Power power.State
}

// App is one renderable section of the board.
type App interface {
	Name() string
	// Fetch refreshes the app's data. A failed fetch keeps the app off the
	// next composition.
	Fetch(ctx context.Context) error
	// Render draws into box. s is already clipped to box.
	Render(s render.Surface, box image.Rectangle, f Frame)
}

// Slot binds an app to the box it owns.
type Slot struct {
	App App
	Box image.Rectangle
}

// Arrange splits area vertically into one box per weight. Non-positive
// weights count as one. The last box absorbs rounding so the boxes tile
// area exactly without overlapping.
func Arrange(area image.Rectangle, weights []int) []image.Rectangle {
	if len(weights) == 0 {
		return nil
	}
	total := 0
	for _, w := range weights {
		total += max(1, w)
	}
	boxes := make([]image.Rectangle, len(weights))
	y := area.Min.Y
	acc := 0
	for i, w := range weights {
		acc += max(1, w)
		next := area.Min.Y + area.Dy()*acc/total
		if i == len(weights)-1 {
			next = area.Max.Y
		}
		boxes[i] = image.Rect(area.Min.X, y, area.Max.X, next)
		y = next
	}
	return boxes
}

// FetchAll fetches every slot's app in order and returns the failures.
func FetchAll(ctx context.Context, slots []Slot) map[App]error {
	failed := make(map[App]error)
	for _, sl := range slots {
		if err := sl.App.Fetch(ctx); err != nil {
			failed[sl.App] = err
		}
	}
	return failed
}

// Compose clears and renders every slot whose app is not in failed, and
// returns how many were drawn. Failed slots keep whatever pixels they had.
func Compose(s render.Surface, slots []Slot, f Frame, failed map[App]error) int {
	drawn := 0
	for _, sl := range slots {
		if _, bad := failed[sl.App]; bad {
			continue
		}
		sub := s.Clip(sl.Box)
		sub.FillRect(sl.Box, render.White)
		sl.App.Render(sub, sl.Box, f)
		drawn++
	}
	return drawn
}
