package panel

import (
	"fmt"
	"image"

	"transit-board-go/internal/icons"
	"transit-board-go/internal/layout"
	"transit-board-go/internal/power"
	"transit-board-go/internal/render"
)

const (
	StatusBarHeight = 18

	statusIconSize    = 18
	statusSpacing     = 12
	statusRightMargin = 8
	refreshIconSize   = 24

	errorIconSize    = 192
	errorGap         = 21
	errorLineSpacing = 55
	errorMarginX     = 8
)

// StatusTimeLayout formats the last update time in the status bar.
const StatusTimeLayout = "02 Jan 15:04"

// DrawStatusBar draws battery, link quality and the update time right to
// left along the bottom edge of box and returns the height it used.
func DrawStatusBar(s render.Surface, faces render.Faces, box image.Rectangle, f Frame) int {
	baseline := box.Max.Y - 2
	body := faces.Body
	pos := box.Max.X - statusRightMargin

	label := fmt.Sprintf("%d%%", f.Power.Percent)
	render.DrawAligned(s, body, pos, baseline, label, layout.AlignEnd, render.Black)
	pos -= body.Width(label) + statusIconSize + 2
	render.Battery(s, pos, baseline-14, statusIconSize, statusIconSize, f.Power.Percent)

	pos -= statusSpacing
	label = power.WifiDescription(f.Power.RSSI)
	render.DrawAligned(s, body, pos, baseline, label, layout.AlignEnd, render.Black)
	pos -= body.Width(label) + statusIconSize + 2
	render.Wifi(s, pos, baseline-14, statusIconSize, statusIconSize, power.WifiFraction(f.Power.RSSI))

	pos -= statusSpacing
	label = f.Now.Format(StatusTimeLayout)
	render.DrawAligned(s, body, pos, baseline, label, layout.AlignEnd, render.Black)
	pos -= body.Width(label) + refreshIconSize
	render.Refresh(s, pos, baseline-18, refreshIconSize-4, render.Black)

	return StatusBarHeight
}

// DrawError fills s with a centred icon and one or two lines of message.
// With an empty ln2, ln1 is wrapped over two lines.
func DrawError(s render.Surface, faces render.Faces, set *icons.Set, icon, ln1, ln2 string) {
	b := s.Bounds()
	s.FillRect(b, render.White)
	cx, cy := b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2

	size := min(errorIconSize, b.Dx(), b.Dy()/2)
	if size > 0 {
		s.Blit(set.Get(icon, size), image.Pt(cx-size/2, cy-size/2-errorGap), render.Black)
	}

	f := faces.Display
	y := cy + size/2 + errorGap
	if ln2 != "" {
		render.DrawAligned(s, f, cx, y, render.Truncate(f, ln1, b.Dx()-2*errorMarginX), layout.AlignCenter, render.Black)
		render.DrawAligned(s, f, cx, y+errorLineSpacing, render.Truncate(f, ln2, b.Dx()-2*errorMarginX), layout.AlignCenter, render.Black)
		return
	}
	render.DrawWrapped(s, f, cx, y, ln1, layout.AlignCenter, b.Dx()-2*errorMarginX, 2, errorLineSpacing, render.Black)
}

// DrawBatteryWarning replaces the board with a single battery glyph.
func DrawBatteryWarning(s render.Surface, percent int) {
	b := s.Bounds()
	s.FillRect(b, render.White)
	w := min(b.Dx()/2, 2*b.Dy()/3)
	if w <= 0 {
		return
	}
	h := w / 2
	render.Battery(s, b.Min.X+(b.Dx()-w)/2, b.Min.Y+(b.Dy()-h)/2, w, h, percent)
}
