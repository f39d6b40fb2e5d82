package panel

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"transit-board-go/internal/departures"
	"transit-board-go/internal/icons"
	"transit-board-go/internal/layout"
	"transit-board-go/internal/render"
)

// Transit board geometry in pixels.
const (
	headerHeight   = 36
	headerGap      = 4
	headerRadius   = 4
	modeIconSize   = 32
	modeIconStep   = modeIconSize + 4
	headerBaseline = 24

	rowMargin     = 8
	dividerInset  = rowMargin + 4
	dividerGap    = 4
	bottomMargin  = 8
	statusGap     = 4
	titleAdvance  = 36
	lineGap       = 8
	bodyAdvance   = 14
	rowTrailer    = 8
	rowHeight     = titleAdvance + lineGap + bodyAdvance + rowTrailer
	realtimeSize  = 16
	realtimeGap   = 8
	minutesSuffix = " min"
	clockLayout   = "15:04"
)

// DepartureSource fetches the raw departure document for a stop.
type DepartureSource interface {
	StopDocument(ctx context.Context, stopID string) (departures.Document, error)
}

// TransitOptions configures a TransitBoard.
type TransitOptions struct {
	StopIDs  []string
	Location *time.Location
	// Window limits rows to departures within this long of now.
	Window    time.Duration
	StatusBar bool
}

// TransitBoard shows upcoming departures for one or more stops.
type TransitBoard struct {
	src       DepartureSource
	stops     []string
	loc       *time.Location
	window    time.Duration
	statusBar bool
	faces     render.Faces
	icons     *icons.Set

	groups []departures.StopGroup
}

func NewTransitBoard(src DepartureSource, faces render.Faces, set *icons.Set, opts TransitOptions) *TransitBoard {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	window := opts.Window
	if window <= 0 {
		window = departures.DefaultWindow
	}
	return &TransitBoard{
		src:       src,
		stops:     append([]string(nil), opts.StopIDs...),
		loc:       loc,
		window:    window,
		statusBar: opts.StatusBar,
		faces:     faces,
		icons:     set,
	}
}

func (tb *TransitBoard) Name() string { return "transit" }

// Groups returns the stop groups from the last successful fetch.
func (tb *TransitBoard) Groups() []departures.StopGroup { return tb.groups }

// Fetch loads every stop. Any stop failing fails the whole board and keeps
// the previous groups.
func (tb *TransitBoard) Fetch(ctx context.Context) error {
	groups := make([]departures.StopGroup, 0, len(tb.stops))
	for _, id := range tb.stops {
		doc, err := tb.src.StopDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("stop %s: %w", id, err)
		}
		groups = append(groups, departures.Normalize(id, doc, tb.loc))
	}
	tb.groups = groups
	return nil
}

// Shown counts the rows the board would draw into box at now.
func (tb *TransitBoard) Shown(box image.Rectangle, now time.Time) int {
	n := 0
	for i, g := range tb.groups {
		area := tb.groupBox(box, i)
		rows := departures.Rank(g.Records, now, tb.window)
		n += rowsThatFit(area, len(rows))
	}
	return n
}

func (tb *TransitBoard) Render(s render.Surface, box image.Rectangle, f Frame) {
	if tb.statusBar {
		DrawStatusBar(s, tb.faces, box, f)
	}
	for i, g := range tb.groups {
		area := tb.groupBox(box, i)
		tb.renderGroup(s.Clip(area), g, area, f.Now)
	}
}

func (tb *TransitBoard) groupBox(box image.Rectangle, i int) image.Rectangle {
	reserved := 0
	if tb.statusBar {
		reserved = StatusBarHeight
	}
	per := (box.Dy() - reserved - statusGap) / max(1, len(tb.groups))
	per = max(0, per)
	top := box.Min.Y + i*per
	return image.Rect(box.Min.X, top, box.Max.X, top+per)
}

// rowsThatFit is how many of n rows fit below the header in area.
func rowsThatFit(area image.Rectangle, n int) int {
	y := area.Min.Y + headerHeight + headerGap
	fit := 0
	for i := 0; i < n; i++ {
		need := rowHeight
		if i > 0 {
			need += dividerGap
		}
		if y+need > area.Max.Y-bottomMargin {
			break
		}
		y += need
		fit++
	}
	return fit
}

func (tb *TransitBoard) renderGroup(s render.Surface, g departures.StopGroup, area image.Rectangle, now time.Time) {
	l, r := area.Min.X, area.Max.X
	y := area.Min.Y

	s.FillRoundRect(image.Rect(l, y, r, y+headerHeight), headerRadius, render.Black)
	x := l + rowMargin
	for _, m := range g.Modes {
		s.Blit(tb.icons.Get(m.Icon(), modeIconSize), image.Pt(x, y+2), render.White)
		x += modeIconStep
	}
	name := render.Truncate(tb.faces.Heading, g.Name, r-rowMargin-x)
	s.DrawText(tb.faces.Heading.Face, x, y+headerBaseline, name, render.White)
	y += headerHeight + headerGap

	rows := departures.Rank(g.Records, now, tb.window)
	fit := rowsThatFit(area, len(rows))
	for i, rec := range rows[:fit] {
		if i > 0 {
			s.HLine(l+dividerInset, r-dividerInset-1, y, render.Black)
			y += dividerGap
		}
		y = tb.renderRow(s, rec, l+rowMargin, y, r-rowMargin, now)
	}
}

// renderRow draws one departure between x positions l and r starting at
// top t and returns the top of the next row.
func (tb *TransitBoard) renderRow(s render.Surface, rec departures.Record, l, t, r int, now time.Time) int {
	title, heading, body := tb.faces.Title, tb.faces.Heading, tb.faces.Body
	y := t + titleAdvance

	suffix := heading.Width(minutesSuffix)
	render.DrawAligned(s, heading, r, y, minutesSuffix, layout.AlignEnd, render.Black)
	minutes := strconv.Itoa(rec.MinutesUntil(now))
	mw := render.DrawAligned(s, title, r-suffix, y, minutes, layout.AlignEnd, render.Black)
	line := render.Truncate(title, rec.Line, r-suffix-mw-rowMargin-l)
	s.DrawText(title.Face, l, y, line, render.Black)

	y += lineGap + bodyAdvance
	clock := rec.Effective().In(tb.loc).Format(clockLayout)
	cw := render.DrawAligned(s, body, r, y, clock, layout.AlignEnd, render.Black)
	reserved := cw + realtimeGap
	if rec.Realtime() {
		render.Realtime(s, r-cw-realtimeGap-realtimeSize, y-bodyAdvance, realtimeSize, render.Black)
		reserved += realtimeSize + realtimeGap/2
	}
	dest := render.Truncate(body, rec.Destination, r-reserved-l)
	s.DrawText(body.Face, l, y, dest, render.Black)

	return y + rowTrailer
}
