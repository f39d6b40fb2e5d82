// Package cycle runs the board's wake, fetch, draw and sleep loop.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"transit-board-go/internal/device"
	"transit-board-go/internal/feed"
	"transit-board-go/internal/icons"
	"transit-board-go/internal/logging"
	"transit-board-go/internal/metrics"
	"transit-board-go/internal/panel"
	"transit-board-go/internal/power"
	"transit-board-go/internal/render"
)

var (
	ErrNetworkUnavailable  = errors.New("cycle: network unavailable")
	ErrTimeSyncUnavailable = errors.New("cycle: time sync unavailable")
	// ErrHalted is returned once the battery is too low to continue.
	ErrHalted = errors.New("cycle: halted on critical battery")
)

const (
	resultOK      = "ok"
	resultPartial = "partial"
	resultFailed  = "failed"
	resultFatal   = "fatal"
	resultBattery = "battery"

	offlineIcon = "wifi_off"
)

// Clock returns the current time.
type Clock func() time.Time

// Runner owns the hardware edges and the apps, and carries the scheduler
// context from one cycle to the next.
type Runner struct {
	Panel   device.Panel
	Sleeper device.Sleeper
	Battery device.BatterySensor
	Signal  device.SignalReader
	// Network and TimeSync are optional preflight checks.
	Network  device.Checker
	TimeSync device.Checker

	Slots []panel.Slot
	Faces render.Faces
	Icons *icons.Set

	Scheduler        power.Scheduler
	TimeSyncInterval time.Duration
	MaxPartial       int
	// PageHeight renders the frame in bands of this many rows. Zero draws
	// it in one pass.
	PageHeight int

	Metrics      *metrics.Metrics
	TextfilePath string
	Log          logrus.FieldLogger
	Now          Clock
	Location     *time.Location

	state   power.Context
	started bool
}

// Outcome summarises one cycle.
type Outcome struct {
	ID     string
	Result string
	Action power.Action
	Tier   power.Tier
	Power  power.State
	// BatteryRead is false when the gauge could not be read.
	BatteryRead bool
	Failed      []string
	Pushed      bool
	Mode        power.RefreshMode
	Shown       int
	Sleep       time.Duration
	Deep        bool
	Duration    time.Duration
}

// Context exposes the state carried between cycles.
func (r *Runner) Context() power.Context {
	r.init()
	return r.state
}

func (r *Runner) init() {
	if r.started {
		return
	}
	r.state = power.NewContext(r.MaxPartial)
	r.started = true
}

// RunOnce performs a single cycle and returns the sleep it wants. A non-nil
// error still comes with a usable Outcome unless it is a push failure.
func (r *Runner) RunOnce(ctx context.Context) (Outcome, error) {
	r.init()
	start := r.now()
	out := Outcome{ID: uuid.NewString(), Action: power.ActionRender}
	log := r.logger().WithField("cycle_id", out.ID)
	ctx = logging.WithLogger(ctx, log)

	err := r.runCycle(ctx, start, &out)

	out.Duration = r.now().Sub(start)
	r.record(log, out)
	return out, err
}

func (r *Runner) runCycle(ctx context.Context, now time.Time, out *Outcome) error {
	log := logging.FromContext(ctx)

	if err := r.preflight(ctx, now); err != nil {
		out.Result = resultFatal
		line := "Wifi Connection Failed"
		if errors.Is(err, ErrTimeSyncUnavailable) {
			line = "Time Synchronization Failed"
		}
		logging.LogError(log, "Preflight check failed", err, logrus.Fields{"component": "cycle"})
		if perr := r.pushFatal(out, line); perr != nil {
			logging.LogError(log, "Failed to draw error panel", perr, logrus.Fields{"component": "cycle"})
		}
		r.schedule(now, true, out)
		return err
	}

	out.Power, out.BatteryRead = r.sample(log, now)

	if d, override := r.Scheduler.Battery(out.Power.Millivolts); override {
		out.Result = resultBattery
		out.Action = d.Action
		out.Tier = d.Tier
		out.Sleep = d.Sleep
		out.Deep = d.Deep
		log.WithFields(logrus.Fields{
			"millivolts": out.Power.Millivolts,
			"tier":       d.Tier.String(),
			"action":     d.Action.String(),
		}).Warn("Battery low; skipping apps")
		if err := r.pushBattery(out); err != nil {
			if d.Action != power.ActionHalt {
				return err
			}
			logging.LogError(log, "Failed to draw battery warning", err, logrus.Fields{"component": "cycle"})
		}
		if d.Action == power.ActionHalt {
			return ErrHalted
		}
		return nil
	}
	out.Tier = r.Scheduler.Thresholds.Tier(out.Power.Millivolts)

	failed := panel.FetchAll(ctx, r.Slots)
	for _, sl := range r.Slots {
		err, bad := failed[sl.App]
		if !bad {
			continue
		}
		name := sl.App.Name()
		kind := feed.Kind(err)
		out.Failed = append(out.Failed, name)
		if r.Metrics != nil {
			r.Metrics.FetchFailed(name, kind)
		}
		logging.LogError(log, "Fetch failed; keeping stale slot", err, logrus.Fields{
			"component": "cycle",
			"source":    name,
			"kind":      kind,
		})
	}
	sort.Strings(out.Failed)

	switch {
	case len(r.Slots) > 0 && len(failed) == len(r.Slots):
		out.Result = resultFailed
		log.Warn("Every source failed; leaving the panel as it is")
	default:
		out.Result = resultOK
		if len(failed) > 0 {
			out.Result = resultPartial
		}
		if err := r.pushApps(now, failed, out); err != nil {
			return err
		}
	}

	r.schedule(now, false, out)
	return nil
}

// preflight checks the link every cycle and the clock when it is due.
func (r *Runner) preflight(ctx context.Context, now time.Time) error {
	if r.Network != nil {
		if err := r.Network.Check(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
		}
	}
	if r.TimeSync != nil && r.state.NeedsTimeSync(now, r.TimeSyncInterval) {
		if err := r.TimeSync.Check(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrTimeSyncUnavailable, err)
		}
		r.state.LastTimeSync = now
	}
	return nil
}

// sample reads the battery and link. A failed battery read is reported as
// a full cell so a flaky gauge cannot halt the board.
func (r *Runner) sample(log logrus.FieldLogger, now time.Time) (power.State, bool) {
	st := power.State{UpdatedAt: now, Millivolts: r.Scheduler.Thresholds.Max}
	read := false
	if r.Battery != nil {
		if mv, err := r.Battery.Millivolts(); err != nil {
			log.WithError(err).Warn("Battery read failed")
		} else {
			st.Millivolts = mv
			read = true
		}
	}
	st.Percent = r.Scheduler.Thresholds.Percent(st.Millivolts)
	if !read {
		st.Percent = 100
	}
	if r.Signal != nil {
		if rssi, err := r.Signal.RSSI(); err != nil {
			log.WithError(err).Warn("Signal read failed")
		} else {
			st.RSSI = rssi
		}
	}
	return st, read
}

func (r *Runner) pushApps(now time.Time, failed map[panel.App]error, out *Outcome) error {
	c := r.baseCanvas()
	frame := panel.Frame{Now: now, Power: out.Power}
	c.Pages(func(s render.Surface) {
		panel.Compose(s, r.Slots, frame, failed)
	})
	for _, sl := range r.Slots {
		if _, bad := failed[sl.App]; bad {
			continue
		}
		if counter, ok := sl.App.(interface {
			Shown(box image.Rectangle, now time.Time) int
		}); ok {
			out.Shown += counter.Shown(sl.Box, now)
		}
	}
	return r.push(c, out)
}

func (r *Runner) pushFatal(out *Outcome, line string) error {
	c := render.NewCanvas(r.Panel.Bounds().Dx(), r.Panel.Bounds().Dy())
	c.SetPageHeight(r.PageHeight)
	c.Pages(func(s render.Surface) {
		panel.DrawError(s, r.Faces, r.Icons, offlineIcon, line, "")
	})
	r.state.Refresh.Reset()
	return r.push(c, out)
}

func (r *Runner) pushBattery(out *Outcome) error {
	c := render.NewCanvas(r.Panel.Bounds().Dx(), r.Panel.Bounds().Dy())
	c.SetPageHeight(r.PageHeight)
	c.Pages(func(s render.Surface) {
		panel.DrawBatteryWarning(s, out.Power.Percent)
	})
	r.state.Refresh.Reset()
	return r.push(c, out)
}

// baseCanvas starts from the last frame so stale slots keep their pixels.
func (r *Runner) baseCanvas() *render.Canvas {
	b := r.Panel.Bounds()
	var c *render.Canvas
	if last := r.Panel.LastFrame(); last != nil && last.Rect.Eq(b) {
		c = render.CanvasFrom(last)
	} else {
		c = render.NewCanvas(b.Dx(), b.Dy())
	}
	c.SetPageHeight(r.PageHeight)
	return c
}

func (r *Runner) push(c *render.Canvas, out *Outcome) error {
	mode := r.state.Refresh.Next()
	if err := r.Panel.Push(c.Image(), mode); err != nil {
		r.state.Refresh.Reset()
		return fmt.Errorf("cycle: push frame: %w", err)
	}
	out.Pushed = true
	out.Mode = mode
	return nil
}

func (r *Runner) schedule(now time.Time, forceDeep bool, out *Outcome) {
	d := r.Scheduler.Next(now, forceDeep)
	out.Sleep = d.Sleep
	out.Deep = d.Deep
}

func (r *Runner) record(log logrus.FieldLogger, out Outcome) {
	fields := logrus.Fields{
		"component":   "cycle",
		"result":      out.Result,
		"action":      out.Action.String(),
		"tier":        out.Tier.String(),
		"millivolts":  out.Power.Millivolts,
		"percent":     out.Power.Percent,
		"rssi":        out.Power.RSSI,
		"pushed":      out.Pushed,
		"shown":       out.Shown,
		"sleep":       out.Sleep.String(),
		"deep":        out.Deep,
		"duration":    out.Duration,
		"failed_apps": out.Failed,
	}
	if out.Pushed {
		fields["refresh"] = out.Mode.String()
	}
	logging.LogOperation(log, "Cycle complete", fields)

	if r.Metrics == nil {
		return
	}
	r.Metrics.ObserveCycle(out.Result, out.Duration)
	if out.BatteryRead {
		r.Metrics.SetBattery(out.Power.Millivolts, out.Power.Percent)
	}
	r.Metrics.SetSleep(out.Sleep)
	if out.Pushed {
		r.Metrics.SetDeparturesShown(out.Shown)
	}
	if err := r.Metrics.WriteTextfile(r.TextfilePath); err != nil {
		log.WithError(err).Warn("Metrics export failed")
	}
}

// Run cycles until ctx is cancelled or the battery forces a halt.
func (r *Runner) Run(ctx context.Context) error {
	log := r.logger()
	for {
		out, err := r.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrHalted):
			if herr := r.Sleeper.Halt(ctx); herr != nil {
				return errors.Join(ErrHalted, herr)
			}
			return ErrHalted
		case err != nil && !out.Deep:
			// Push failures carry no schedule of their own.
			r.schedule(r.now(), false, &out)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.sleep(ctx, out); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("Sleep interrupted")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (r *Runner) sleep(ctx context.Context, out Outcome) error {
	if !out.Deep {
		return r.Sleeper.Delay(ctx, out.Sleep)
	}
	_, err := r.Sleeper.DeepSleep(ctx, out.Sleep)
	// The panel is off after DeepSleep even when it fell back to a wait.
	r.state.Refresh.Reset()
	return err
}

func (r *Runner) now() time.Time {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	if r.Location != nil {
		now = now.In(r.Location)
	}
	return now
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}
