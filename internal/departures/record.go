package departures

import (
	"math"
	"time"
)

// Mode is the feed's transport product icon id.
type Mode int

const (
	ModeRail      Mode = 1
	ModeMetro     Mode = 2
	ModeLightRail Mode = 4
	ModeBus       Mode = 5
	ModeFerry     Mode = 9
	ModeSchoolBus Mode = 11
)

// Icon names the glyph drawn for the mode. Unknown modes fall back to the bus.
func (m Mode) Icon() string {
	switch m {
	case ModeRail:
		return "train"
	case ModeMetro:
		return "metro"
	case ModeLightRail:
		return "lightrail"
	case ModeFerry:
		return "ferry"
	default:
		return "bus"
	}
}

// Record is a normalized departure.
type Record struct {
	Line        string
	Destination string
	// Scheduled is the zero time when the feed gave no planned time.
	Scheduled          time.Time
	Estimated          *time.Time
	RealtimeControlled bool
	Cancelled          bool
	Mode               Mode
	// Seq is the event's position in the feed.
	Seq int
}

// Effective is the time a rider should trust: the estimate when the service
// is tracked and an estimate exists, the scheduled time otherwise.
func (r Record) Effective() time.Time {
	if r.RealtimeControlled && r.Estimated != nil {
		return *r.Estimated
	}
	if !r.Scheduled.IsZero() {
		return r.Scheduled
	}
	if r.Estimated != nil {
		return *r.Estimated
	}
	return time.Time{}
}

// Realtime reports whether the real-time indicator applies.
func (r Record) Realtime() bool {
	return r.RealtimeControlled && r.Estimated != nil
}

// MinutesUntil returns whole minutes from now to the effective time, rounded
// down. Departures already gone yield negative values.
func (r Record) MinutesUntil(now time.Time) int {
	return int(math.Floor(r.Effective().Sub(now).Minutes()))
}

// StopGroup is everything shown for one physical stop in one cycle.
type StopGroup struct {
	StopID  string
	Name    string
	Records []Record
	Modes   []Mode
}
