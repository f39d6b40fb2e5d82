package power

import "time"

const (
	// DefaultDeepSleepThreshold is the shortest sleep that powers the board down.
	DefaultDeepSleepThreshold = 5 * time.Minute
	// DefaultMaxPartialRefreshes is how many partial refreshes run between full ones.
	DefaultMaxPartialRefreshes = 10
	// DefaultTimeSyncInterval is how stale the last clock check may get.
	DefaultTimeSyncInterval = time.Hour
)

// State is the power and link status sampled at the start of a cycle.
type State struct {
	Millivolts int
	Percent    int
	RSSI       int
	UpdatedAt  time.Time
}

// Action is what a cycle should do with the panel.
type Action int

const (
	ActionRender Action = iota
	ActionBatteryWarning
	ActionHalt
)

func (a Action) String() string {
	switch a {
	case ActionBatteryWarning:
		return "battery_warning"
	case ActionHalt:
		return "halt"
	default:
		return "render"
	}
}

// Decision is the scheduler's verdict for a cycle.
type Decision struct {
	Action Action
	Tier   Tier
	Sleep  time.Duration
	Deep   bool
}

// Scheduler turns the refresh policy and battery thresholds into decisions.
type Scheduler struct {
	Policy             Policy
	Thresholds         Thresholds
	DeepSleepThreshold time.Duration
}

func NewScheduler(p Policy, t Thresholds, deepSleep time.Duration) Scheduler {
	if deepSleep <= 0 {
		deepSleep = DefaultDeepSleepThreshold
	}
	return Scheduler{Policy: p, Thresholds: t, DeepSleepThreshold: deepSleep}
}

// Battery decides whether the battery level overrides the normal cycle.
// ok is false when the cycle should proceed as usual.
func (s Scheduler) Battery(mv int) (d Decision, ok bool) {
	tier := s.Thresholds.Tier(mv)
	switch tier {
	case TierCritical:
		return Decision{Action: ActionHalt, Tier: tier, Deep: true}, true
	case TierVeryLow:
		return Decision{Action: ActionBatteryWarning, Tier: tier, Sleep: s.Thresholds.VeryLowSleep, Deep: true}, true
	case TierLow:
		return Decision{Action: ActionBatteryWarning, Tier: tier, Sleep: s.Thresholds.LowSleep, Deep: true}, true
	}
	return Decision{Action: ActionRender, Tier: tier}, false
}

// Next schedules the following wake from the refresh policy. forceDeep
// powers down regardless of the sleep length.
func (s Scheduler) Next(now time.Time, forceDeep bool) Decision {
	sleep := time.Duration(NextSleepSeconds(now, s.Policy)) * time.Second
	return Decision{
		Action: ActionRender,
		Sleep:  sleep,
		Deep:   forceDeep || sleep >= s.DeepSleepThreshold,
	}
}

// RefreshMode selects how the panel redraws.
type RefreshMode int

const (
	RefreshFull RefreshMode = iota
	RefreshPartial
)

func (m RefreshMode) String() string {
	if m == RefreshPartial {
		return "partial"
	}
	return "full"
}

// RefreshCounter alternates one full refresh with a run of partial ones.
// Count is 0 before the first push and never exceeds MaxPartial+1.
type RefreshCounter struct {
	Count      int
	MaxPartial int
}

// Next returns the mode for the coming push and advances the counter.
func (r *RefreshCounter) Next() RefreshMode {
	limit := r.MaxPartial
	if limit <= 0 {
		limit = DefaultMaxPartialRefreshes
	}
	if r.Count == 0 || r.Count > limit {
		r.Count = 1
		return RefreshFull
	}
	r.Count++
	return RefreshPartial
}

// Reset forces the next push to be a full refresh.
func (r *RefreshCounter) Reset() {
	r.Count = 0
}

// Context is the state carried from one cycle to the next.
type Context struct {
	LastTimeSync time.Time
	Refresh      RefreshCounter
}

func NewContext(maxPartial int) Context {
	return Context{Refresh: RefreshCounter{MaxPartial: maxPartial}}
}

// NeedsTimeSync reports whether the clock should be re-checked.
func (c Context) NeedsTimeSync(now time.Time, every time.Duration) bool {
	if every <= 0 {
		every = DefaultTimeSyncInterval
	}
	return c.LastTimeSync.IsZero() || now.Sub(c.LastTimeSync) > every
}
