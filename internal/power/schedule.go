package power

import (
	"fmt"
	"time"
)

// Policy holds the number of refreshes wanted in each hour of the day.
// Zero means the panel is left alone for that hour.
type Policy [24]int

// DefaultPolicy refreshes every minute through the day, twice as often in
// the morning peak, and not at all overnight.
func DefaultPolicy() Policy {
	return Policy{0, 0, 0, 0, 0, 0, 60, 120, 120, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 0, 0}
}

// PolicyFromSlice validates and converts a configured table.
func PolicyFromSlice(counts []int) (Policy, error) {
	var p Policy
	if len(counts) != len(p) {
		return p, fmt.Errorf("power: refresh schedule needs %d entries, got %d", len(p), len(counts))
	}
	active := false
	for h, n := range counts {
		if n < 0 || n > 3600 {
			return p, fmt.Errorf("power: refresh count %d for hour %d out of range [0,3600]", n, h)
		}
		if n > 0 {
			active = true
		}
		p[h] = n
	}
	if !active {
		return p, fmt.Errorf("power: refresh schedule has no active hour")
	}
	return p, nil
}

// NextSleepSeconds returns how long to sleep so the next wake lands on the
// next refresh slot. A slot that would fall past the end of the current hour
// is dropped in favour of the first slot of the next hour with a non-zero
// count, so the board never wakes during a zero-refresh hour.
func NextSleepSeconds(now time.Time, p Policy) int {
	hour := now.Hour()
	into := now.Minute()*60 + now.Second()

	if n := p[hour]; n > 0 {
		interval := 3600 / n
		if interval < 1 {
			interval = 1
		}
		sleep := interval - into%interval
		if into+sleep < 3600 {
			return sleep
		}
	}

	sleep := 3600 - into
	h := (hour + 1) % 24
	// A table with no active hour still wakes once a day.
	for i := 0; i < 23 && p[h] == 0; i++ {
		sleep += 3600
		h = (h + 1) % 24
	}
	return sleep
}
