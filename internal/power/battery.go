package power

import (
	"math"
	"time"
)

// Tier classifies the battery voltage.
type Tier int

const (
	TierNormal Tier = iota
	TierWarn
	TierLow
	TierVeryLow
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierWarn:
		return "warn"
	case TierLow:
		return "low"
	case TierVeryLow:
		return "very_low"
	case TierCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Thresholds are battery voltages in millivolts. A reading at or below a
// threshold falls into that tier.
type Thresholds struct {
	Max      int
	Warn     int
	Low      int
	VeryLow  int
	Critical int

	LowSleep     time.Duration
	VeryLowSleep time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Max:          4200,
		Warn:         3400,
		Low:          3200,
		VeryLow:      3100,
		Critical:     3000,
		LowSleep:     30 * time.Minute,
		VeryLowSleep: 120 * time.Minute,
	}
}

func (t Thresholds) Tier(mv int) Tier {
	switch {
	case mv <= t.Critical:
		return TierCritical
	case mv <= t.VeryLow:
		return TierVeryLow
	case mv <= t.Low:
		return TierLow
	case mv <= t.Warn:
		return TierWarn
	default:
		return TierNormal
	}
}

// Percent maps the battery voltage onto a 0-100 charge estimate with a
// sigmoid fitted to a LiPo discharge curve. It is non-decreasing in mv.
func Percent(mv, minMV, maxMV int) int {
	if mv <= minMV || maxMV <= minMV {
		return 0
	}
	x := 1.724 * float64(mv-minMV) / float64(maxMV-minMV)
	p := 105 - 105/(1+math.Pow(x, 5.5))
	if p >= 100 {
		return 100
	}
	return int(p)
}

// Percent applies the thresholds' discharge range.
func (t Thresholds) Percent(mv int) int {
	return Percent(mv, t.Critical, t.Max)
}
