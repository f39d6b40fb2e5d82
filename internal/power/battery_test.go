package power

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	th := DefaultThresholds()

	t.Run("zero at or below the floor", func(t *testing.T) {
		assert.Equal(t, 0, Percent(3000, 3000, 4200))
		assert.Equal(t, 0, Percent(2500, 3000, 4200))
	})

	t.Run("saturates near the top of the range", func(t *testing.T) {
		assert.Equal(t, 99, Percent(4200, 3000, 4200))
		assert.Equal(t, 100, Percent(4300, 3000, 4200))
		assert.Equal(t, 100, Percent(5000, 3000, 4200))
	})

	t.Run("sigmoid midpoint", func(t *testing.T) {
		// x = 1.724 * 0.5 = 0.862; 105 - 105/(1+0.862^5.5) ~= 32.2
		assert.Equal(t, 32, Percent(3600, 3000, 4200))
	})

	t.Run("degenerate range", func(t *testing.T) {
		assert.Equal(t, 0, Percent(3500, 4200, 3000))
	})

	t.Run("monotonic and clamped", func(t *testing.T) {
		prev := 0
		for mv := th.Critical; mv <= 4500; mv++ {
			p := th.Percent(mv)
			assert.GreaterOrEqual(t, p, prev, "at %d mV", mv)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
			prev = p
		}
	})
}

func TestTier(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		mv   int
		want Tier
	}{
		{4100, TierNormal},
		{3401, TierNormal},
		{3400, TierWarn},
		{3300, TierWarn},
		{3200, TierLow},
		{3150, TierLow},
		{3100, TierVeryLow},
		{3001, TierVeryLow},
		{3000, TierCritical},
		{0, TierCritical},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, th.Tier(tt.mv), "%d mV", tt.mv)
		})
	}
}

func TestWifi(t *testing.T) {
	tests := []struct {
		rssi int
		desc string
		frac float64
	}{
		{0, "No Connection", 0},
		{-40, "Excellent", 1},
		{-50, "Excellent", 1},
		{-55, "Good", 0.8},
		{-65, "Fair", 0.6},
		{-70, "Fair", 0.6},
		{-85, "Weak", 0.4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.desc, WifiDescription(tt.rssi), "rssi %d", tt.rssi)
		assert.InDelta(t, tt.frac, WifiFraction(tt.rssi), 1e-9, "rssi %d", tt.rssi)
	}
}

func TestSchedulerBattery(t *testing.T) {
	s := NewScheduler(DefaultPolicy(), DefaultThresholds(), 0)
	assert.Equal(t, DefaultDeepSleepThreshold, s.DeepSleepThreshold)

	_, override := s.Battery(3900)
	assert.False(t, override)

	d, override := s.Battery(3350)
	assert.False(t, override)
	assert.Equal(t, TierWarn, d.Tier)

	d, override = s.Battery(3150)
	assert.True(t, override)
	assert.Equal(t, ActionBatteryWarning, d.Action)
	assert.Equal(t, 30*time.Minute, d.Sleep)
	assert.True(t, d.Deep)

	d, override = s.Battery(3050)
	assert.True(t, override)
	assert.Equal(t, ActionBatteryWarning, d.Action)
	assert.Equal(t, 120*time.Minute, d.Sleep)

	d, override = s.Battery(2900)
	assert.True(t, override)
	assert.Equal(t, ActionHalt, d.Action)
}

func TestSchedulerNext(t *testing.T) {
	s := NewScheduler(DefaultPolicy(), DefaultThresholds(), 5*time.Minute)

	d := s.Next(clock(10, 0, 30), false)
	assert.Equal(t, 30*time.Second, d.Sleep)
	assert.False(t, d.Deep)

	d = s.Next(clock(10, 0, 30), true)
	assert.True(t, d.Deep)

	d = s.Next(clock(23, 0, 0), false)
	assert.Equal(t, 7*time.Hour, d.Sleep)
	assert.True(t, d.Deep)

	var p Policy
	p[10] = 12
	s = NewScheduler(p, DefaultThresholds(), 5*time.Minute)
	d = s.Next(clock(10, 0, 0), false)
	assert.Equal(t, 5*time.Minute, d.Sleep)
	assert.True(t, d.Deep, "threshold is inclusive")
}
