package device

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
)

const (
	defaultDialTimeout = 5 * time.Second
	// DefaultTimesyncMarker is touched by systemd-timesyncd after the first
	// successful sync.
	DefaultTimesyncMarker = "/run/systemd/timesync/synchronized"
	defaultMinYear        = 2024
)

// NetworkCheck dials a TCP address to prove the link is up.
type NetworkCheck struct {
	Address string
	Timeout time.Duration
	Dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

func (c NetworkCheck) Check(ctx context.Context) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dial := c.Dial
	if dial == nil {
		d := &net.Dialer{}
		dial = d.DialContext
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := dial(ctx, "tcp", c.Address)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrNetworkDown, c.Address, err)
	}
	return conn.Close()
}

// ClockCheck trusts the clock once the timesync marker exists or the
// current year is plausible.
type ClockCheck struct {
	MarkerPath string
	MinYear    int
	Now        func() time.Time
}

func (c ClockCheck) Check(context.Context) error {
	marker := c.MarkerPath
	if marker == "" {
		marker = DefaultTimesyncMarker
	}
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	minYear := c.MinYear
	if minYear == 0 {
		minYear = defaultMinYear
	}
	if y := now().Year(); y < minYear {
		return fmt.Errorf("%w: year %d", ErrClockUnsynced, y)
	}
	return nil
}
