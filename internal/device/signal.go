package device

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultWirelessPath is the kernel's wireless statistics table.
const DefaultWirelessPath = "/proc/net/wireless"

// WirelessProc reads the signal level of one interface from /proc.
type WirelessProc struct {
	Path string
	// Interface is the device name, e.g. "wlan0". Empty takes the first row.
	Interface string
}

// RSSI returns the level column in dBm, or zero when the interface is
// not associated.
func (w WirelessProc) RSSI() (int, error) {
	path := w.Path
	if path == "" {
		path = DefaultWirelessPath
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("device: open %s: %w", path, err)
	}
	defer f.Close()
	return parseWireless(f, w.Interface)
}

func parseWireless(r io.Reader, iface string) (int, error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line <= 2 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		name := strings.TrimSuffix(fields[0], ":")
		if iface != "" && name != iface {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			return 0, fmt.Errorf("device: parse level %q for %s: %w", fields[3], name, err)
		}
		return int(level), nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("device: read wireless table: %w", err)
	}
	return 0, nil
}
