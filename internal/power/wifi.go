package power

// WifiDescription labels a signal strength in dBm. Zero means no link.
func WifiDescription(rssi int) string {
	switch {
	case rssi == 0:
		return "No Connection"
	case rssi >= -50:
		return "Excellent"
	case rssi >= -60:
		return "Good"
	case rssi >= -70:
		return "Fair"
	default:
		return "Weak"
	}
}

// WifiFraction is the share of the signal glyph to fill.
func WifiFraction(rssi int) float64 {
	switch {
	case rssi == 0:
		return 0
	case rssi >= -50:
		return 1
	case rssi >= -60:
		return 0.8
	case rssi >= -70:
		return 0.6
	default:
		return 0.4
	}
}
