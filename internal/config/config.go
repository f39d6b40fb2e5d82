package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"transit-board-go/internal/device"
	"transit-board-go/internal/power"
)

// Config holds all configuration for the board.
type Config struct {
	Display  DisplayConfig  `mapstructure:"display"`
	Transit  TransitConfig  `mapstructure:"transit"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Power    PowerConfig    `mapstructure:"power"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Time     TimeConfig     `mapstructure:"time"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type DisplayConfig struct {
	// Driver is "epd" for the Waveshare HAT or "preview" for a PNG file.
	Driver      string `mapstructure:"driver"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	Rotation    int    `mapstructure:"rotation"`
	Dark        bool   `mapstructure:"dark"`
	SPIPort     string `mapstructure:"spi_port"`
	PreviewPath string `mapstructure:"preview_path"`
	PageHeight  int    `mapstructure:"page_height"`
	Margin      int    `mapstructure:"margin"`
	FontRegular string `mapstructure:"font_regular"`
	FontBold    string `mapstructure:"font_bold"`
	IconDir     string `mapstructure:"icon_dir"`
}

type TransitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	StopIDs   []string      `mapstructure:"stop_ids"`
	Window    time.Duration `mapstructure:"window"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	StatusBar bool          `mapstructure:"status_bar"`
}

type WeatherConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	City    string        `mapstructure:"city"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LayoutConfig weights the vertical share of each app.
type LayoutConfig struct {
	TransitWeight int `mapstructure:"transit_weight"`
	WeatherWeight int `mapstructure:"weather_weight"`
}

type PowerConfig struct {
	RefreshPerHour      []int         `mapstructure:"refresh_per_hour"`
	DeepSleepThreshold  time.Duration `mapstructure:"deep_sleep_threshold"`
	MaxPartialRefreshes int           `mapstructure:"max_partial_refreshes"`
	TimeSyncInterval    time.Duration `mapstructure:"time_sync_interval"`
	MaxMillivolts       int           `mapstructure:"max_millivolts"`
	WarnMillivolts      int           `mapstructure:"warn_millivolts"`
	LowMillivolts       int           `mapstructure:"low_millivolts"`
	VeryLowMillivolts   int           `mapstructure:"very_low_millivolts"`
	CriticalMillivolts  int           `mapstructure:"critical_millivolts"`
	LowSleep            time.Duration `mapstructure:"low_sleep"`
	VeryLowSleep        time.Duration `mapstructure:"very_low_sleep"`
	WakeAlarmPath       string        `mapstructure:"wake_alarm_path"`
	PowerOffCommand     []string      `mapstructure:"power_off_command"`
}

type HardwareConfig struct {
	// Battery is "max17048" or "fixed".
	Battery         string `mapstructure:"battery"`
	I2CBus          string `mapstructure:"i2c_bus"`
	GaugeAddress    int    `mapstructure:"gauge_address"`
	FixedMillivolts int    `mapstructure:"fixed_millivolts"`
	// Signal is "proc" or "fixed".
	Signal            string `mapstructure:"signal"`
	WirelessInterface string `mapstructure:"wireless_interface"`
	FixedRSSI         int    `mapstructure:"fixed_rssi"`
	NetworkCheck      string `mapstructure:"network_check"`
	TimesyncMarker    string `mapstructure:"timesync_marker"`
}

// TimeConfig selects how feed times are presented. Zone, when set, wins
// over the fixed offset.
type TimeConfig struct {
	Zone       string        `mapstructure:"zone"`
	OffsetName string        `mapstructure:"offset_name"`
	UTCOffset  time.Duration `mapstructure:"utc_offset"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
	DebugAddr    string `mapstructure:"debug_addr"`
}

// Load reads configuration from path, expanding ${VAR} references, then
// applies BOARD_* environment overrides. An empty path yields defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Round-trip through a map to reject malformed YAML early.
		var rawConfig map[string]interface{}
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
		}
		data, err = yaml.Marshal(rawConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal raw config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewReader([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("display.driver", "preview")
	v.SetDefault("display.width", 480)
	v.SetDefault("display.height", 800)
	v.SetDefault("display.rotation", 0)
	v.SetDefault("display.dark", false)
	v.SetDefault("display.spi_port", "")
	v.SetDefault("display.preview_path", "frame.png")
	v.SetDefault("display.page_height", 0)
	v.SetDefault("display.margin", 8)
	v.SetDefault("display.font_regular", "")
	v.SetDefault("display.font_bold", "")
	v.SetDefault("display.icon_dir", "")

	v.SetDefault("transit.enabled", true)
	v.SetDefault("transit.api_key", "")
	v.SetDefault("transit.base_url", "")
	v.SetDefault("transit.stop_ids", []string{})
	v.SetDefault("transit.window", "1h")
	v.SetDefault("transit.timeout", "20s")
	v.SetDefault("transit.rate_limit", 2.0)
	v.SetDefault("transit.burst", 2)
	v.SetDefault("transit.status_bar", true)

	v.SetDefault("weather.enabled", false)
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.base_url", "")
	v.SetDefault("weather.city", "")
	v.SetDefault("weather.timeout", "20s")

	v.SetDefault("layout.transit_weight", 3)
	v.SetDefault("layout.weather_weight", 1)

	p := power.DefaultPolicy()
	v.SetDefault("power.refresh_per_hour", p[:])
	v.SetDefault("power.deep_sleep_threshold", power.DefaultDeepSleepThreshold.String())
	v.SetDefault("power.max_partial_refreshes", power.DefaultMaxPartialRefreshes)
	v.SetDefault("power.time_sync_interval", power.DefaultTimeSyncInterval.String())
	t := power.DefaultThresholds()
	v.SetDefault("power.max_millivolts", t.Max)
	v.SetDefault("power.warn_millivolts", t.Warn)
	v.SetDefault("power.low_millivolts", t.Low)
	v.SetDefault("power.very_low_millivolts", t.VeryLow)
	v.SetDefault("power.critical_millivolts", t.Critical)
	v.SetDefault("power.low_sleep", t.LowSleep.String())
	v.SetDefault("power.very_low_sleep", t.VeryLowSleep.String())
	v.SetDefault("power.wake_alarm_path", device.DefaultWakeAlarmPath)
	v.SetDefault("power.power_off_command", []string{})

	v.SetDefault("hardware.battery", "fixed")
	v.SetDefault("hardware.i2c_bus", "")
	v.SetDefault("hardware.gauge_address", device.MAX17048Addr)
	v.SetDefault("hardware.fixed_millivolts", t.Max)
	v.SetDefault("hardware.signal", "fixed")
	v.SetDefault("hardware.wireless_interface", "wlan0")
	v.SetDefault("hardware.fixed_rssi", -50)
	v.SetDefault("hardware.network_check", "api.transport.nsw.gov.au:443")
	v.SetDefault("hardware.timesync_marker", device.DefaultTimesyncMarker)

	v.SetDefault("time.zone", "")
	v.SetDefault("time.offset_name", "AEST")
	v.SetDefault("time.utc_offset", "10h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("metrics.debug_addr", "")
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	switch c.Display.Driver {
	case "epd", "preview":
	default:
		errs = append(errs, fmt.Errorf("display.driver %q must be epd or preview", c.Display.Driver))
	}
	if c.Display.Driver == "preview" && (c.Display.Width <= 0 || c.Display.Height <= 0) {
		errs = append(errs, fmt.Errorf("display size %dx%d must be positive", c.Display.Width, c.Display.Height))
	}
	if c.Display.Margin < 0 {
		errs = append(errs, errors.New("display.margin must not be negative"))
	}

	if !c.Transit.Enabled && !c.Weather.Enabled {
		errs = append(errs, errors.New("at least one of transit or weather must be enabled"))
	}
	if c.Transit.Enabled {
		if strings.TrimSpace(c.Transit.APIKey) == "" {
			errs = append(errs, errors.New("transit.api_key is required"))
		}
		if len(c.Transit.StopIDs) == 0 {
			errs = append(errs, errors.New("transit.stop_ids needs at least one stop"))
		}
		for i, id := range c.Transit.StopIDs {
			if strings.TrimSpace(id) == "" {
				errs = append(errs, fmt.Errorf("transit.stop_ids[%d] is empty", i))
			}
		}
		if c.Transit.Window <= 0 {
			errs = append(errs, errors.New("transit.window must be positive"))
		}
	}
	if c.Weather.Enabled {
		if strings.TrimSpace(c.Weather.APIKey) == "" {
			errs = append(errs, errors.New("weather.api_key is required"))
		}
		if strings.TrimSpace(c.Weather.City) == "" {
			errs = append(errs, errors.New("weather.city is required"))
		}
	}

	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	t := c.Thresholds()
	if !(t.Max > t.Warn && t.Warn > t.Low && t.Low > t.VeryLow && t.VeryLow > t.Critical && t.Critical > 0) {
		errs = append(errs, fmt.Errorf("battery thresholds must descend: max %d > warn %d > low %d > very_low %d > critical %d > 0",
			t.Max, t.Warn, t.Low, t.VeryLow, t.Critical))
	}
	if c.Power.DeepSleepThreshold <= 0 {
		errs = append(errs, errors.New("power.deep_sleep_threshold must be positive"))
	}
	if c.Power.LowSleep <= 0 {
		errs = append(errs, errors.New("power.low_sleep must be positive"))
	}
	if c.Power.VeryLowSleep <= 0 {
		errs = append(errs, errors.New("power.very_low_sleep must be positive"))
	}

	switch c.Hardware.Battery {
	case "max17048", "fixed":
	default:
		errs = append(errs, fmt.Errorf("hardware.battery %q must be max17048 or fixed", c.Hardware.Battery))
	}
	switch c.Hardware.Signal {
	case "proc", "fixed":
	default:
		errs = append(errs, fmt.Errorf("hardware.signal %q must be proc or fixed", c.Hardware.Signal))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy converts the configured refresh table.
func (c *Config) Policy() (power.Policy, error) {
	return power.PolicyFromSlice(c.Power.RefreshPerHour)
}

func (c *Config) Thresholds() power.Thresholds {
	return power.Thresholds{
		Max:          c.Power.MaxMillivolts,
		Warn:         c.Power.WarnMillivolts,
		Low:          c.Power.LowMillivolts,
		VeryLow:      c.Power.VeryLowMillivolts,
		Critical:     c.Power.CriticalMillivolts,
		LowSleep:     c.Power.LowSleep,
		VeryLowSleep: c.Power.VeryLowSleep,
	}
}

// Location is the zone departures and the clock are shown in.
func (c *Config) Location() (*time.Location, error) {
	if c.Time.Zone != "" {
		loc, err := time.LoadLocation(c.Time.Zone)
		if err != nil {
			return nil, fmt.Errorf("time.zone: %w", err)
		}
		return loc, nil
	}
	name := c.Time.OffsetName
	if name == "" {
		name = "UTC" + c.Time.UTCOffset.String()
	}
	return time.FixedZone(name, int(c.Time.UTCOffset/time.Second)), nil
}
