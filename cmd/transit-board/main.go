// Command transit-board drives a battery-powered e-paper panel showing
// upcoming departures and the current weather.
//
// Usage:
//
//	transit-board [flags]
//
// The flags are:
//
//	-config string
//	      path to the YAML config file
//	-once
//	      run a single cycle and exit without sleeping
//	-preview string
//	      write frames to this PNG instead of driving the panel
//	-debug-addr string
//	      serve /metrics, /frame.png and /healthz on this address
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"transit-board-go/internal/config"
	"transit-board-go/internal/cycle"
	"transit-board-go/internal/debugserver"
	"transit-board-go/internal/device"
	"transit-board-go/internal/feed"
	"transit-board-go/internal/icons"
	"transit-board-go/internal/logging"
	"transit-board-go/internal/metrics"
	"transit-board-go/internal/panel"
	"transit-board-go/internal/power"
	"transit-board-go/internal/render"
)

const networkCheckTimeout = 5 * time.Second

type flags struct {
	configPath string
	once       bool
	preview    string
	debugAddr  string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to the YAML config file")
	flag.BoolVar(&f.once, "once", false, "run a single cycle and exit without sleeping")
	flag.StringVar(&f.preview, "preview", "", "write frames to this PNG instead of driving the panel")
	flag.StringVar(&f.debugAddr, "debug-addr", "", "serve /metrics, /frame.png and /healthz on this address")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if f.preview != "" {
		cfg.Display.Driver = "preview"
		cfg.Display.PreviewPath = f.preview
	}
	if f.debugAddr != "" {
		cfg.Metrics.DebugAddr = f.debugAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f.once, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Board stopped")
	}
	logger.Info("Board stopped")
}

func run(ctx context.Context, cfg *config.Config, once bool, logger *logrus.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	display, err := openPanel(cfg, logger)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(display, logger, "close panel")

	battery, closer, err := openBattery(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer logging.SafeCloseWithLogging(closer, logger, "close battery gauge")
	}

	faces, err := render.LoadFaces(cfg.Display.FontRegular, cfg.Display.FontBold)
	if err != nil {
		return err
	}
	set := icons.New(cfg.Display.IconDir)

	apps, weights, err := buildApps(cfg, faces, set, loc)
	if err != nil {
		return err
	}
	area := display.Bounds().Inset(cfg.Display.Margin)
	boxes := panel.Arrange(area, weights)
	slots := make([]panel.Slot, len(apps))
	for i, app := range apps {
		slots[i] = panel.Slot{App: app, Box: boxes[i]}
		logger.WithFields(logrus.Fields{"app": app.Name(), "box": boxes[i].String()}).Debug("Slot arranged")
	}

	m := metrics.New()
	if cfg.Metrics.DebugAddr != "" {
		srv := debugserver.New(cfg.Metrics.DebugAddr, display, m.Handler(), logger)
		if _, err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Debug server shutdown failed")
			}
		}()
	}

	runner := &cycle.Runner{
		Panel:   display,
		Battery: battery,
		Signal:  openSignal(cfg),
		Sleeper: &device.SystemSleeper{
			Panel:           display,
			WakeAlarmPath:   cfg.Power.WakeAlarmPath,
			PowerOffCommand: cfg.Power.PowerOffCommand,
			Log:             logger,
		},
		TimeSync:         device.ClockCheck{MarkerPath: cfg.Hardware.TimesyncMarker},
		Slots:            slots,
		Faces:            faces,
		Icons:            set,
		Scheduler:        power.NewScheduler(policy, cfg.Thresholds(), cfg.Power.DeepSleepThreshold),
		TimeSyncInterval: cfg.Power.TimeSyncInterval,
		MaxPartial:       cfg.Power.MaxPartialRefreshes,
		PageHeight:       cfg.Display.PageHeight,
		Metrics:          m,
		TextfilePath:     cfg.Metrics.TextfilePath,
		Log:              logger,
		Location:         loc,
	}
	if cfg.Hardware.NetworkCheck != "" {
		runner.Network = device.NetworkCheck{Address: cfg.Hardware.NetworkCheck, Timeout: networkCheckTimeout}
	}

	logging.LogOperation(logger, "Board starting", logrus.Fields{
		"driver":  cfg.Display.Driver,
		"bounds":  display.Bounds().String(),
		"apps":    len(slots),
		"once":    once,
		"zone":    loc.String(),
		"battery": cfg.Hardware.Battery,
	})

	if once {
		_, err := runner.RunOnce(ctx)
		return err
	}
	return runner.Run(ctx)
}

func openPanel(cfg *config.Config, logger logrus.FieldLogger) (device.Panel, error) {
	switch cfg.Display.Driver {
	case "epd":
		return device.OpenEPD(device.EPDOptions{
			SPIPort:  cfg.Display.SPIPort,
			Rotation: cfg.Display.Rotation,
			Invert:   cfg.Display.Dark,
		}, logger)
	case "preview":
		return device.NewPreview(cfg.Display.PreviewPath, cfg.Display.Width, cfg.Display.Height, cfg.Display.Dark), nil
	}
	return nil, fmt.Errorf("unknown display driver %q", cfg.Display.Driver)
}

func openBattery(cfg *config.Config) (device.BatterySensor, io.Closer, error) {
	switch cfg.Hardware.Battery {
	case "max17048":
		gauge, err := device.OpenMAX17048(cfg.Hardware.I2CBus, uint16(cfg.Hardware.GaugeAddress))
		if err != nil {
			return nil, nil, err
		}
		return gauge, gauge, nil
	case "fixed":
		return device.FixedBattery(cfg.Hardware.FixedMillivolts), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown battery %q", cfg.Hardware.Battery)
}

func openSignal(cfg *config.Config) device.SignalReader {
	if cfg.Hardware.Signal == "proc" {
		return device.WirelessProc{Interface: cfg.Hardware.WirelessInterface}
	}
	return device.FixedSignal(cfg.Hardware.FixedRSSI)
}

func buildApps(cfg *config.Config, faces render.Faces, set *icons.Set, loc *time.Location) ([]panel.App, []int, error) {
	var (
		apps    []panel.App
		weights []int
	)
	if cfg.Transit.Enabled {
		client, err := feed.NewTransitClient(feed.Options{
			BaseURL:   cfg.Transit.BaseURL,
			APIKey:    cfg.Transit.APIKey,
			Timeout:   cfg.Transit.Timeout,
			RateLimit: cfg.Transit.RateLimit,
			Burst:     cfg.Transit.Burst,
		})
		if err != nil {
			return nil, nil, err
		}
		apps = append(apps, panel.NewTransitBoard(client, faces, set, panel.TransitOptions{
			StopIDs:   cfg.Transit.StopIDs,
			Location:  loc,
			Window:    cfg.Transit.Window,
			StatusBar: cfg.Transit.StatusBar,
		}))
		weights = append(weights, cfg.Layout.TransitWeight)
	}
	if cfg.Weather.Enabled {
		client, err := feed.NewWeatherClient(feed.Options{
			BaseURL: cfg.Weather.BaseURL,
			APIKey:  cfg.Weather.APIKey,
			Timeout: cfg.Weather.Timeout,
		}, cfg.Weather.City)
		if err != nil {
			return nil, nil, err
		}
		apps = append(apps, panel.NewWeatherPanel(client, faces, set, loc))
		weights = append(weights, cfg.Layout.WeatherWeight)
	}
	return apps, weights, nil
}
