package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWakeAlarmPath is the first RTC's wake alarm in sysfs.
const DefaultWakeAlarmPath = "/sys/class/rtc/rtc0/wakealarm"

// SystemSleeper suspends the board with the RTC wake alarm and a power-off
// command. Without a command it can only wait inline.
type SystemSleeper struct {
	Panel Panel
	// WakeAlarmPath is written with the wake time in Unix seconds. Empty
	// skips arming the alarm.
	WakeAlarmPath string
	// PowerOffCommand is run after the alarm is armed, e.g.
	// ["systemctl", "poweroff"].
	PowerOffCommand []string
	Log             logrus.FieldLogger
	Now             func() time.Time

	run func(ctx context.Context, argv []string) error
}

func (s *SystemSleeper) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *SystemSleeper) DeepSleep(ctx context.Context, d time.Duration) (bool, error) {
	log := s.logger().WithField("sleep", d.String())
	s.powerOffPanel(log)

	if len(s.PowerOffCommand) == 0 {
		log.Debug("No power-off command configured; waiting inline")
		return false, s.Delay(ctx, d)
	}
	if err := s.armWake(s.now().Add(d)); err != nil {
		log.WithError(err).Warn("Wake alarm unavailable; waiting inline")
		return false, s.Delay(ctx, d)
	}
	if err := s.runner()(ctx, s.PowerOffCommand); err != nil {
		log.WithError(err).Warn("Power-off command failed; waiting inline")
		return false, s.Delay(ctx, d)
	}
	log.Info("Powering down until wake alarm")
	// The command returns before power is cut.
	return true, s.Delay(ctx, d)
}

func (s *SystemSleeper) Halt(ctx context.Context) error {
	log := s.logger()
	s.powerOffPanel(log)
	if err := s.clearWake(); err != nil {
		log.WithError(err).Warn("Failed to clear wake alarm")
	}
	if len(s.PowerOffCommand) > 0 {
		if err := s.runner()(ctx, s.PowerOffCommand); err != nil {
			return fmt.Errorf("device: halt: %w", err)
		}
	}
	log.Warn("Halted; manual wake required")
	<-ctx.Done()
	return nil
}

func (s *SystemSleeper) powerOffPanel(log logrus.FieldLogger) {
	if s.Panel == nil {
		return
	}
	if err := s.Panel.PowerOff(); err != nil {
		log.WithError(err).Warn("Panel power-off failed")
	}
}

func (s *SystemSleeper) armWake(at time.Time) error {
	if s.WakeAlarmPath == "" {
		return nil
	}
	if err := s.clearWake(); err != nil {
		return err
	}
	if err := os.WriteFile(s.WakeAlarmPath, []byte(strconv.FormatInt(at.Unix(), 10)), 0o644); err != nil {
		return fmt.Errorf("device: arm wake alarm: %w", err)
	}
	return nil
}

// clearWake resets the alarm; the kernel rejects a new time while one is set.
func (s *SystemSleeper) clearWake() error {
	if s.WakeAlarmPath == "" {
		return nil
	}
	if err := os.WriteFile(s.WakeAlarmPath, []byte("0"), 0o644); err != nil {
		return fmt.Errorf("device: clear wake alarm: %w", err)
	}
	return nil
}

func (s *SystemSleeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SystemSleeper) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

func (s *SystemSleeper) runner() func(ctx context.Context, argv []string) error {
	if s.run != nil {
		return s.run
	}
	return func(ctx context.Context, argv []string) error {
		out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", argv[0], err, out)
		}
		return nil
	}
}
