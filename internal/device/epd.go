package device

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"transit-board-go/internal/power"
)

// EPDOptions configures the Waveshare 2.13" V4 HAT.
type EPDOptions struct {
	// SPIPort is the periph port name; empty picks the first port.
	SPIPort string
	// Rotation turns frames clockwise by quarter turns before sending, so
	// a landscape board can drive the portrait controller.
	Rotation int
	// Invert draws white on black.
	Invert bool
}

// EPD drives a Waveshare e-paper HAT over SPI.
type EPD struct {
	mu     sync.Mutex
	port   spi.PortCloser
	dev    *waveshare2in13v4.Dev
	opts   EPDOptions
	log    logrus.FieldLogger
	last   *image.Gray
	native *image.Gray
	asleep bool
	closed bool
}

// OpenEPD initializes the host, opens the SPI port and clears the panel.
func OpenEPD(opts EPDOptions, logger logrus.FieldLogger) (*EPD, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("device: host init: %w", err)
	}
	port, err := spireg.Open(opts.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("device: open spi %q: %w", opts.SPIPort, err)
	}
	hat := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &hat)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("device: new hat: %w", err)
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("device: init panel: %w", err)
	}
	if err := setDisplayMode(dev, false); err != nil {
		logger.WithError(err).Warn("Refresh mode switch unavailable; partial refresh disabled")
	}
	if err := dev.Clear(color.White); err != nil {
		port.Close()
		return nil, fmt.Errorf("device: clear panel: %w", err)
	}
	return &EPD{port: port, dev: dev, opts: opts, log: logger}, nil
}

func (e *EPD) Bounds() image.Rectangle {
	b := e.dev.Bounds()
	if e.opts.Rotation%2 != 0 {
		return image.Rect(0, 0, b.Dy(), b.Dx())
	}
	return image.Rect(0, 0, b.Dx(), b.Dy())
}

// Push sends frame to the panel and puts the controller to sleep. Partial
// pushes only transfer the changed band and skip the refresh when nothing
// changed.
func (e *EPD) Push(frame *image.Gray, mode power.RefreshMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	native := Rotate(frame, e.opts.Rotation)
	if e.opts.Invert {
		native = invert(native)
	}
	if !native.Rect.Eq(e.dev.Bounds()) {
		return fmt.Errorf("device: frame %v does not fit panel %v", frame.Rect, e.Bounds())
	}

	if e.asleep {
		if err := e.dev.Init(); err != nil {
			return fmt.Errorf("device: wake panel: %w", err)
		}
		e.asleep = false
	}

	area := e.dev.Bounds()
	partial := mode == power.RefreshPartial && e.native != nil
	if partial {
		diff, changed := DiffRect(e.native, native)
		if !changed {
			e.log.Debug("Frame unchanged; skipping refresh")
			e.last = cloneGray(frame)
			return e.sleepLocked()
		}
		area = AlignRect(diff, e.dev.Bounds())
	}
	if err := setDisplayMode(e.dev, partial); err != nil {
		partial = false
		area = e.dev.Bounds()
	}

	img := image1bit.NewVerticalLSB(e.dev.Bounds())
	draw.Draw(img, img.Bounds(), native, image.Point{}, draw.Src)
	if err := e.dev.Draw(area, img, area.Min); err != nil {
		return fmt.Errorf("device: draw: %w", err)
	}
	e.log.WithFields(logrus.Fields{"mode": mode.String(), "partial": partial, "area": area.String()}).Debug("Frame pushed")

	e.last = cloneGray(frame)
	e.native = native
	return e.sleepLocked()
}

func (e *EPD) sleepLocked() error {
	if err := e.dev.Sleep(); err != nil {
		return fmt.Errorf("device: sleep panel: %w", err)
	}
	e.asleep = true
	return nil
}

func (e *EPD) LastFrame() *image.Gray {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneGray(e.last)
}

func (e *EPD) PowerOff() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.asleep {
		return nil
	}
	return e.sleepLocked()
}

func (e *EPD) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return errors.Join(e.dev.Halt(), e.port.Close())
}

// setDisplayMode flips the driver between full and partial waveforms. The
// driver keeps the mode in an unexported field set only at construction.
func setDisplayMode(dev *waveshare2in13v4.Dev, partial bool) error {
	v := reflect.ValueOf(dev).Elem().FieldByName("mode")
	if !v.IsValid() || !v.CanAddr() {
		return errors.New("device: display mode field unavailable")
	}
	field := reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	if partial {
		field.Set(reflect.ValueOf(waveshare2in13v4.Partial))
	} else {
		field.Set(reflect.ValueOf(waveshare2in13v4.Full))
	}
	return nil
}
