package device

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"transit-board-go/internal/power"
)

func grayWith(w, h int, dark ...image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	for _, p := range dark {
		img.SetGray(p.X, p.Y, color.Gray{Y: 0})
	}
	return img
}

func TestRotate(t *testing.T) {
	src := grayWith(4, 2, image.Pt(0, 0))

	cw := Rotate(src, 1)
	assert.Equal(t, image.Rect(0, 0, 2, 4), cw.Rect)
	assert.Zero(t, cw.GrayAt(1, 0).Y, "top-left moves to top-right")

	half := Rotate(src, 2)
	assert.Equal(t, src.Rect, half.Rect)
	assert.Zero(t, half.GrayAt(3, 1).Y)

	ccw := Rotate(src, 3)
	assert.Zero(t, ccw.GrayAt(0, 3).Y, "top-left moves to bottom-left")

	assert.Equal(t, src.Pix, Rotate(Rotate(src, 1), 3).Pix, "quarter turns compose")
	assert.Equal(t, src.Pix, Rotate(src, -4).Pix)
	assert.NotSame(t, src, Rotate(src, 0))
}

func TestDiffRect(t *testing.T) {
	prev := grayWith(16, 8)
	curr := grayWith(16, 8, image.Pt(3, 2), image.Pt(9, 5))

	r, changed := DiffRect(prev, curr)
	require.True(t, changed)
	assert.Equal(t, image.Rect(3, 2, 10, 6), r)

	_, changed = DiffRect(curr, curr)
	assert.False(t, changed)

	r, changed = DiffRect(nil, curr)
	assert.True(t, changed)
	assert.Equal(t, curr.Bounds(), r)
}

func TestAlignRect(t *testing.T) {
	bounds := image.Rect(0, 0, 122, 250)
	assert.Equal(t, image.Rect(0, 2, 16, 6), AlignRect(image.Rect(3, 2, 10, 6), bounds))
	assert.Equal(t, image.Rect(112, 0, 122, 1), AlignRect(image.Rect(115, 0, 121, 1), bounds))
	assert.True(t, AlignRect(image.Rectangle{}, bounds).Empty())
}

func TestInvert(t *testing.T) {
	img := grayWith(2, 1, image.Pt(0, 0))
	inv := invert(img)
	assert.Equal(t, []uint8{0xFF, 0x00}, inv.Pix)
	assert.Equal(t, []uint8{0x00, 0xFF}, img.Pix, "source untouched")
}

func TestPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	p := NewPreview(path, 8, 4, true)
	assert.Equal(t, image.Rect(0, 0, 8, 4), p.Bounds())
	assert.Nil(t, p.LastFrame())

	frame := grayWith(8, 4, image.Pt(1, 1))
	require.NoError(t, p.Push(frame, power.RefreshFull))
	require.NoError(t, p.Push(frame, power.RefreshPartial))
	assert.Equal(t, 1, p.Pushes(power.RefreshFull))
	assert.Equal(t, 1, p.Pushes(power.RefreshPartial))

	last := p.LastFrame()
	require.NotNil(t, last)
	assert.Equal(t, frame.Pix, last.Pix, "last frame is kept in logical colours")
	last.Pix[0] = 0
	assert.Equal(t, uint8(0xFF), p.LastFrame().Pix[0], "callers get a copy")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	y := color.GrayModel.Convert(decoded.At(1, 1)).(color.Gray).Y
	assert.Equal(t, uint8(0xFF), y, "file is inverted")

	assert.Error(t, p.Push(grayWith(4, 4), power.RefreshFull))
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Push(frame, power.RefreshFull), ErrClosed)
}

func TestMAX17048(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: MAX17048Addr, W: []byte{regVCell}, R: []byte{0xD2, 0x00}},
			{Addr: MAX17048Addr, W: []byte{regVCell}, R: []byte{0xA8, 0x00}},
		},
		DontPanic: true,
	}
	g := NewMAX17048(bus, MAX17048Addr)

	mv, err := g.Millivolts()
	require.NoError(t, err)
	assert.Equal(t, 4200, mv)

	mv, err = g.Millivolts()
	require.NoError(t, err)
	assert.Equal(t, 3360, mv)

	_, err = g.Millivolts()
	assert.Error(t, err, "playback exhausted")
	require.NoError(t, g.Close())
}

func TestParseWireless(t *testing.T) {
	const table = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 eth9: 0000   10.  -80.  -256        0      0      0      0      0        0
wlan0: 0000   54.  -56.  -256        0      0      0      0      0        0
`
	rssi, err := parseWireless(strings.NewReader(table), "wlan0")
	require.NoError(t, err)
	assert.Equal(t, -56, rssi)

	rssi, err = parseWireless(strings.NewReader(table), "")
	require.NoError(t, err)
	assert.Equal(t, -80, rssi)

	rssi, err = parseWireless(strings.NewReader(table), "wlan1")
	require.NoError(t, err)
	assert.Zero(t, rssi, "missing interface means no link")

	path := filepath.Join(t.TempDir(), "wireless")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))
	rssi, err = WirelessProc{Path: path, Interface: "wlan0"}.RSSI()
	require.NoError(t, err)
	assert.Equal(t, -56, rssi)

	_, err = WirelessProc{Path: filepath.Join(t.TempDir(), "missing")}.RSSI()
	assert.Error(t, err)
}

func TestNetworkCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	require.NoError(t, NetworkCheck{Address: ln.Addr().String()}.Check(context.Background()))

	failing := NetworkCheck{
		Address: "feed.invalid:443",
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("no route to host")
		},
	}
	assert.ErrorIs(t, failing.Check(context.Background()), ErrNetworkDown)
}

func TestClockCheck(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "synchronized")
	epoch := func() time.Time { return time.Unix(0, 0) }

	err := ClockCheck{MarkerPath: missing, Now: epoch}.Check(context.Background())
	assert.ErrorIs(t, err, ErrClockUnsynced)

	now := func() time.Time { return time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC) }
	assert.NoError(t, ClockCheck{MarkerPath: missing, Now: now}.Check(context.Background()))

	require.NoError(t, os.WriteFile(missing, nil, 0o644))
	assert.NoError(t, ClockCheck{MarkerPath: missing, Now: epoch}.Check(context.Background()))
}

func TestFixedSources(t *testing.T) {
	mv, err := FixedBattery(3900).Millivolts()
	require.NoError(t, err)
	assert.Equal(t, 3900, mv)

	rssi, err := FixedSignal(-61).RSSI()
	require.NoError(t, err)
	assert.Equal(t, -61, rssi)

	called := false
	require.NoError(t, CheckFunc(func(context.Context) error { called = true; return nil }).Check(context.Background()))
	assert.True(t, called)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(&strings.Builder{})
	return l
}

func TestSystemSleeperDeepSleep(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	alarm := filepath.Join(t.TempDir(), "wakealarm")
	panel := NewPreview("", 4, 4, false)

	t.Run("arms the alarm and runs the power-off command", func(t *testing.T) {
		var ran []string
		s := &SystemSleeper{
			Panel:           panel,
			WakeAlarmPath:   alarm,
			PowerOffCommand: []string{"poweroff"},
			Log:             quietLogger(),
			Now:             func() time.Time { return now },
			run: func(_ context.Context, argv []string) error {
				ran = argv
				return nil
			},
		}
		deep, err := s.DeepSleep(context.Background(), time.Millisecond)
		require.NoError(t, err)
		assert.True(t, deep)
		assert.Equal(t, []string{"poweroff"}, ran)
		b, err := os.ReadFile(alarm)
		require.NoError(t, err)
		assert.Equal(t, "1800000000", string(b))
	})

	t.Run("falls back to waiting inline when the command fails", func(t *testing.T) {
		s := &SystemSleeper{
			WakeAlarmPath:   alarm,
			PowerOffCommand: []string{"poweroff"},
			Log:             quietLogger(),
			run:             func(context.Context, []string) error { return errors.New("permission denied") },
		}
		deep, err := s.DeepSleep(context.Background(), time.Millisecond)
		require.NoError(t, err)
		assert.False(t, deep)
	})

	t.Run("waits inline without a command", func(t *testing.T) {
		s := &SystemSleeper{Log: quietLogger()}
		deep, err := s.DeepSleep(context.Background(), time.Millisecond)
		require.NoError(t, err)
		assert.False(t, deep)
	})
}

func TestSystemSleeperDelayHonoursContext(t *testing.T) {
	s := &SystemSleeper{Log: quietLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Delay(ctx, time.Hour), context.Canceled)
	assert.NoError(t, s.Delay(context.Background(), 0))
}

func TestSystemSleeperHalt(t *testing.T) {
	alarm := filepath.Join(t.TempDir(), "wakealarm")
	ctx, cancel := context.WithCancel(context.Background())
	s := &SystemSleeper{
		WakeAlarmPath:   alarm,
		PowerOffCommand: []string{"poweroff"},
		Log:             quietLogger(),
		run: func(context.Context, []string) error {
			cancel()
			return nil
		},
	}
	require.NoError(t, s.Halt(ctx))
	b, err := os.ReadFile(alarm)
	require.NoError(t, err)
	assert.Equal(t, "0", string(b), "no wake is scheduled")
}
