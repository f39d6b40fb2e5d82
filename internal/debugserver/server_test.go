package debugserver

import (
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFrames struct{ img *image.Gray }

func (s staticFrames) LastFrame() *image.Gray { return s.img }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 12, 6))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("transit_board_cycles_total 1\n"))
	})
	h := New("127.0.0.1:0", staticFrames{img: frame}, metrics, nil).Handler()

	t.Run("health check answers ok", func(t *testing.T) {
		rec := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok\n", rec.Body.String())
	})

	t.Run("frame is served as png", func(t *testing.T) {
		rec := get(t, h, "/frame.png")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, frame.Rect, img.Bounds())
	})

	t.Run("metrics are mounted", func(t *testing.T) {
		rec := get(t, h, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "cycles_total")
	})

	t.Run("unknown paths are not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
	})
}

func TestFrameMissing(t *testing.T) {
	h := New(":0", staticFrames{}, nil, nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/frame.png").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
}

func TestStartAndShutdown(t *testing.T) {
	s := New("127.0.0.1:0", staticFrames{}, nil, nil)
	addr, err := s.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
