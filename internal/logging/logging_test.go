package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestNew(t *testing.T) {
	t.Run("creates JSON logger by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "")
		require.NoError(t, err)

		logger.WithField("component", "test").Info("test message")

		output := buf.String()
		assert.Contains(t, output, `"level":"info"`)
		assert.Contains(t, output, `"msg":"test message"`)
		assert.Contains(t, output, `"component":"test"`)
	})

	t.Run("respects log level configuration", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "warn", "json")
		require.NoError(t, err)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warning message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warning message")
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "", "text")
		require.NoError(t, err)

		logger.Info("plain")
		assert.Contains(t, buf.String(), "msg=plain")
	})

	t.Run("rejects unknown level and format", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, "loud", "json")
		assert.Error(t, err)

		_, err = New(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})
}

func TestLoggerHelpers(t *testing.T) {
	t.Run("LogError creates structured error log", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "json")
		require.NoError(t, err)

		LogError(logger, "failed to fetch data", assert.AnError, logrus.Fields{
			"source":    "transit",
			"component": "feed",
		})

		output := buf.String()
		assert.Contains(t, output, `"level":"error"`)
		assert.Contains(t, output, `"msg":"failed to fetch data"`)
		assert.Contains(t, output, `"source":"transit"`)
		assert.Contains(t, output, `"error":"assert.AnError general error for testing"`)
	})

	t.Run("LogOperation drops zero durations", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "json")
		require.NoError(t, err)

		LogOperation(logger, "cycle_complete", logrus.Fields{
			"duration": time.Duration(0),
			"rendered": 2,
		})

		output := buf.String()
		assert.Contains(t, output, `"msg":"cycle_complete"`)
		assert.Contains(t, output, `"rendered":2`)
		assert.NotContains(t, output, "duration")
	})

	t.Run("nil logger is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogError(nil, "x", assert.AnError, nil)
			LogOperation(nil, "x", nil)
		})
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("round trips an entry", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "json")
		require.NoError(t, err)
		entry := logger.WithField("cycle_id", "abc")

		ctx := WithLogger(context.Background(), entry)
		FromContext(ctx).Info("hello")

		assert.Contains(t, buf.String(), `"cycle_id":"abc"`)
	})

	t.Run("falls back to the standard logger", func(t *testing.T) {
		entry := FromContext(context.Background())
		require.NotNil(t, entry)
		assert.Equal(t, logrus.StandardLogger(), entry.Logger)
	})
}

func TestSafeCloseWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	SafeCloseWithLogging(nil, logger, "noop")
	assert.Empty(t, buf.String())

	SafeCloseWithLogging(closerFunc(func() error { return nil }), logger, "ok")
	assert.Empty(t, buf.String())

	SafeCloseWithLogging(closerFunc(func() error { return errors.New("busy") }), logger, "panel")
	assert.Contains(t, buf.String(), `"operation":"panel"`)
	assert.Contains(t, buf.String(), `"error":"busy"`)
}
