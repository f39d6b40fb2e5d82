package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// loggerKey is used to store the logger in context
type loggerKey struct{}

// New creates a logrus logger writing to w. Format is "json" (default) or "text".
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl := logrus.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		lvl = parsed
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return logger, nil
}

// LogError logs an error with structured context
func LogError(logger logrus.FieldLogger, message string, err error, fields logrus.Fields) {
	if logger == nil {
		return
	}
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}

// LogOperation logs an operation at info level. A zero "duration" field is dropped.
func LogOperation(logger logrus.FieldLogger, operation string, fields logrus.Fields) {
	if logger == nil {
		return
	}
	clean := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if k == "duration" && isZeroDuration(v) {
			continue
		}
		clean[k] = v
	}
	logger.WithFields(clean).Info(operation)
}

func isZeroDuration(v interface{}) bool {
	switch d := v.(type) {
	case fmt.Stringer:
		return d.String() == "0s"
	case int64:
		return d == 0
	case float64:
		return d == 0
	}
	return false
}

// WithLogger adds a logger entry to the context
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// FromContext retrieves the logger entry from the context, or the standard logger
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// SafeCloseWithLogging closes a resource and logs any errors that occur
func SafeCloseWithLogging(closer io.Closer, logger logrus.FieldLogger, operation string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err, logrus.Fields{
			"operation": operation,
			"component": "resource_management",
		})
	}
}
