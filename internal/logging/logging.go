// Package logging builds the JSON logger of the metro service and carries
// request scoped loggers through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Service is attached to every record written by a logger from New
const Service = "metro"

type loggerKey struct{}

// New returns a JSON logger writing records at or above level to w
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", Service))
}

// ParseLevel maps debug, info, warn and error to their slog level, empty means info
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
}

// LogError writes err under the error key. A nil logger drops the record.
func LogError(logger *slog.Logger, message string, err error, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	attrs = append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	logger.LogAttrs(context.Background(), slog.LevelError, message, attrs...)
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger or slog.Default
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// Close closes c and logs a failure naming what was closed
func Close(c io.Closer, logger *slog.Logger, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "close failed", err, slog.String("resource", what))
	}
}
