package logger

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"unify/internal/observability"
)

// New returns the service's JSON logger on stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// NewWithShipper fans log records out to stdout and the observability sink.
// A nil shipper degrades to stdout only.
func NewWithShipper(level slog.Level, shipper *observability.Shipper) *slog.Logger {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if shipper == nil {
		return slog.New(stdout)
	}
	// The sink only needs warnings and up; stdout keeps the full stream.
	return slog.New(slogmulti.Fanout(
		stdout,
		observability.NewHandler(shipper, slog.LevelWarn),
	))
}
