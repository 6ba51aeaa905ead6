// Package logger builds the *slog.Logger instances used across folio.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	source bool
	out    io.Writer
}

// New returns a *slog.Logger configured by opts. With no options it writes
// slog text records at Info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level: slog.LevelInfo,
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch {
	case cfg.json:
		return slog.New(slog.NewJSONHandler(cfg.out, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		}))
	case cfg.pretty:
		return slog.New(charmlog.NewWithOptions(cfg.out, charmlog.Options{
			Level:           charmLevel(cfg.level),
			ReportTimestamp: true,
			ReportCaller:    cfg.source,
		}))
	default:
		return slog.New(slog.NewTextHandler(cfg.out, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		}))
	}
}

// Nop returns a logger that discards every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func charmLevel(level slog.Level) charmlog.Level {
	if level <= slog.LevelDebug {
		return charmlog.DebugLevel
	}
	return charmlog.InfoLevel
}
