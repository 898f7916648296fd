// Package logging builds the application's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// Config controls log level and optional file output
type Config struct {
	Level string

	// File, when set, receives a copy of every record in daily rotated files
	// named File.YYYYMMDD, with File itself linked to the current one.
	File         string
	MaxAge       time.Duration
	RotationTime time.Duration
}

// DefaultConfig returns default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:        "info",
		MaxAge:       7 * 24 * time.Hour,
		RotationTime: 24 * time.Hour,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a JSON logger writing to stdout and, if configured, a rotated file.
// The returned closer releases the file.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		defaults := DefaultConfig()
		if cfg.MaxAge <= 0 {
			cfg.MaxAge = defaults.MaxAge
		}
		if cfg.RotationTime <= 0 {
			cfg.RotationTime = defaults.RotationTime
		}

		rl, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithMaxAge(cfg.MaxAge),
			rotatelogs.WithRotationTime(cfg.RotationTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, rl)
		closer = rl
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closer, nil
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
