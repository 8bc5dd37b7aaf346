// Package log implements structured logging using slog.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/l2send/internal/config"
)

// Init initializes the global logger based on configuration. Logs go to
// stderr so command output on stdout stays clean.
func Init(cfg config.LogConfig) error {
	logger, err := New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// New builds a logger writing to base plus any configured outputs.
func New(cfg config.LogConfig, base io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	writers := []io.Writer{base}

	if cfg.Outputs.File.Enabled {
		w, err := newRotatingFile(cfg.Outputs.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create file output: %w", err)
		}
		writers = append(writers, w)
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	return slog.New(handler), nil
}

// parseLevel accepts the slog level names, case-insensitively, plus
// "warning". Offsets such as "debug+2" are passed through to slog.
func parseLevel(name string) (slog.Level, error) {
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Rotation limits applied when the file output leaves them unset. A frame
// sender logs a handful of lines per run, so a small file is plenty.
const (
	fallbackMaxSizeMB  = 10
	fallbackMaxBackups = 3
)

// newRotatingFile opens the lumberjack-managed log file.
func newRotatingFile(fc config.FileOutputConfig) (*lumberjack.Logger, error) {
	if fc.Path == "" {
		return nil, errors.New("file output enabled without a path")
	}
	rot := fc.Rotation
	if rot.MaxSizeMB <= 0 {
		rot.MaxSizeMB = fallbackMaxSizeMB
	}
	if rot.MaxBackups <= 0 {
		rot.MaxBackups = fallbackMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
		LocalTime:  true,
	}, nil
}
