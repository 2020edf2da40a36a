package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var errUnknownLogFormat = errors.New("unknown log format")

// newLogger creates a slog.Logger writing to w at the configured level and
// format. It does not set the global logger.
func newLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownLogFormat, cfg.Format)
	}
	return slog.New(handler), nil
}
