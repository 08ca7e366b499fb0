// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured slog logger shared by every stage.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/notemorph/pkg/types"
)

// Formats accepted by LogConfig.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type contextKey string

const runIDKey contextKey = "run_id"

// New returns a logger writing to w with the level and format of cfg.
// Empty values mean info and text.
func New(cfg types.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	switch strings.ToLower(cfg.Format) {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.Format)
}

// ParseLevel maps debug, info, warn, or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithRunID attaches a pipeline run ID to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run ID attached to ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FromContext returns log annotated with the run ID carried by ctx.
func FromContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	if log == nil {
		log = Discard()
	}
	if id := RunID(ctx); id != "" {
		return log.With("run_id", id)
	}
	return log
}
