package bico

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with bico-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo is NewJSONLogger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithK adds a k (target cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithMaxNodes adds the node budget field to the logger.
func (l *Logger) WithMaxNodes(m int) *Logger {
	return &Logger{
		Logger: l.Logger.With("max_nodes", m),
	}
}

// LogInsertRejected logs a rejected point.
func (l *Logger) LogInsertRejected(ctx context.Context, err error) {
	l.WarnContext(ctx, "insert rejected",
		"error", err,
	)
}

// LogBatchInsert logs a bulk ingestion.
func (l *Logger) LogBatchInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch insert rejected",
			"rows", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch insert completed",
			"rows", count,
		)
	}
}

// LogRebuild logs a completed tree rebuild.
func (l *Logger) LogRebuild(ctx context.Context, ev RebuildEvent) {
	l.DebugContext(ctx, "coreset tree rebuilt",
		"threshold_before", ev.ThresholdBefore,
		"threshold_after", ev.ThresholdAfter,
		"nodes_before", ev.NodesBefore,
		"nodes_after", ev.NodesAfter,
		"rounds", ev.Rounds,
		"duration", ev.Duration,
	)
}

// LogCompute logs a coreset extraction.
func (l *Logger) LogCompute(ctx context.Context, size int, points uint64, elapsed time.Duration) {
	l.DebugContext(ctx, "coreset computed",
		"size", size,
		"points", points,
		"elapsed", elapsed,
	)
}

// LogClose logs engine shutdown.
func (l *Logger) LogClose(ctx context.Context, points uint64) {
	l.DebugContext(ctx, "engine closed",
		"points", points,
	)
}
