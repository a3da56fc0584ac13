package ecsgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/riftworld/ecsgo/internal/handle"
)

// Logger wraps slog.Logger with ecsgo-specific context. This provides
// structured logging with consistent field names across package
// boundaries, matching what internal packages accept (a plain
// *slog.Logger) while giving callers domain-shaped helpers at the World
// boundary.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output. Used as the
// default so World construction never requires a logger.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithHandle adds a handle field to the logger.
func (l *Logger) WithHandle(h handle.Handle) *Logger {
	return &Logger{Logger: l.Logger.With("handle", h)}
}

// WithArchetype adds an archetype field to the logger.
func (l *Logger) WithArchetype(archetype string) *Logger {
	return &Logger{Logger: l.Logger.With("archetype", archetype)}
}

// LogEntityCreate logs an entity creation, off the hot path — only the
// World-level wrapper calls this, never internal/archetype itself.
func (l *Logger) LogEntityCreate(ctx context.Context, archetype string, h handle.Handle, err error) {
	if err != nil {
		l.ErrorContext(ctx, "entity create failed", "archetype", archetype, "error", err)
		return
	}
	l.DebugContext(ctx, "entity created", "archetype", archetype, "handle", h)
}

// LogEntityAttach logs an entity moving into a new archetype.
func (l *Logger) LogEntityAttach(ctx context.Context, archetype string, h handle.Handle, err error) {
	if err != nil {
		l.ErrorContext(ctx, "entity attach failed", "archetype", archetype, "error", err)
		return
	}
	l.DebugContext(ctx, "entity attached", "archetype", archetype, "handle", h)
}

// LogEntityDetach logs an entity detachment.
func (l *Logger) LogEntityDetach(ctx context.Context, archetype string, h handle.Handle) {
	l.DebugContext(ctx, "entity detached", "archetype", archetype, "handle", h)
}

// LogArchetypeCreate logs the first-time creation of an archetype for a
// component type-set.
func (l *Logger) LogArchetypeCreate(ctx context.Context, archetype string) {
	l.InfoContext(ctx, "archetype registered", "archetype", archetype)
}

// LogStateAttach logs an entity joining a state chain.
func (l *Logger) LogStateAttach(ctx context.Context, h handle.Handle, classIndex, ordinal int) {
	l.DebugContext(ctx, "state attached", "handle", h, "class_index", classIndex, "ordinal", ordinal)
}

// LogStateDetach logs an entity leaving a state chain.
func (l *Logger) LogStateDetach(ctx context.Context, h handle.Handle) {
	l.DebugContext(ctx, "state detached", "handle", h)
}
