package logspine

import (
	"context"
	"log/slog"
)

// SlogSink adapts a *slog.Logger as a Sink, the default sink the teacher's
// internal/logging package backs via Setup.
type SlogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewSlogSink wraps logger, logging every line at level. The sink itself
// drops nothing; the logger's handler discards all of its lines when level
// is below the handler's own threshold.
func NewSlogSink(logger *slog.Logger, level slog.Level) *SlogSink {
	return &SlogSink{Logger: logger, Level: level}
}

func (s *SlogSink) Write(line string) {
	s.Logger.Log(context.Background(), s.Level, line)
}

// Flush is a no-op: slog handlers write synchronously, so there is nothing
// buffered to force out.
func (s *SlogSink) Flush() {}
