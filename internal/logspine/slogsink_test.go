package logspine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogSinkWritesAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger, slog.LevelWarn)

	sink.Write("core1(1)::disk nearly full")

	require.Contains(t, buf.String(), "disk nearly full")
	require.Contains(t, buf.String(), "WARN")
}

func TestSlogSinkFlushIsNoOp(t *testing.T) {
	sink := NewSlogSink(slog.Default(), slog.LevelInfo)
	require.NotPanics(t, func() { sink.Flush() })
}
