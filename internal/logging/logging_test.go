package logging

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	require.Equal(t, FormatText, ParseFormat("human"))
	require.Equal(t, FormatJSON, ParseFormat("JSON"))
	require.Equal(t, FormatAuto, ParseFormat("whatever"))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelInfo, ParseLevel("not-a-level"))
}

func TestNewJSONProducesValidJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(FormatJSON, &buf, slog.LevelInfo)
	logger.Info("hello", "k", "v")

	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestIsTTYFalseForNonFile(t *testing.T) {
	require.False(t, IsTTY(&bytes.Buffer{}))
}

func TestOpenFileCreatesAndAppends(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/test.log"

	f, err := OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("line1\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := OpenFile(path)
	require.NoError(t, err)
	_, err = f2.WriteString("line2\n")
	require.NoError(t, err)
	require.NoError(t, f2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "line1\nline2\n", string(data))
}
