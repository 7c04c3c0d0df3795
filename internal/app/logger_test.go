package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"critical": LevelCritical,
		"ERROR":    slog.LevelError,
		"warn":     slog.LevelWarn,
		"WARNING":  slog.LevelWarn,
		"Info":     slog.LevelInfo,
		"debug":    slog.LevelDebug,
		"NOTSET":   levelNotSet,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestConsoleHandler_Format(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := newLogger("INFO", "text", false, &buf)

	// Act
	logger.Debug("hidden")
	logger.Info("Deduced name for prototxt: net.prototxt")
	logger.With("check", "scale").Warn("Small scale.", "value", 0.5)
	logger.Error("Graph broken.", attrFrameworkError, true)
	logger.Error("Try --input_model_is_text.", attrAnalysisInfo, true)
	logger.Log(context.Background(), LevelCritical, "Out of memory.")

	// Assert
	want := "[ INFO ]  Deduced name for prototxt: net.prototxt\n" +
		"[ WARNING ]  Small scale. check=scale value=0.5\n" +
		"[ FRAMEWORK ERROR ]  Graph broken.\n" +
		"[ ANALYSIS INFO ]  Try --input_model_is_text.\n" +
		"[ CRITICAL ]  Out of memory.\n"
	assert.Equal(t, want, buf.String())
}

func TestNewLogger_SilentRaisesFloor(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("DEBUG", "text", true, &buf)

	logger.Warn("quiet")
	logger.Error("loud")

	assert.Equal(t, "[ ERROR ]  loud\n", buf.String())
}

func TestNewLogger_JSONLevelNames(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("WARNING", "json", false, &buf)

	logger.Warn("careful")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARNING", rec["level"])
	assert.Equal(t, "careful", rec["msg"])
}
