package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	assert.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestParse_Flags(t *testing.T) {
	// Arrange
	args := []string{"--input_model", "net.onnx", "-b", "2", "--data_type", "FP16", "--mean_values", "[1,2,3]", "-o", "out"}
	var out bytes.Buffer

	// Act
	o, exit, err := Parse(args, &out)

	// Assert
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "net.onnx", o.InputModel)
	assert.Equal(t, 2, o.Batch)
	assert.Equal(t, "FP16", o.DataType)
	assert.Equal(t, "[1,2,3]", o.MeanValues)
	assert.Equal(t, "out", o.OutputDir)
	assert.Equal(t, "ERROR", o.LogLevel, "defaults survive")
	assert.True(t, o.GenerateExperimentalIRV10)
	assert.Empty(t, o.Framework)
}

func TestParse_FrameworkSubcommand(t *testing.T) {
	o, _, err := Parse([]string{"caffe", "--input_model", "net.caffemodel", "-k", "mapping.xml"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "caffe", o.Framework)
	assert.Equal(t, "mapping.xml", o.K)
}

func TestParse_SubcommandConflictsWithFramework(t *testing.T) {
	_, _, err := Parse([]string{"tf", "--framework", "caffe"}, &bytes.Buffer{})

	exitErr := requireExitCode(t, err, 2)
	assert.Contains(t, exitErr.Message, "conflicts with the tf command")
}

func TestParse_DeprecatedIRV7(t *testing.T) {
	o, _, err := Parse([]string{"--generate_deprecated_IR_V7"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.False(t, o.GenerateExperimentalIRV10)
}

func TestParse_ConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_model: from_file.onnx\nbatch: 4\nlog_level: INFO\n"), 0o644))

	o, _, err := Parse([]string{"--config", path, "--batch", "8"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "from_file.onnx", o.InputModel)
	assert.Equal(t, 8, o.Batch, "explicit flags win over the file")
	assert.Equal(t, "INFO", o.LogLevel)
}

func TestParse_ConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Parse([]string{"--config", filepath.Join(dir, "missing.yaml")}, &bytes.Buffer{})
	exitErr := requireExitCode(t, err, 2)
	assert.Contains(t, exitErr.Message, "was not found")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input_modle: x.onnx\n"), 0o644))
	_, _, err = Parse([]string{"--config", bad}, &bytes.Buffer{})
	requireExitCode(t, err, 2)
}

func TestParse_HelpAndVersionExitCleanly(t *testing.T) {
	for _, arg := range []string{"-h", "--version"} {
		var out bytes.Buffer

		o, exit, err := Parse([]string{arg}, &out)

		require.NoError(t, err, arg)
		assert.True(t, exit, arg)
		assert.Nil(t, o, arg)
		assert.NotEmpty(t, out.String(), arg)
	}
}

func TestParse_UsageErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":   {"--this-is-not-a-valid-flag"},
		"positional":     {"model.onnx"},
		"bad log level":  {"--log_level", "chatty"},
		"bad log format": {"--log_format", "xml"},
		"bad batch":      {"--batch", "many"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			requireExitCode(t, err, 2)
		})
	}
}
