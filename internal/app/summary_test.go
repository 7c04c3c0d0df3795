package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/theme"
)

func TestPrintSummary_Caffe(t *testing.T) {
	var buf bytes.Buffer
	o := config.Defaults()
	o.InputModel = "net.caffemodel"
	o.ModelName = "net"
	o.Resolved.Framework = framework.Caffe

	printSummary(&buf, theme.New(&buf, false), &o)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Model Optimizer arguments:", lines[0])
	assert.Equal(t, "Common parameters:", lines[1])
	assert.Contains(t, buf.String(), "\t- Path to the Input Model: \tnet.caffemodel\n")
	assert.Contains(t, buf.String(), "\t- IR output name: \tnet\n")
	assert.Contains(t, buf.String(), "Caffe specific parameters:\n")
	assert.Contains(t, buf.String(), "\t- Path to CustomLayersMapping.xml: \tDefault\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Model Optimizer version: \t"))
}
