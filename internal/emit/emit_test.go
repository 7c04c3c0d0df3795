package emit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/irwriter"
)

type recordingEmitter struct {
	graph *graph.Graph
	req   irwriter.Request
	err   error
}

func (r *recordingEmitter) Emit(_ context.Context, g *graph.Graph, req irwriter.Request) (irwriter.Result, error) {
	r.graph = g
	r.req = req
	return irwriter.Result{}, r.err
}

func options(dir string) *config.Options {
	o := config.Defaults()
	o.ModelName = "net"
	o.OutputDir = dir
	o.InputModel = "net.onnx"
	o.Resolved.Framework = framework.ONNX
	o.Resolved.DataType = "FP32"
	return &o
}

// constGraph is c -> add <- data, add -> out.
func constGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("net")
	g.InputNames = []string{"data"}
	require.NoError(t, g.AddNode(&graph.Node{ID: "data", Op: graph.OpParameter, Shape: []int64{2}}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "c", Op: graph.OpConst, Value: &graph.Tensor{Shape: []int64{2}, Data: []float64{1, 2}}}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "add", Op: "Add", Shape: []int64{2}}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "out", Op: graph.OpResult}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "data", To: "add"}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "c", To: "add", ToPort: 1}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "add", To: "out"}))
	return g
}

func TestEmitIR_V10KeepsResultsAndRebuildsConsts(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	o := options(dir)
	rec := &recordingEmitter{}
	var out bytes.Buffer

	// Act
	code, err := EmitIR(context.Background(), constGraph(t), o, rec, &out)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Len(t, rec.graph.NodesByOp(graph.OpResult), 1)
	_, ok := rec.graph.Node("c")
	assert.False(t, ok)
	c, ok := rec.graph.Node("add/port_1/const")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, c.Value.Data)

	assert.Equal(t, 10, rec.req.IRVersion)
	assert.Equal(t, "FP32", rec.req.DataType)
	assert.Equal(t, []string{"data"}, rec.req.InputNames)
	assert.Equal(t, "net.onnx", rec.req.Meta["input_model"])

	assert.Contains(t, out.String(), "[ SUCCESS ] Generated IR version 10 model.")
	assert.Contains(t, out.String(), "[ SUCCESS ] XML file: "+filepath.Join(dir, "net.xml"))
	assert.Contains(t, out.String(), "[ SUCCESS ] BIN file: "+filepath.Join(dir, "net.bin"))
}

func TestEmitIR_V7RemovesResults(t *testing.T) {
	o := options(t.TempDir())
	o.GenerateExperimentalIRV10 = false
	rec := &recordingEmitter{}
	var out bytes.Buffer

	_, err := EmitIR(context.Background(), constGraph(t), o, rec, &out)

	require.NoError(t, err)
	assert.Empty(t, rec.graph.NodesByOp(graph.OpResult))
	assert.Equal(t, 7, rec.req.IRVersion)
	assert.Contains(t, out.String(), "Generated IR version 7 model.")
}

func TestEmitIR_NoBannerForCustomOperationsUpdate(t *testing.T) {
	o := options(t.TempDir())
	o.Resolved.Framework = framework.TF
	o.TensorflowCustomOperationsConfigUpdate = "ops.json"
	var out bytes.Buffer

	code, err := EmitIR(context.Background(), constGraph(t), o, &recordingEmitter{}, &out)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, out.String())
}

func TestEmitIR_DotPrintsWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	o := options(".")
	var out bytes.Buffer

	_, err = EmitIR(context.Background(), constGraph(t), o, irwriter.New(), &out)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "net.xml"))
	assert.FileExists(t, filepath.Join(dir, "net.bin"))
	assert.Contains(t, out.String(), "XML file: "+filepath.Join(wd, "net.xml"))
}

func TestEmitIR_EmitterError(t *testing.T) {
	boom := errors.New("disk full")
	var out bytes.Buffer

	code, err := EmitIR(context.Background(), constGraph(t), options(t.TempDir()), &recordingEmitter{err: boom}, &out)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())
}
