package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/modelopt/internal/analysis"
	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/moerr"
	"github.com/specialistvlad/modelopt/internal/registry"
	"github.com/specialistvlad/modelopt/internal/validate"
	"github.com/specialistvlad/modelopt/modules/core"
)

// validated returns options for an existing ONNX model after validation.
func validated(t *testing.T, mutate func(o *config.Options)) *config.Options {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "net.onnx")
	require.NoError(t, os.WriteFile(model, []byte("onnx"), 0o644))

	o := config.Defaults()
	o.InputModel = model
	o.OutputDir = dir
	if mutate != nil {
		mutate(&o)
	}
	o.Resolved.Framework = framework.ONNX
	require.NoError(t, validate.Run(context.Background(), &o, framework.ONNX))
	return &o
}

func coreRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.Register(&core.Module{})
	return reg
}

func TestUnified_DefaultInput(t *testing.T) {
	o := validated(t, func(o *config.Options) { o.InputShape = "[1,3,224,224]" })

	g, err := NewUnified(nil).Convert(context.Background(), o, coreRegistry(t))

	require.NoError(t, err)
	assert.Equal(t, "net", g.Name)
	param, ok := g.Node(DefaultInputName)
	require.True(t, ok)
	assert.Equal(t, graph.OpParameter, param.Op)
	assert.Equal(t, []int64{1, 3, 224, 224}, param.Shape)
	assert.Equal(t, "FP32", param.DataType)
	require.Len(t, g.NodesByOp(graph.OpResult), 1)
}

func TestUnified_MissingModelIsFileNotFound(t *testing.T) {
	o := validated(t, nil)
	o.InputModel = filepath.Join(t.TempDir(), "gone.onnx")

	_, err := NewUnified(nil).Convert(context.Background(), o, coreRegistry(t))

	require.Error(t, err)
	assert.Equal(t, moerr.KindFileNotFound, moerr.Classify(err))
	assert.Equal(t, o.InputModel, moerr.MissingPath(err))
}

func TestUnified_FrozenInputsAndBatch(t *testing.T) {
	o := validated(t, func(o *config.Options) {
		o.Input = "data,is_training"
		o.InputShape = "[1,3,8,8],[1]"
		o.Batch = 4
		o.FreezePlaceholderWithValue = "is_training->False"
	})

	g, err := NewUnified(nil).Convert(context.Background(), o, coreRegistry(t))

	require.NoError(t, err)
	data, _ := g.Node("data")
	assert.Equal(t, []int64{4, 3, 8, 8}, data.Shape)
	frozen, _ := g.Node("is_training")
	assert.Equal(t, graph.OpConst, frozen.Op)
	require.NotNil(t, frozen.Value)
	assert.Equal(t, []float64{0}, frozen.Value.Data)
	assert.Equal(t, []int64{1}, frozen.Shape, "batch does not apply to frozen inputs")
	assert.Equal(t, []string{"data"}, g.InputNames, "frozen inputs are no longer model inputs")
}

func TestUnified_IdentityFrontReplacement(t *testing.T) {
	o := validated(t, func(o *config.Options) { o.Input = "a,b" })
	reg := coreRegistry(t)
	reg.RegisterExtension(&registry.Extension{
		Name:    "guard",
		Class:   registry.ClassFrontReplacement,
		Op:      graph.OpIdentity,
		Enabled: true,
		Attrs:   registry.StringAttrs(map[string]string{"input": "b"}),
	})

	g, err := NewUnified(nil).Convert(context.Background(), o, reg)

	require.NoError(t, err)
	id, ok := g.Node("b/guard")
	require.True(t, ok)
	assert.Equal(t, graph.OpIdentity, id.Op)
	out := g.OutEdges("b/guard")
	require.Len(t, out, 1)
	assert.Equal(t, "b/guard/sink_port_0", out[0].To)
	_, ok = g.Node("a/guard")
	assert.False(t, ok)
}

func TestUnified_UnknownOutput(t *testing.T) {
	o := validated(t, func(o *config.Options) { o.Output = "logits" })

	_, err := NewUnified(nil).Convert(context.Background(), o, coreRegistry(t))

	require.Error(t, err)
	assert.True(t, moerr.IsKind(err, moerr.KindConfiguration))
	assert.Contains(t, err.Error(), "logits")
}

func TestUnified_MeanDataMovedToPreprocess(t *testing.T) {
	o := validated(t, func(o *config.Options) {
		o.Input = "data"
		o.MeanValues = "data[104,117,123]"
		o.ScaleValues = "data[255]"
		o.MoveToPreprocess = true
	})

	g, err := NewUnified(nil).Convert(context.Background(), o, coreRegistry(t))

	require.NoError(t, err)
	require.Len(t, g.MeanData, 1)
	assert.Equal(t, graph.MeanData{Input: "data", Mean: []float64{104, 117, 123}, Scale: []float64{255}}, g.MeanData[0])
}

func TestUnified_AnalysisMessages(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "ssd_mobilenet.pbtxt")
	require.NoError(t, os.WriteFile(model, nil, 0o644))
	o := config.Defaults()
	o.InputModel = model
	o.OutputDir = dir
	require.NoError(t, validate.Run(context.Background(), &o, framework.TF))
	o.Resolved.Framework = framework.TF

	results := &analysis.Results{}
	_, err := NewUnified(results).Convert(context.Background(), &o, coreRegistry(t))

	require.NoError(t, err)
	assert.Len(t, results.Messages(), 2)
}

func TestParseFreezeValue(t *testing.T) {
	got, err := parseFreezeValue("[1 2.5 true]")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 1}, got)

	_, err = parseFreezeValue("[]")
	assert.Error(t, err)
	_, err = parseFreezeValue("abc")
	assert.Error(t, err)
}
