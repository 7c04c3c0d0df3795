package irwriter

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/modelopt/internal/graph"
)

// addGraph is data + w -> sum -> out.
func addGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("net")
	g.InputNames = []string{"data"}
	require.NoError(t, g.AddNode(&graph.Node{ID: "data", Op: graph.OpParameter, Shape: []int64{1, 3}, DataType: "FP32"}))
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "w", Op: graph.OpConst, Shape: []int64{3},
		Value: &graph.Tensor{DataType: "FP32", Shape: []int64{3}, Data: []float64{1, 2, 3}},
	}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "sum", Op: "Add", Shape: []int64{1, 3}, DataType: "FP32"}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "out", Op: graph.OpResult, Shape: []int64{1, 3}}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "data", To: "sum"}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "w", To: "sum", ToPort: 1}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "sum", To: "out"}))
	return g
}

func readNet(t *testing.T, path string) xmlNet {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var net xmlNet
	require.NoError(t, xml.Unmarshal(raw, &net))
	return net
}

func layerByName(t *testing.T, net xmlNet, name string) xmlLayer {
	t.Helper()
	for _, l := range net.Layers {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("layer %s not found", name)
	return xmlLayer{}
}

func TestEmit_V10FP16(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	w := &Writer{RunID: func() string { return "run-1" }}
	req := Request{
		DataType:   "FP16",
		OutputDir:  dir,
		ModelName:  "net",
		InputNames: []string{"data"},
		Meta:       map[string]string{"input_model": "net.onnx", "unset": "[batch, scale]"},
		IRVersion:  10,
	}

	// Act
	res, err := w.Emit(context.Background(), addGraph(t), req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "net.xml"), res.XMLPath)
	assert.Equal(t, filepath.Join(dir, "net.bin"), res.BinPath)

	bin, err := os.ReadFile(res.BinPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0x40, 0x00, 0x42}, bin)

	net := readNet(t, res.XMLPath)
	assert.Equal(t, 10, net.Version)
	require.Len(t, net.Layers, 4)
	for i, l := range net.Layers {
		assert.Equal(t, i, l.ID)
		assert.Equal(t, "opset1", l.Version)
	}

	sum := layerByName(t, net, "sum")
	require.NotNil(t, sum.Input)
	assert.Len(t, sum.Input.Ports, 2)
	require.NotNil(t, sum.Output)
	assert.Equal(t, 2, sum.Output.Ports[0].ID, "outputs are numbered after inputs")
	assert.Equal(t, "FP16", sum.Output.Ports[0].Precision)

	out := layerByName(t, net, "out")
	assert.Nil(t, out.Output)

	want := []xmlEdge{
		{FromLayer: 0, FromPort: 0, ToLayer: 2, ToPort: 0},
		{FromLayer: 1, FromPort: 0, ToLayer: 2, ToPort: 1},
		{FromLayer: 2, FromPort: 2, ToLayer: 3, ToPort: 0},
	}
	if diff := cmp.Diff(want, net.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, net.Meta)
	assert.Equal(t, "run-1", net.Meta.RunID.Value)
	require.Len(t, net.Meta.CLI.Entries, 2)
	assert.Equal(t, "input_model", net.Meta.CLI.Entries[0].XMLName.Local)
	assert.Equal(t, "unset", net.Meta.CLI.Entries[1].XMLName.Local)
	assert.Equal(t, "batch, scale", net.Meta.CLI.Entries[1].Attrs[0].Value)
}

func TestEmit_ConstAttributes(t *testing.T) {
	dir := t.TempDir()

	res, err := New().Emit(context.Background(), addGraph(t), Request{OutputDir: dir, ModelName: "net"})

	require.NoError(t, err)
	net := readNet(t, res.XMLPath)
	w := layerByName(t, net, "w")
	require.NotNil(t, w.Data)
	got := map[string]string{}
	for _, a := range w.Data.Attrs {
		got[a.Name.Local] = a.Value
	}
	assert.Equal(t, map[string]string{"element_type": "f32", "shape": "3", "offset": "0", "size": "12"}, got)
	assert.Nil(t, net.Meta)
}

func TestEmit_V7UsesBlobsAndInputType(t *testing.T) {
	g := addGraph(t)
	g.RemoveNode("out")
	dir := t.TempDir()

	res, err := New().Emit(context.Background(), g, Request{OutputDir: dir, ModelName: "net", IRVersion: 7})

	require.NoError(t, err)
	net := readNet(t, res.XMLPath)
	assert.Equal(t, 7, net.Version)
	data := layerByName(t, net, "data")
	assert.Equal(t, "Input", data.Type)
	assert.Equal(t, "FP32", data.Precision)
	w := layerByName(t, net, "w")
	require.NotNil(t, w.Blobs)
	assert.Equal(t, xmlBlob{Offset: 0, Size: 12, Precision: "FP32"}, w.Blobs.Custom)
}

func TestEmit_PreProcess(t *testing.T) {
	dir := t.TempDir()
	req := Request{
		OutputDir: dir,
		ModelName: "net",
		MeanData:  []graph.MeanData{{Input: "data", Mean: []float64{104, 117, 123}, Scale: []float64{255}}},
	}

	res, err := New().Emit(context.Background(), addGraph(t), req)

	require.NoError(t, err)
	net := readNet(t, res.XMLPath)
	require.Len(t, net.PreProcess, 1)
	pp := net.PreProcess[0]
	assert.Equal(t, "data", pp.ReferenceLayer)
	require.Len(t, pp.Channels, 3)
	assert.Equal(t, "117", pp.Channels[1].Mean.Value)
	assert.Equal(t, "255", pp.Channels[2].Scale.Value)
}

func TestEmit_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New().Emit(context.Background(), addGraph(t), Request{OutputDir: dir, ModelName: "net", InputNames: []string{"image"}})
	assert.ErrorContains(t, err, "input image is missing")

	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "sum", Op: "Add"}))
	require.NoError(t, g.AddEdge(&graph.Edge{To: "sum", Value: &graph.Tensor{Shape: []int64{}, Data: []float64{1}}}))
	_, err = New().Emit(context.Background(), g, Request{OutputDir: dir, ModelName: "net"})
	assert.ErrorContains(t, err, "has no source")

	_, err = New().Emit(context.Background(), addGraph(t), Request{OutputDir: dir})
	assert.Error(t, err)
}

func TestEmit_TensorIteratorBody(t *testing.T) {
	body := graph.New("body")
	require.NoError(t, body.AddNode(&graph.Node{ID: "in", Op: graph.OpParameter, Shape: []int64{1, 4}}))
	require.NoError(t, body.AddNode(&graph.Node{ID: "res", Op: graph.OpResult, Shape: []int64{1, 4}}))
	require.NoError(t, body.AddEdge(&graph.Edge{From: "in", To: "res"}))

	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "data", Op: graph.OpParameter, Shape: []int64{1, 4}}))
	axis := 1
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "ti", Op: graph.OpTensorIterator, Shape: []int64{1, 4}, Body: body,
		PortMap: []graph.PortMap{
			{ExternalPort: 0, InternalLayer: "in", Axis: &axis},
			{ExternalPort: 0, InternalLayer: "res", Output: true},
		},
		BackEdges: []graph.BackEdge{{FromLayer: "res", ToLayer: "in"}},
	}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "data", To: "ti"}))
	dir := t.TempDir()

	res, err := New().Emit(context.Background(), g, Request{OutputDir: dir, ModelName: "ti"})

	require.NoError(t, err)
	ti := layerByName(t, readNet(t, res.XMLPath), "ti")
	require.NotNil(t, ti.Body)
	assert.Len(t, ti.Body.Layers, 2)
	require.NotNil(t, ti.PortMap)
	require.Len(t, ti.PortMap.Inputs, 1)
	assert.Equal(t, 1, *ti.PortMap.Inputs[0].Axis)
	require.Len(t, ti.PortMap.Outputs, 1)
	assert.Equal(t, 1, ti.PortMap.Outputs[0].ExternalPort)
	assert.Equal(t, 1, ti.PortMap.Outputs[0].InternalLayer)
	require.NotNil(t, ti.BackEdges)
	assert.Equal(t, xmlEdge{FromLayer: 1, ToLayer: 0}, ti.BackEdges.Edges[0])
}

func TestEncodeTensor(t *testing.T) {
	cases := []struct {
		precision string
		data      []float64
		want      []byte
	}{
		{"I32", []float64{-1}, []byte{0xff, 0xff, 0xff, 0xff}},
		{"I64", []float64{2}, []byte{2, 0, 0, 0, 0, 0, 0, 0}},
		{"U8", []float64{200}, []byte{200}},
		{"BOOL", []float64{1}, []byte{1}},
		{"U1", []float64{1, 0, 1}, []byte{0xa0}},
	}
	for _, tc := range cases {
		t.Run(tc.precision, func(t *testing.T) {
			got, err := encodeTensor(&graph.Tensor{Shape: []int64{int64(len(tc.data))}, Data: tc.data}, tc.precision)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := encodeTensor(&graph.Tensor{Shape: []int64{2}, Data: []float64{1}}, "FP32")
	assert.ErrorContains(t, err, "do not fill shape")
	_, err = encodeTensor(&graph.Tensor{Shape: []int64{}, Data: []float64{1}}, "C64")
	assert.Error(t, err)
}

func TestPrecisionOf(t *testing.T) {
	assert.Equal(t, "FP16", precisionOf("FP32", "FP16"))
	assert.Equal(t, "FP16", precisionOf("", "FP16"))
	assert.Equal(t, "I32", precisionOf("I32", "FP16"))
}
