package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/specialistvlad/modelopt/internal/analysis"
	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/moerr"
	"github.com/specialistvlad/modelopt/internal/registry"
	"github.com/specialistvlad/modelopt/modules/core"
)

// DefaultInputName names the input of a model when --input is not given.
const DefaultInputName = "input"

// Unified is the built-in pipeline. It checks that every referenced model
// file exists and lays out the model interface: one Parameter per input,
// a Const per frozen input, the Identity nodes requested by front
// replacements, and a Result per output.
type Unified struct {
	Analysis *analysis.Results
}

// NewUnified returns a Unified pipeline reporting into results.
func NewUnified(results *analysis.Results) *Unified {
	return &Unified{Analysis: results}
}

// sourceFiles lists the model files the options reference, in a fixed
// order.
func sourceFiles(o *config.Options) []string {
	var out []string
	for _, p := range []string{
		o.InputModel, o.InputProto, o.InputSymbol, o.InputMetaGraph,
		o.SavedModelDir, o.InputCheckpoint, o.MeanFile, o.Counts,
	} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func checkSources(o *config.Options) error {
	for _, p := range sourceFiles(o) {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return moerr.NotFound("pipeline.sources", p)
			}
			return err
		}
	}
	return nil
}

func (u *Unified) analyze(o *config.Options) {
	if u.Analysis == nil {
		return
	}
	if o.Resolved.Framework == framework.TF && strings.HasSuffix(o.InputModel, ".pbtxt") && !o.InputModelIsText {
		u.Analysis.Add("The input model has the .pbtxt extension. If it is a text protobuf, use --input_model_is_text.")
	}
	if o.Resolved.Framework == framework.TF && o.TensorflowObjectDetectionAPIPipelineConfig == "" &&
		strings.Contains(strings.ToLower(o.InputModel), "ssd") {
		u.Analysis.Add("The model looks like an Object Detection API model. Consider --tensorflow_object_detection_api_pipeline_config.")
	}
}

// Convert implements Pipeline.
func (u *Unified) Convert(ctx context.Context, o *config.Options, reg *registry.Registry) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	if err := checkSources(o); err != nil {
		return nil, err
	}
	u.analyze(o)

	g := graph.New(o.ModelName)
	for _, name := range o.Resolved.InputNames {
		if _, frozen := o.Resolved.FreezeValues[name]; !frozen {
			g.InputNames = append(g.InputNames, name)
		}
	}

	tails, err := addInputs(g, o)
	if err != nil {
		return nil, err
	}

	applied, err := applyFrontReplacements(g, reg, tails)
	if err != nil {
		return nil, err
	}

	if err := addResults(g, o, tails); err != nil {
		return nil, err
	}

	if o.MoveToPreprocess {
		g.MeanData = meanData(o)
	}

	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Graph built.", "nodes", g.Len(), "edges", len(g.Edges()), "front_replacements", applied)
	return g, nil
}

type input struct {
	name string
	tail string
}

// addInputs creates the source node of every input and returns, per input,
// the node later stages attach to.
func addInputs(g *graph.Graph, o *config.Options) ([]input, error) {
	names := make([]string, 0, len(o.Resolved.InputSpecs))
	for _, s := range o.Resolved.InputSpecs {
		names = append(names, s.Name)
	}
	if len(names) == 0 {
		names = []string{DefaultInputName}
	}

	out := make([]input, 0, len(names))
	for _, name := range names {
		dt := o.Resolved.DataType
		if t, ok := o.Resolved.PlaceholderDataTypes[name]; ok {
			dt = t
		}
		shape := o.Resolved.PlaceholderShapes[name]
		if shape == nil && len(names) == 1 {
			shape = o.Resolved.UnnamedShape
		}

		n := &graph.Node{ID: name, Op: graph.OpParameter, Shape: shape, DataType: dt}
		raw, frozen := o.Resolved.FreezeValues[name]
		if !frozen && o.Batch > 0 && len(shape) > 0 {
			n.Shape = append([]int64{int64(o.Batch)}, shape[1:]...)
		}
		if frozen {
			data, err := parseFreezeValue(raw)
			if err != nil {
				return nil, moerr.WrapConfigf(err, "pipeline.freeze", "Cannot convert the freezing value %q of input %s.", raw, name)
			}
			if shape == nil {
				shape = []int64{int64(len(data))}
				if len(data) == 1 {
					shape = []int64{}
				}
			}
			n.Op = graph.OpConst
			n.Shape = shape
			n.Value = &graph.Tensor{DataType: dt, Shape: shape, Data: data}
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
		out = append(out, input{name: name, tail: name})
	}
	return out, nil
}

// parseFreezeValue accepts a scalar or a bracketed, space-separated list.
// Booleans are stored as 0 and 1.
func parseFreezeValue(raw string) ([]float64, error) {
	fields := strings.Fields(strings.Trim(strings.TrimSpace(raw), "[]"))
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "true":
			out = append(out, 1)
			continue
		case "false":
			out = append(out, 0)
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, strconv.ErrSyntax
	}
	return out, nil
}

// applyFrontReplacements inserts an Identity after each input targeted by
// an enabled Identity front replacement.
func applyFrontReplacements(g *graph.Graph, reg *registry.Registry, inputs []input) (int, error) {
	if reg == nil {
		return 0, nil
	}
	applied := 0
	for _, e := range reg.Extensions(registry.ClassFrontReplacement) {
		if e.Op != graph.OpIdentity {
			continue
		}
		var attrs core.IdentityAttrs
		if err := registry.DecodeAttrs(e, &attrs); err != nil {
			return applied, err
		}
		for i := range inputs {
			if attrs.Input != "" && attrs.Input != inputs[i].name {
				continue
			}
			src, _ := g.Node(inputs[i].tail)
			id := g.UniqueID(inputs[i].name + "/" + e.Name)
			n := &graph.Node{ID: id, Op: graph.OpIdentity, Shape: src.Shape, DataType: src.DataType}
			if err := g.AddNode(n); err != nil {
				return applied, err
			}
			if err := g.AddEdge(&graph.Edge{From: inputs[i].tail, To: id}); err != nil {
				return applied, err
			}
			inputs[i].tail = id
			applied++
		}
	}
	return applied, nil
}

// addResults attaches Result nodes to the requested outputs, or to the end
// of every input chain when no output is named.
func addResults(g *graph.Graph, o *config.Options, inputs []input) error {
	targets := o.Resolved.Outputs
	if len(targets) == 0 {
		for _, in := range inputs {
			targets = append(targets, in.tail)
		}
	}
	for _, t := range targets {
		t = strings.TrimSpace(t)
		src, ok := g.Node(t)
		if !ok {
			return moerr.Configf("pipeline.outputs", "Output node %s was not found in the model. Check the --output option.", t)
		}
		id := g.UniqueID(t + "/sink_port_0")
		if err := g.AddNode(&graph.Node{ID: id, Op: graph.OpResult, Shape: src.Shape, DataType: src.DataType}); err != nil {
			return err
		}
		if err := g.AddEdge(&graph.Edge{From: t, To: id}); err != nil {
			return err
		}
	}
	return nil
}

func meanData(o *config.Options) []graph.MeanData {
	ms := o.Resolved.MeanScale
	names := make([]string, 0, len(ms.ByInput))
	for name := range ms.ByInput {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []graph.MeanData
	for _, name := range names {
		v := ms.ByInput[name]
		out = append(out, graph.MeanData{Input: name, Mean: v.Mean, Scale: v.Scale})
	}
	if len(ms.Unnamed) > 0 {
		input := DefaultInputName
		if len(o.Resolved.InputSpecs) > 0 {
			input = o.Resolved.InputSpecs[0].Name
		}
		v := ms.Unnamed[0]
		out = append(out, graph.MeanData{Input: input, Mean: v.Mean, Scale: v.Scale})
	}
	return out
}
