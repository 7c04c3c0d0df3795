// Package frontend registers the front extractors of each source
// framework: the mapping from a framework's own input and constant
// operations onto IR operations.
package frontend

import (
	"fmt"

	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/registry"
)

// extractors maps a framework operation type onto the IR operation it is
// extracted as.
var extractors = map[framework.Framework]map[string]string{
	framework.Caffe: {"Input": graph.OpParameter},
	framework.TF:    {"Placeholder": graph.OpParameter, "PlaceholderWithDefault": graph.OpParameter, "Const": graph.OpConst},
	framework.MXNet: {"null": graph.OpParameter},
	framework.Kaldi: {"input": graph.OpParameter},
	framework.ONNX:  {"input": graph.OpParameter, "Constant": graph.OpConst, "Identity": graph.OpIdentity},
}

// Module registers the front extractors of one framework.
type Module struct {
	Framework framework.Framework
}

// New returns the module of fw.
func New(fw framework.Framework) *Module {
	return &Module{Framework: fw}
}

// Register registers one front extractor per supported source operation.
func (m *Module) Register(r *registry.Registry) {
	for src, op := range extractors[m.Framework] {
		r.RegisterExtension(&registry.Extension{
			Name:      fmt.Sprintf("%s_%s_extractor", m.Framework, src),
			Class:     registry.ClassFrontExtractor,
			Framework: m.Framework,
			Op:        op,
			Enabled:   true,
		})
	}
}
