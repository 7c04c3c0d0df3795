// Package core registers the operations every IR can contain and the
// framework-independent middle and back passes.
package core

import (
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// IdentityAttrs are the attributes of an Identity inserted by a front
// replacement. Input names the model input the Identity follows.
type IdentityAttrs struct {
	Input string `cty:"input"`
}

// TensorIteratorAttrs are the attributes of a TensorIterator.
type TensorIteratorAttrs struct {
	Axis   int `cty:"axis"`
	Stride int `cty:"stride"`
}

// Register registers the core operations and generic passes.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp(graph.OpParameter, nil)
	r.RegisterOp(graph.OpConst, nil)
	r.RegisterOp(graph.OpResult, nil)
	r.RegisterOp(graph.OpIdentity, IdentityAttrs{})
	r.RegisterOp(graph.OpTensorIterator, TensorIteratorAttrs{})

	r.RegisterExtension(&registry.Extension{
		Name:     "middle_freeze_placeholder",
		Class:    registry.ClassMiddleReplacement,
		Op:       graph.OpConst,
		Enabled:  true,
		Priority: 100,
	})
	r.RegisterExtension(&registry.Extension{
		Name:    "middle_insert_results",
		Class:   registry.ClassMiddleReplacement,
		Op:      graph.OpResult,
		Enabled: true,
	})
	r.RegisterExtension(&registry.Extension{
		Name:    "back_normalize_ti",
		Class:   registry.ClassBackReplacement,
		Op:      graph.OpTensorIterator,
		Enabled: true,
	})
}
