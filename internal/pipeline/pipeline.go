// Package pipeline is the boundary between the driver and the graph
// construction engine. The driver hands over validated options and the
// loaded extension registry and receives a graph ready for emission.
package pipeline

import (
	"context"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/registry"
)

// Pipeline builds the network graph of a model.
type Pipeline interface {
	Convert(ctx context.Context, o *config.Options, reg *registry.Registry) (*graph.Graph, error)
}

// Func adapts a function to the Pipeline interface.
type Func func(ctx context.Context, o *config.Options, reg *registry.Registry) (*graph.Graph, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, o *config.Options, reg *registry.Registry) (*graph.Graph, error) {
	return f(ctx, o, reg)
}
