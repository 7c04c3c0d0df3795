package graph

import "sync"

// Well-known operation types.
const (
	OpParameter      = "Parameter"
	OpConst          = "Const"
	OpResult         = "Result"
	OpIdentity       = "Identity"
	OpTensorIterator = "TensorIterator"
)

// Tensor is a constant value. Data is kept in float64 and narrowed to the
// requested precision when weights are written.
type Tensor struct {
	DataType string
	Shape    []int64
	Data     []float64
}

// Size returns the number of elements described by Shape. A scalar has one.
func (t *Tensor) Size() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// PortMap links an external port of a TensorIterator to a layer inside its
// body.
type PortMap struct {
	ExternalPort  int
	InternalLayer string
	InternalPort  int
	Axis          *int
	Output        bool
}

// BackEdge carries a body output back to a body input between iterations.
type BackEdge struct {
	FromLayer string
	FromPort  int
	ToLayer   string
	ToPort    int
}

// Node is one operation of the network.
type Node struct {
	ID   string
	Name string
	Op   string
	// Attrs are written verbatim as the layer's data attributes.
	Attrs    map[string]string
	Shape    []int64
	DataType string
	// Value is set for Const nodes.
	Value *Tensor

	// Body is set for nodes owning a sub-graph.
	Body      *Graph
	PortMap   []PortMap
	BackEdges []BackEdge
}

// Edge connects output FromPort of From to input ToPort of To.
type Edge struct {
	From     string
	FromPort int
	To       string
	ToPort   int
	Value    *Tensor
	// ValueOf names the Const node Value was taken from.
	ValueOf string
}

// Dangling reports whether the edge has lost its source node.
func (e *Edge) Dangling() bool { return e.From == "" }

// MeanData is the per-input mean and scale carried into the IR pre-process
// section.
type MeanData struct {
	Input string
	Mean  []float64
	Scale []float64
}

// Graph is a network of nodes connected by port edges. All operations on
// the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*Node
	// order keeps node insertion order so iteration is deterministic.
	order []string
	edges []*Edge

	Name string
	// InputNames are the model inputs in the order the user listed them.
	InputNames []string
	MeanData   []MeanData
}
