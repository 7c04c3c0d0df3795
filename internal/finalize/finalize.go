// Package finalize holds the graph passes that run right before the IR is
// written. Each pass works on a single graph level; callers reach nested
// bodies with graph.ForGraphAndEachSubGraphRecursively.
package finalize

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/modelopt/internal/graph"
)

// NormalizeTI puts the port maps and back edges of every TensorIterator in
// g, at any depth, into a canonical order. Running it twice is a no-op.
func NormalizeTI(g *graph.Graph) error {
	return graph.ForGraphAndEachSubGraphRecursively(g, func(level *graph.Graph) error {
		for _, n := range level.NodesByOp(graph.OpTensorIterator) {
			if n.Body == nil {
				return fmt.Errorf("tensor iterator %s has no body", n.ID)
			}
			for _, pm := range n.PortMap {
				if _, ok := n.Body.Node(pm.InternalLayer); !ok {
					return fmt.Errorf("tensor iterator %s maps port %d to unknown layer %s", n.ID, pm.ExternalPort, pm.InternalLayer)
				}
			}
			sort.SliceStable(n.PortMap, func(i, j int) bool {
				a, b := n.PortMap[i], n.PortMap[j]
				if a.Output != b.Output {
					return !a.Output
				}
				if a.ExternalPort != b.ExternalPort {
					return a.ExternalPort < b.ExternalPort
				}
				return a.InternalLayer < b.InternalLayer
			})
			sort.SliceStable(n.BackEdges, func(i, j int) bool {
				a, b := n.BackEdges[i], n.BackEdges[j]
				if a.FromLayer != b.FromLayer {
					return a.FromLayer < b.FromLayer
				}
				return a.ToLayer < b.ToLayer
			})
		}
		return nil
	})
}

// RemoveConstOps deletes every Const node, leaving its value on the edges
// it fed. Those edges become dangling.
func RemoveConstOps(g *graph.Graph) error {
	for _, n := range g.NodesByOp(graph.OpConst) {
		if n.Value == nil {
			return fmt.Errorf("const node %s has no value", n.ID)
		}
		for _, e := range g.OutEdges(n.ID) {
			e.From = ""
			e.FromPort = 0
			e.Value = n.Value
			e.ValueOf = n.ID
		}
		g.RemoveNode(n.ID)
	}
	return nil
}

// CreateConstNodesReplacement gives every dangling edge a Const source.
// Edges that share one tensor share one Const node. A Const removed by
// RemoveConstOps comes back under its old ID when that ID is still free.
func CreateConstNodesReplacement(g *graph.Graph) error {
	created := map[*graph.Tensor]string{}
	for _, e := range g.Edges() {
		if !e.Dangling() {
			continue
		}
		id, ok := created[e.Value]
		if !ok {
			base := e.ValueOf
			if base == "" {
				base = fmt.Sprintf("%s/port_%d/const", e.To, e.ToPort)
			}
			id = g.UniqueID(base)
			c := &graph.Node{
				ID:       id,
				Op:       graph.OpConst,
				Value:    e.Value,
				Shape:    e.Value.Shape,
				DataType: e.Value.DataType,
			}
			if err := g.AddNode(c); err != nil {
				return err
			}
			created[e.Value] = id
		}
		e.From = id
		e.FromPort = 0
		e.ValueOf = ""
	}
	return nil
}

// RemoveOutputOps deletes the Result nodes of g together with their
// incoming edges.
func RemoveOutputOps(g *graph.Graph) error {
	for _, n := range g.NodesByOp(graph.OpResult) {
		g.RemoveNode(n.ID)
	}
	return nil
}
