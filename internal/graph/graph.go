package graph

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New(name string) *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		Name:  name,
	}
}

// AddNode adds n to the graph. IDs must be unique.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("node without id (op %s)", n.Op)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("node already exists: %s", n.ID)
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge connects two nodes. An empty From creates a dangling edge, which
// must carry a value.
func (g *Graph) AddEdge(e *Edge) error {
	if e.From != "" && e.From == e.To {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", e.From, e.To)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if e.From == "" {
		if e.Value == nil {
			return fmt.Errorf("dangling edge into %s has no value", e.To)
		}
	} else if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("source node not found: %s", e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("destination node not found: %s", e.To)
	}
	g.edges = append(g.edges, e)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesByOp returns the nodes of one operation type in insertion order.
func (g *Graph) NodesByOp(op string) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Op == op {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]*Edge(nil), g.edges...)
}

// InEdges returns the edges ending at id, sorted by input port.
func (g *Graph) InEdges(id string) []*Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []*Edge
	for _, e := range g.edges {
		if e.To == id {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ToPort < out[j].ToPort })
	return out
}

// OutEdges returns the edges leaving id, sorted by output port.
func (g *Graph) OutEdges(id string) []*Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []*Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FromPort < out[j].FromPort })
	return out
}

// RemoveNode deletes a node and every edge attached to it. Callers that
// want to keep outgoing values must detach those edges first.
func (g *Graph) RemoveNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	for i, nid := range g.order {
		if nid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
}

// UniqueID returns base if no node uses it, otherwise base with the
// smallest numeric suffix that is free.
func (g *Graph) UniqueID(base string) string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.nodes[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s_%d", base, i)
		if _, ok := g.nodes[id]; !ok {
			return id
		}
	}
}

// TopologicalSort orders nodes so that every edge source precedes its
// destination. Unrelated nodes keep insertion order. A cycle is an error.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	dependents := make(map[string][]string, len(g.nodes))
	for _, e := range g.edges {
		if e.From != "" {
			dependents[e.From] = append(dependents[e.From], e.To)
		}
	}

	// Depth-first search with a temporary mark for the current recursion
	// stack. The post-order is reversed at the end.
	permanent := make(map[string]bool, len(g.nodes))
	temporary := make(map[string]bool)
	sorted := make([]*Node, 0, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node '%s'", id)
		}
		temporary[id] = true
		deps := dependents[id]
		for i := len(deps) - 1; i >= 0; i-- {
			if err := visit(deps[i]); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		sorted = append(sorted, g.nodes[id])
		return nil
	}

	for i := len(g.order) - 1; i >= 0; i-- {
		if err := visit(g.order[i]); err != nil {
			return nil, err
		}
	}
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted, nil
}

// DetectCycles returns an error naming a node on a cycle, if any.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}

// SubGraphs returns the bodies owned by nodes of this graph, not recursing.
func (g *Graph) SubGraphs() []*Graph {
	var out []*Graph
	for _, n := range g.Nodes() {
		if n.Body != nil {
			out = append(out, n.Body)
		}
	}
	return out
}

// ForEachSubGraphRecursively applies fn to every sub-graph at every depth,
// but not to g itself. Inner graphs are visited before their parents.
func ForEachSubGraphRecursively(g *Graph, fn func(*Graph) error) error {
	for _, sub := range g.SubGraphs() {
		if err := ForEachSubGraphRecursively(sub, fn); err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
	}
	return nil
}

// ForGraphAndEachSubGraphRecursively applies fn to g and then to every
// sub-graph at every depth.
func ForGraphAndEachSubGraphRecursively(g *Graph, fn func(*Graph) error) error {
	if err := fn(g); err != nil {
		return err
	}
	return ForEachSubGraphRecursively(g, fn)
}
