// Package graph holds the in-memory network produced by a conversion
// pipeline and consumed by the finalization passes and the IR writer.
//
// Nodes are operations. Edges connect an output port of one node to an
// input port of another and may carry a constant tensor. An edge whose
// source is empty is dangling: it only carries a value, which is the state
// constant data is left in between finalization passes.
//
// A node may own sub-graphs (the body of a TensorIterator). Passes that must
// reach every level use ForGraphAndEachSubGraphRecursively.
package graph
