// Package graph holds nodes in an append-only store closed under
// out-edges.
//
// Add is all-or-nothing: a batch whose nodes reference anything neither
// stored nor in the batch is refused with ir.ErrDanglingReference before
// any state changes. Ingest builds nodes from their value form, resolving
// identity strings against the store and integer positions against the
// batch, then hands the whole batch to Add.
//
// Incoming is the reverse of node.OutEdges and sees through aliases: a
// Match declaring two Things identical makes the edges into either one
// visible from both.
package graph
