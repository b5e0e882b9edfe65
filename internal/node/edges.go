package node

import (
	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
)

// OutEdges returns the nodes referenced by n's attributes, in declared
// attribute order. References nested inside arrays, sets and maps count;
// the walk does not descend into the referenced nodes themselves.
func OutEdges(n Node) []Node {
	var out []Node
	for _, a := range n.Kind().Attrs {
		if v, ok := n.Attr(a.Name); ok {
			out = collectRefs(v, out)
		}
	}
	return out
}

func collectRefs(v ir.IRValue, out []Node) []Node {
	switch val := v.(type) {
	case ir.IRRef:
		if target, ok := val.Target.(Node); ok {
			out = append(out, target)
		}
	case ir.IRArray:
		for _, e := range val {
			out = collectRefs(e, out)
		}
	case ir.IRSet:
		for _, e := range val {
			out = collectRefs(e, out)
		}
	case ir.IRObject:
		for _, k := range val.SortedKeys() {
			out = collectRefs(val[k], out)
		}
	}
	return out
}

// DependsOn returns the transitive closure of OutEdges with every node
// listed after its own dependencies. Shared dependencies repeat.
func DependsOn(n Node) []Node {
	var out []Node
	for _, e := range OutEdges(n) {
		out = append(out, DependsOn(e)...)
		out = append(out, e)
	}
	return out
}

// WithDependencies returns n's dependencies followed by n, without repeats,
// so each entry only refers to entries before it.
func WithDependencies(n Node) []Node {
	all := append(DependsOn(n), n)
	seen := make(map[uuid.UUID]bool, len(all))
	out := all[:0]
	for _, d := range all {
		if seen[d.ID()] {
			continue
		}
		seen[d.ID()] = true
		out = append(out, d)
	}
	return out
}
