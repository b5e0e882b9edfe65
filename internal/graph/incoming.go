package graph

import (
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/node"
)

// Incoming returns the stored nodes that reference n, sorted by variant then
// identity. The empty result is a non-nil empty slice.
//
// The lookup sees through aliases. If n is an alias (a Match), or an alias
// stored in the graph names n as one of its members, every member of that
// alias class contributes its own incoming edges. The class is closed
// transitively, so a Match of Matches reaches all of them. n itself is never
// part of the result.
func (s *Store) Incoming(n node.Node) []node.Node {
	class := s.aliasClass(n)

	seen := make(map[uuid.UUID]bool)
	out := []node.Node{}
	for _, member := range class {
		for _, ref := range s.incoming[member.ID()] {
			if ref.ID() == n.ID() || seen[ref.ID()] {
				continue
			}
			seen[ref.ID()] = true
			out = append(out, ref)
		}
	}
	slices.SortFunc(out, node.Compare)
	return out
}

// Aliases returns the alias class of n: n plus every node some stored alias
// declares identical to it, directly or through other aliases.
func (s *Store) Aliases(n node.Node) []node.Node {
	class := s.aliasClass(n)
	slices.SortFunc(class, node.Compare)
	return class
}

func (s *Store) aliasClass(n node.Node) []node.Node {
	inClass := map[uuid.UUID]bool{n.ID(): true}
	class := []node.Node{n}
	add := func(m node.Node) {
		if !inClass[m.ID()] {
			inClass[m.ID()] = true
			class = append(class, m)
		}
	}

	for i := 0; i < len(class); i++ {
		member := class[i]
		if a, ok := member.(node.Aliaser); ok {
			for _, m := range a.Aliases() {
				add(m)
			}
		}
		for _, ref := range s.incoming[member.ID()] {
			a, ok := ref.(node.Aliaser)
			if !ok || !declares(a, member) {
				continue
			}
			add(a)
			for _, m := range a.Aliases() {
				add(m)
			}
		}
	}
	return class
}

// declares reports whether a lists m among the nodes it aliases, as opposed
// to merely referencing m through some other attribute.
func declares(a node.Aliaser, m node.Node) bool {
	return slices.ContainsFunc(a.Aliases(), func(x node.Node) bool { return x.ID() == m.ID() })
}
