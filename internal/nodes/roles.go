package nodes

import (
	"slices"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// Claim is a node asserting something, tied to the Source that supports it.
// Thing, Match, Property, Connection and Grouping are claims.
type Claim interface {
	node.Node
	Source() Source
}

// Source is a node that justifies claims: an ExternalSource or an Inference.
type Source interface {
	node.Node
	isSource()
}

// Entity is a claim that denotes a real-world thing: a Thing, or a Match
// asserting several things are the same.
type Entity interface {
	Claim
	isEntity()
}

// claimBase holds the source every claim carries.
type claimBase struct {
	node.Base
	source Source
}

// Source returns the supporting source.
func (c *claimBase) Source() Source { return c.source }

func (c *claimBase) sourceAttr() (ir.IRValue, bool) {
	if c.source == nil {
		return nil, false
	}
	return ir.Ref(c.source), true
}

func (c *claimBase) validateSource(log *node.Log) bool {
	if c.source == nil {
		log.Addf("%s: source should not be nil", c.Class())
		return false
	}
	return true
}

// refs renders nodes as a list of references.
func refs[T node.Node](ns []T) ir.IRArray {
	out := make(ir.IRArray, len(ns))
	for i, n := range ns {
		out[i] = ir.Ref(n)
	}
	return out
}

// distinctSorted orders members canonically and rejects repeats.
func distinctSorted[T node.Node](what string, members []T) ([]T, error) {
	sorted := slices.Clone(members)
	slices.SortFunc(sorted, func(a, b T) int { return node.Compare(a, b) })
	for i := 1; i < len(sorted); i++ {
		if node.Equal(sorted[i-1], sorted[i]) {
			return nil, ir.Errorf(ir.ErrDuplicateIdentity, "duplicate %s", what).WithID(sorted[i].ID().String())
		}
	}
	return sorted, nil
}

// nonEmpty records a problem when s is empty.
func nonEmpty(log *node.Log, class, name, s string) bool {
	if s == "" {
		log.Addf("%s: %s should not be empty", class, name)
		return false
	}
	return true
}

// stringAttr reports a string attribute, absent when empty.
func stringAttr(s string) (ir.IRValue, bool) {
	if s == "" {
		return nil, false
	}
	return ir.IRString(s), true
}
