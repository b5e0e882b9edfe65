package nodes

import (
	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// ThingKind describes Thing nodes.
var ThingKind = &node.Kind{
	Name:        "Thing",
	HasIdentity: true,
	Attrs: []node.AttrSpec{
		{Name: "source", Required: true},
	},
}

// Thing is the claim that some real-world entity exists. It is the one
// built-in variant with an assigned identity: two Things with the same
// source are still different entities.
type Thing struct {
	claimBase
}

// NewThing builds a thing. A nil id draws a fresh random identity.
func NewThing(source Source, id uuid.UUID) (*Thing, error) {
	t := &Thing{claimBase{Base: node.NewBase(ThingKind), source: source}}
	if err := node.Seal(t, id); err != nil {
		return nil, err
	}
	return t, nil
}

func newThing(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(ThingKind, attrs, lk)
	t := &Thing{claimBase{Base: node.NewBase(ThingKind)}}
	t.source = node.As[Source](r, "source", r.Node("source"))
	return t, r.Err()
}

func (t *Thing) isEntity() {}

// Attr implements node.Node.
func (t *Thing) Attr(name string) (ir.IRValue, bool) {
	if name == "source" {
		return t.sourceAttr()
	}
	return nil, false
}

// Validate implements node.Node.
func (t *Thing) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(t, log)
	return t.validateSource(log) && ok
}

// MatchKind describes Match nodes.
var MatchKind = &node.Kind{
	Name: "Match",
	Attrs: []node.AttrSpec{
		{Name: "source", Required: true},
		{Name: "same", Required: true},
	},
}

// Match asserts that several entities are one and the same. It is itself an
// entity but, unlike Thing, its identity is derived from its content.
type Match struct {
	claimBase
	same []Entity
}

// NewMatch builds a match. Repeating a member is an ErrDuplicateIdentity;
// fewer than two members builds but fails Validate.
func NewMatch(source Source, same ...Entity) (*Match, error) {
	sorted, err := distinctSorted("match member", same)
	if err != nil {
		return nil, err
	}
	m := &Match{claimBase: claimBase{Base: node.NewBase(MatchKind), source: source}, same: sorted}
	if err := node.Seal(m, uuid.Nil); err != nil {
		return nil, err
	}
	return m, nil
}

func newMatch(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(MatchKind, attrs, lk)
	m := &Match{claimBase: claimBase{Base: node.NewBase(MatchKind)}}
	m.source = node.As[Source](r, "source", r.Node("source"))
	same := node.AsAll[Entity](r, "same", r.Nodes("same"))
	if err := r.Err(); err != nil {
		return nil, err
	}
	sorted, err := distinctSorted("match member", same)
	if err != nil {
		return nil, err
	}
	m.same = sorted
	return m, nil
}

// Same returns the members, in canonical order.
func (m *Match) Same() []Entity { return m.same }

// Aliases implements node.Aliaser.
func (m *Match) Aliases() []node.Node {
	out := make([]node.Node, len(m.same))
	for i, e := range m.same {
		out[i] = e
	}
	return out
}

func (m *Match) isEntity() {}

// Attr implements node.Node.
func (m *Match) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "source":
		return m.sourceAttr()
	case "same":
		return ir.IRSet(refs(m.same)), true
	}
	return nil, false
}

// Validate implements node.Node.
func (m *Match) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(m, log)
	ok = m.validateSource(log) && ok
	if len(m.same) < 2 {
		log.Addf("Match: cannot match only %d thing(s)", len(m.same))
		ok = false
	}
	return ok
}
