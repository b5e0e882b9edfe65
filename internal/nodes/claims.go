package nodes

import (
	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// PropertyKind describes Property nodes.
var PropertyKind = &node.Kind{
	Name: "Property",
	Attrs: []node.AttrSpec{
		{Name: "source", Required: true},
		{Name: "subject", Required: true},
		{Name: "key", Required: true},
		{Name: "value", Required: true},
	},
}

// Property claims a key/value fact about a subject claim, e.g. that a
// person's name is "Jane".
type Property struct {
	claimBase
	subject Claim
	key     string
	value   string
}

// NewProperty builds a property claim.
func NewProperty(source Source, subject Claim, key, value string) (*Property, error) {
	p := &Property{claimBase: claimBase{Base: node.NewBase(PropertyKind), source: source}, subject: subject, key: key, value: value}
	if err := node.Seal(p, uuid.Nil); err != nil {
		return nil, err
	}
	return p, nil
}

func newProperty(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(PropertyKind, attrs, lk)
	p := &Property{
		claimBase: claimBase{Base: node.NewBase(PropertyKind), source: node.As[Source](r, "source", r.Node("source"))},
		subject:   node.As[Claim](r, "subject", r.Node("subject")),
		key:       r.String("key"),
		value:     r.String("value"),
	}
	return p, r.Err()
}

// Subject returns the claim the property is about.
func (p *Property) Subject() Claim { return p.subject }

// Key returns the property name.
func (p *Property) Key() string { return p.key }

// Value returns the property value.
func (p *Property) Value() string { return p.value }

// Attr implements node.Node.
func (p *Property) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "source":
		return p.sourceAttr()
	case "subject":
		if p.subject == nil {
			return nil, false
		}
		return ir.Ref(p.subject), true
	case "key":
		return stringAttr(p.key)
	case "value":
		return stringAttr(p.value)
	}
	return nil, false
}

// Validate implements node.Node.
func (p *Property) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(p, log)
	ok = p.validateSource(log) && ok
	if p.subject == nil {
		log.Addf("Property: subject should not be nil")
		ok = false
	}
	ok = nonEmpty(log, p.Class(), "key", p.key) && ok
	return nonEmpty(log, p.Class(), "value", p.value) && ok
}

// ConnectionKind describes Connection nodes.
var ConnectionKind = &node.Kind{
	Name: "Connection",
	Attrs: []node.AttrSpec{
		{Name: "source", Required: true},
		{Name: "subject", Required: true},
		{Name: "object", Required: true},
		{Name: "relation", Required: true},
	},
}

// Connection claims a directed relation between two claims, e.g. that one
// person is the parent of another.
type Connection struct {
	claimBase
	subject  Claim
	object   Claim
	relation string
}

// NewConnection builds a connection claim.
func NewConnection(source Source, subject, object Claim, relation string) (*Connection, error) {
	c := &Connection{
		claimBase: claimBase{Base: node.NewBase(ConnectionKind), source: source},
		subject:   subject,
		object:    object,
		relation:  relation,
	}
	if err := node.Seal(c, uuid.Nil); err != nil {
		return nil, err
	}
	return c, nil
}

func newConnection(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(ConnectionKind, attrs, lk)
	c := &Connection{
		claimBase: claimBase{Base: node.NewBase(ConnectionKind), source: node.As[Source](r, "source", r.Node("source"))},
		subject:   node.As[Claim](r, "subject", r.Node("subject")),
		object:    node.As[Claim](r, "object", r.Node("object")),
		relation:  r.String("relation"),
	}
	return c, r.Err()
}

// Subject returns the claim the relation starts from.
func (c *Connection) Subject() Claim { return c.subject }

// Object returns the claim the relation points to.
func (c *Connection) Object() Claim { return c.object }

// Relation names the relation.
func (c *Connection) Relation() string { return c.relation }

// Attr implements node.Node.
func (c *Connection) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "source":
		return c.sourceAttr()
	case "subject":
		if c.subject == nil {
			return nil, false
		}
		return ir.Ref(c.subject), true
	case "object":
		if c.object == nil {
			return nil, false
		}
		return ir.Ref(c.object), true
	case "relation":
		return stringAttr(c.relation)
	}
	return nil, false
}

// Validate implements node.Node.
func (c *Connection) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(c, log)
	ok = c.validateSource(log) && ok
	if c.subject == nil {
		log.Addf("Connection: subject should not be nil")
		ok = false
	}
	if c.object == nil {
		log.Addf("Connection: object should not be nil")
		ok = false
	}
	return nonEmpty(log, c.Class(), "relation", c.relation) && ok
}

// GroupingKind describes Grouping nodes.
var GroupingKind = &node.Kind{
	Name: "Grouping",
	Attrs: []node.AttrSpec{
		{Name: "source", Required: true},
		{Name: "subjects", Required: true},
		{Name: "relation", Required: true},
	},
}

// Grouping claims an undirected relation among two or more claims, e.g.
// that several people were siblings.
type Grouping struct {
	claimBase
	subjects []Claim
	relation string
}

// NewGrouping builds a grouping. Repeating a subject is an
// ErrDuplicateIdentity; fewer than two subjects builds but fails Validate.
func NewGrouping(source Source, relation string, subjects ...Claim) (*Grouping, error) {
	sorted, err := distinctSorted("grouping subject", subjects)
	if err != nil {
		return nil, err
	}
	g := &Grouping{claimBase: claimBase{Base: node.NewBase(GroupingKind), source: source}, subjects: sorted, relation: relation}
	if err := node.Seal(g, uuid.Nil); err != nil {
		return nil, err
	}
	return g, nil
}

func newGrouping(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(GroupingKind, attrs, lk)
	g := &Grouping{
		claimBase: claimBase{Base: node.NewBase(GroupingKind), source: node.As[Source](r, "source", r.Node("source"))},
		relation:  r.String("relation"),
	}
	subjects := node.AsAll[Claim](r, "subjects", r.Nodes("subjects"))
	if err := r.Err(); err != nil {
		return nil, err
	}
	sorted, err := distinctSorted("grouping subject", subjects)
	if err != nil {
		return nil, err
	}
	g.subjects = sorted
	return g, nil
}

// Subjects returns the grouped claims in canonical order.
func (g *Grouping) Subjects() []Claim { return g.subjects }

// Relation names the relation.
func (g *Grouping) Relation() string { return g.relation }

// Attr implements node.Node.
func (g *Grouping) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "source":
		return g.sourceAttr()
	case "subjects":
		return ir.IRSet(refs(g.subjects)), true
	case "relation":
		return stringAttr(g.relation)
	}
	return nil, false
}

// Validate implements node.Node.
func (g *Grouping) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(g, log)
	ok = g.validateSource(log) && ok
	if len(g.subjects) < 2 {
		log.Addf("Grouping: cannot have a group of only %d subject(s)", len(g.subjects))
		ok = false
	}
	return nonEmpty(log, g.Class(), "relation", g.relation) && ok
}
