package graph

import (
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// Lookup resolves a reference token against the store, making Store a
// node.Lookup.
//
//   - ir.IRString holding an identity: the stored node.
//   - ir.IRString holding node text: the node is built and registered.
//   - ir.IRRef carrying a node: the node and its dependencies are
//     registered if new; the stored node is returned.
//
// Integer positions only mean something inside Ingest. Anything
// unresolvable is an ErrUnknownReference.
func (s *Store) Lookup(token ir.IRValue) (node.Node, error) {
	b := s.newBatch(nil)
	n, err := b.Lookup(token)
	if err != nil {
		return nil, err
	}
	if err := s.Add(b.extra...); err != nil {
		return nil, err
	}
	return s.all[n.ID()], nil
}

// Ingest adds the nodes in v and returns them in input order.
//
// v is either one node object or a list of them. Inside a list a reference
// may be an integer position of another element, earlier or later, as long
// as the references do not form a cycle; identity strings and node text
// work as in Lookup. An element whose "!uuid" is already stored is reused
// as is. The whole batch is built before anything is added, so any failure
// leaves the store unchanged.
func (s *Store) Ingest(v ir.IRValue) ([]node.Node, error) {
	var elems []ir.IRValue
	switch val := v.(type) {
	case ir.IRObject:
		elems = []ir.IRValue{val}
	case ir.IRArray, ir.IRSet:
		elems, _ = ir.Elements(val)
	default:
		return nil, ir.Errorf(ir.ErrSchemaViolation, "expected a node or a list of nodes, not %s", ir.Describe(v))
	}

	b := s.newBatch(elems)
	for i := range elems {
		if _, err := b.element(i); err != nil {
			s.logger.Warn("ingest rejected", "position", i, "error", err)
			return nil, err
		}
	}

	pending := make([]node.Node, 0, len(b.extra)+len(b.built))
	pending = append(pending, b.extra...)
	pending = append(pending, b.built...)
	before := s.Len()
	if err := s.Add(pending...); err != nil {
		return nil, err
	}

	out := make([]node.Node, len(b.built))
	for i, n := range b.built {
		out[i] = s.all[n.ID()]
	}
	s.logger.Info("ingested", "elements", len(elems), "added", s.Len()-before)
	return out, nil
}

// IngestBytes parses data and ingests the result.
func (s *Store) IngestBytes(data []byte, opts ...ir.ParseOption) ([]node.Node, error) {
	v, err := ir.Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	return s.Ingest(v)
}

// IngestReader reads r to the end, parses it and ingests the result.
func (s *Store) IngestReader(r io.Reader, opts ...ir.ParseOption) ([]node.Node, error) {
	v, err := ir.ParseReader(r, opts...)
	if err != nil {
		return nil, err
	}
	return s.Ingest(v)
}

type elemState int

const (
	unbuilt elemState = iota
	building
	built
)

// batch is the lookup used while a group of nodes is under construction.
// It resolves positions lazily, so an element may refer to one that comes
// after it.
type batch struct {
	store *Store
	elems []ir.IRValue
	state []elemState
	built []node.Node

	// extra holds nodes reached through embedded text or IRRef tokens that
	// are not stored yet, each after its own dependencies.
	extra []node.Node
	known map[uuid.UUID]node.Node
}

func (s *Store) newBatch(elems []ir.IRValue) *batch {
	return &batch{
		store: s,
		elems: elems,
		state: make([]elemState, len(elems)),
		built: make([]node.Node, len(elems)),
		known: make(map[uuid.UUID]node.Node),
	}
}

// Lookup implements node.Lookup.
func (b *batch) Lookup(token ir.IRValue) (node.Node, error) {
	if i, ok := node.Index(token); ok {
		if i >= len(b.elems) {
			return nil, ir.Errorf(ir.ErrUnknownReference, "position %d is outside a batch of %d", i, len(b.elems))
		}
		return b.element(i)
	}

	switch tok := token.(type) {
	case ir.IRRef:
		n, ok := tok.Target.(node.Node)
		if !ok {
			return nil, ir.Errorf(ir.ErrUnknownReference, "%s does not carry a node", ir.Describe(tok))
		}
		return b.adopt(n), nil
	case ir.IRString:
		text := strings.TrimSpace(string(tok))
		if id, err := uuid.Parse(text); err == nil {
			return b.byID(id)
		}
		if strings.HasPrefix(text, "{") {
			return b.embedded(text)
		}
	}
	return nil, ir.Errorf(ir.ErrUnknownReference, "%s is neither an identity nor a node", ir.Describe(token))
}

func (b *batch) byID(id uuid.UUID) (node.Node, error) {
	if n, ok := b.store.all[id]; ok {
		return n, nil
	}
	if n, ok := b.known[id]; ok {
		return n, nil
	}
	return nil, ir.Errorf(ir.ErrUnknownReference, "node %s is not stored", id).WithID(id.String())
}

// element builds position i on first use.
func (b *batch) element(i int) (node.Node, error) {
	switch b.state[i] {
	case built:
		return b.built[i], nil
	case building:
		return nil, ir.Errorf(ir.ErrUnknownReference, "position %d refers back to itself", i)
	}

	obj, ok := b.elems[i].(ir.IRObject)
	if !ok {
		return nil, ir.Errorf(ir.ErrSchemaViolation, "position %d: expected a node object, not %s", i, ir.Describe(b.elems[i]))
	}
	b.state[i] = building
	n, err := b.build(obj)
	if err != nil {
		b.state[i] = unbuilt
		return nil, err
	}
	b.state[i] = built
	b.built[i] = n
	b.known[n.ID()] = n
	return n, nil
}

// build constructs obj, reusing a stored node when obj names a stored
// identity.
func (b *batch) build(obj ir.IRObject) (node.Node, error) {
	id, err := node.SuppliedID(obj)
	if err != nil {
		return nil, err
	}
	if id != uuid.Nil {
		if n, ok := b.store.all[id]; ok {
			return n, nil
		}
	}
	return node.FromValue(obj, b, b.store.reg)
}

func (b *batch) embedded(text string) (node.Node, error) {
	v, err := ir.ParseString(text)
	if err != nil {
		return nil, ir.Wrap(ir.ErrUnknownReference, err, "embedded node text")
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, ir.Errorf(ir.ErrUnknownReference, "embedded text is %s, not a node", ir.Describe(v))
	}
	n, err := b.build(obj)
	if err != nil {
		return nil, err
	}
	return b.adopt(n), nil
}

// adopt returns the stored or already-known node with n's identity, or
// queues n and its unstored dependencies for addition.
func (b *batch) adopt(n node.Node) node.Node {
	if stored, ok := b.store.all[n.ID()]; ok {
		return stored
	}
	if k, ok := b.known[n.ID()]; ok {
		return k
	}
	for _, d := range node.WithDependencies(n) {
		if _, ok := b.store.all[d.ID()]; ok {
			continue
		}
		if _, ok := b.known[d.ID()]; ok {
			continue
		}
		b.known[d.ID()] = d
		b.extra = append(b.extra, d)
	}
	return n
}
