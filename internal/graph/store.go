package graph

import (
	"bytes"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

var (
	nodesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polygenea_graph_nodes_added_total",
		Help: "Nodes newly registered in a graph store, by variant",
	}, []string{"class"})

	addsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polygenea_graph_adds_rejected_total",
		Help: "Batches refused by a graph store, by error code",
	}, []string{"code"})
)

// Store is an append-only set of nodes closed under out-edges, with a
// reverse index from each node to the nodes referencing it.
//
// Every out-edge of every stored node is itself stored, and the reverse
// index always agrees with the stored set. Nodes are never removed;
// re-adding a stored identity is a no-op.
//
// Store is not safe for concurrent use. It assumes a single writer;
// concurrent readers are fine only while nothing writes.
type Store struct {
	all      map[uuid.UUID]node.Node
	incoming map[uuid.UUID][]node.Node
	reg      *node.Registry
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithRegistry sets the variant registry used by Ingest and Lookup.
// Default: the built-in catalog.
func WithRegistry(r *node.Registry) Option {
	return func(s *Store) {
		s.reg = r
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		all:      make(map[uuid.UUID]node.Node),
		incoming: make(map[uuid.UUID][]node.Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.reg == nil {
		s.reg = nodes.NewRegistry()
	}
	return s
}

// Registry returns the variant registry the store builds nodes with.
func (s *Store) Registry() *node.Registry {
	return s.reg
}

// Add registers nodes in two phases. First every out-edge of every new node
// must resolve to a stored node or to another node in the same call;
// otherwise Add fails with ErrDanglingReference naming the missing identity
// and the store is left untouched. Then each node is registered (the first
// node seen under an identity wins) and the reverse index is extended.
func (s *Store) Add(ns ...node.Node) error {
	batch := make(map[uuid.UUID]node.Node, len(ns))
	fresh := make([]node.Node, 0, len(ns))
	for _, n := range ns {
		id := n.ID()
		if _, stored := s.all[id]; stored {
			continue
		}
		if _, seen := batch[id]; seen {
			continue
		}
		batch[id] = n
		fresh = append(fresh, n)
	}

	for _, n := range fresh {
		for _, e := range node.OutEdges(n) {
			if _, ok := s.all[e.ID()]; ok {
				continue
			}
			if _, ok := batch[e.ID()]; ok {
				continue
			}
			err := ir.Errorf(ir.ErrDanglingReference, "%s %s refers to %s %s, which is not stored",
				n.Class(), n.ID(), e.Class(), e.ID()).WithID(e.ID().String())
			addsRejected.WithLabelValues(string(err.Code)).Inc()
			s.logger.Warn("add rejected",
				"class", n.Class(),
				"id", n.ID(),
				"missing", e.ID(),
				"batch", len(ns))
			return err
		}
	}

	for _, n := range fresh {
		s.all[n.ID()] = n
	}
	for _, n := range fresh {
		s.index(n)
		nodesAdded.WithLabelValues(n.Class()).Inc()
		s.logger.Debug("node added", "class", n.Class(), "id", n.ID(), "height", n.Height())
	}
	return nil
}

// index records n as an incoming edge of each node it references. A node
// referencing the same target twice is recorded once.
func (s *Store) index(n node.Node) {
	seen := make(map[uuid.UUID]bool)
	for _, e := range node.OutEdges(n) {
		target := e.ID()
		if seen[target] {
			continue
		}
		seen[target] = true
		s.incoming[target] = append(s.incoming[target], n)
	}
}

// Get returns the node stored under id.
func (s *Store) Get(id uuid.UUID) (node.Node, bool) {
	n, ok := s.all[id]
	return n, ok
}

// Contains reports whether n's identity is stored.
func (s *Store) Contains(n node.Node) bool {
	_, ok := s.all[n.ID()]
	return ok
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	return len(s.all)
}

// All yields every stored node in no particular order.
func (s *Store) All() iter.Seq[node.Node] {
	return maps.Values(s.all)
}

// Sorted returns every stored node ordered by variant, then identity.
func (s *Store) Sorted() []node.Node {
	out := slices.Collect(s.All())
	slices.SortFunc(out, node.Compare)
	return out
}

// Out returns the nodes n references.
func (s *Store) Out(n node.Node) []node.Node {
	return node.OutEdges(n)
}

// TopologicalOrder returns every stored node once, each after all the nodes
// it references. Roots are visited in identity order, so the result is
// deterministic for a given set of nodes.
func (s *Store) TopologicalOrder() []node.Node {
	ids := slices.Collect(maps.Keys(s.all))
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	out := make([]node.Node, 0, len(ids))
	done := make(map[uuid.UUID]bool, len(ids))
	var visit func(n node.Node)
	visit = func(n node.Node) {
		if done[n.ID()] {
			return
		}
		done[n.ID()] = true
		for _, e := range node.OutEdges(n) {
			visit(s.all[e.ID()])
		}
		out = append(out, n)
	}
	for _, id := range ids {
		visit(s.all[id])
	}
	return out
}

// Serialize writes every stored node in compressed list form.
func (s *Store) Serialize() ([]byte, error) {
	return node.Compress(slices.Collect(s.All())...)
}
