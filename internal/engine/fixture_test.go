package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// family is a small store: one source, three people, and a name for each.
type family struct {
	source *nodes.ExternalSource
	jane   *nodes.Thing
	janet  *nodes.Thing
	mary   *nodes.Thing
	names  map[string]*nodes.Property
}

func newFamily(t *testing.T) family {
	t.Helper()
	c, err := nodes.NewCitation(nodes.CitationKindTransient, ir.IRObject{"type": ir.IRString("interview")})
	require.NoError(t, err)
	src, err := nodes.NewExternalSource(c, "Jane and Janet are the same person; Mary is her sister", "")
	require.NoError(t, err)

	f := family{source: src, names: make(map[string]*nodes.Property)}
	person := func(name string) *nodes.Thing {
		th, err := nodes.NewThing(src, uuid.Nil)
		require.NoError(t, err)
		p, err := nodes.NewProperty(src, th, "name", name)
		require.NoError(t, err)
		f.names[th.ID().String()] = p
		return th
	}
	f.jane = person("Jane")
	f.janet = person("Jane")
	f.mary = person("Mary")
	return f
}

func (f family) all() []node.Node {
	out := []node.Node{f.source.Citation(), f.source, f.jane, f.janet, f.mary}
	for _, p := range f.names {
		out = append(out, p)
	}
	return out
}

func (f family) name(th *nodes.Thing) *nodes.Property {
	return f.names[th.ID().String()]
}

func (f family) store(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.New(graph.WithLogger(discardLogger()))
	require.NoError(t, s.Add(f.all()...))
	return s
}

func mustRule(t *testing.T, text string) *nodes.InferenceRule {
	t.Helper()
	v, err := ir.ParseString(text)
	require.NoError(t, err)
	n, err := node.FromValue(v, nil, nodes.NewRegistry())
	require.NoError(t, err)
	return n.(*nodes.InferenceRule)
}
