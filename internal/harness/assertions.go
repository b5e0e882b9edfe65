package harness

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/engine"
	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Matched  []string // Nodes that matched, as "Class id"
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
	if len(e.Matched) > 0 {
		fmt.Fprintf(&buf, " [%s]", strings.Join(e.Matched, ", "))
	}
	return buf.String()
}

func evaluate(g *graph.Store, a Assertion) error {
	switch a.Type {
	case AssertContains, AssertCount, AssertAbsent:
		matched, err := matching(a.Pattern, g.Sorted())
		if err != nil {
			return err
		}
		return checkCount(a, len(matched), matched)

	case AssertAliases:
		n, err := stored(g, a.Of)
		if err != nil {
			return err
		}
		class := g.Aliases(n)
		return checkCount(a, len(class), class)

	case AssertIncoming:
		n, err := stored(g, a.Of)
		if err != nil {
			return err
		}
		incoming := g.Incoming(n)
		if len(a.Pattern) > 0 {
			if incoming, err = matching(a.Pattern, incoming); err != nil {
				return err
			}
		}
		return checkCount(a, len(incoming), incoming)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func checkCount(a Assertion, got int, matched []node.Node) error {
	var ok bool
	var want string
	switch a.Type {
	case AssertContains:
		ok, want = got > 0, "at least one match"
	case AssertAbsent:
		ok, want = got == 0, "no match"
	default:
		ok, want = got == a.Count, fmt.Sprintf("%d", a.Count)
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: want,
		Actual:   fmt.Sprintf("%d", got),
		Matched:  describe(matched),
	}
}

func matching(pattern map[string]any, ns []node.Node) ([]node.Node, error) {
	v, err := ir.FromGo(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	obj := v.(ir.IRObject)
	var out []node.Node
	for _, n := range ns {
		ok, err := engine.MatchPattern(obj, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func stored(g *graph.Store, raw string) (node.Node, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("of: %w", err)
	}
	n, ok := g.Get(id)
	if !ok {
		return nil, fmt.Errorf("of: no stored node has identity %s", id)
	}
	return n, nil
}

func describe(ns []node.Node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Class() + " " + n.ID().String()
	}
	return out
}
