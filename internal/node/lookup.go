package node

import (
	"github.com/roach88/polygenea/internal/ir"
)

// Lookup resolves a reference token found in an attribute value to a node.
//
// Tokens are identity strings, small integers (positions inside a batch
// under construction), or ir.IRRef values carrying an already-built node.
// Failure is an ErrUnknownReference.
type Lookup interface {
	Lookup(token ir.IRValue) (Node, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(token ir.IRValue) (Node, error)

// Lookup calls f.
func (f LookupFunc) Lookup(token ir.IRValue) (Node, error) {
	return f(token)
}

// Direct resolves only ir.IRRef tokens that carry a Node. It is the
// Lookup used when a caller supplies none.
var Direct Lookup = LookupFunc(func(token ir.IRValue) (Node, error) {
	if ref, ok := token.(ir.IRRef); ok {
		if n, ok := ref.Target.(Node); ok {
			return n, nil
		}
	}
	return nil, ir.Errorf(ir.ErrUnknownReference, "cannot resolve %s without a store", ir.Describe(token))
})

// Index returns the integer position carried by token, or ok=false when the
// token is not a non-negative integer.
func Index(token ir.IRValue) (i int, ok bool) {
	switch v := token.(type) {
	case ir.IRInt:
		if v >= 0 {
			return int(v), true
		}
	case ir.IRFloat:
		if v >= 0 && v == ir.IRFloat(int64(v)) {
			return int(v), true
		}
	}
	return 0, false
}
