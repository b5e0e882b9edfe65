package node

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/polygenea/internal/ir"
)

// AttrSpec declares one attribute of a variant.
type AttrSpec struct {
	Name     string
	Required bool
}

// Constructor builds an unsealed node of one variant from its non-reserved
// attributes, resolving references through lk. FromValue seals the result.
type Constructor func(attrs ir.IRObject, lk Lookup) (Node, error)

// Kind is the static description of a node variant: its discriminator,
// identity flavor, declared attribute table and constructor.
// The attribute table drives canonicalization, edge discovery and schema
// checks.
type Kind struct {
	Name        string
	HasIdentity bool
	Attrs       []AttrSpec
	New         Constructor
}

// Declares reports whether the variant has an attribute called name.
func (k *Kind) Declares(name string) bool {
	return slices.ContainsFunc(k.Attrs, func(a AttrSpec) bool { return a.Name == name })
}

// Registry maps discriminator names to Kinds. It is open: callers may
// register their own variants alongside the built-in catalog.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// NewRegistry creates a registry holding kinds.
// Panics if two kinds share a name; a catalog is fixed at startup.
func NewRegistry(kinds ...*Kind) *Registry {
	r := &Registry{kinds: make(map[string]*Kind, len(kinds))}
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds k. Re-registering the same *Kind is a no-op; registering a
// different Kind under a taken name is an error.
func (r *Registry) Register(k *Kind) error {
	if k == nil || k.Name == "" || k.New == nil {
		return fmt.Errorf("register: kind needs a name and a constructor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.kinds[k.Name]; ok && prev != k {
		return fmt.Errorf("register: kind %q already registered", k.Name)
	}
	r.kinds[k.Name] = k
	return nil
}

// Lookup returns the Kind registered under name.
// Fails with ErrUnknownVariant if there is none.
func (r *Registry) Lookup(name string) (*Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	if !ok {
		return nil, ir.Errorf(ir.ErrUnknownVariant, "no variant registered as %q", name)
	}
	return k, nil
}

// Names returns the registered discriminators in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
