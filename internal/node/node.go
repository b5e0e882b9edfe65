package node

import (
	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
)

// Reserved attribute names.
const (
	AttrClass = "!class"
	AttrUUID  = "!uuid"
)

// Node is an immutable claim, source or note in the graph.
//
// Variants embed Base and implement Attr and Validate. Identity and height
// are fixed when the node is sealed at the end of construction.
type Node interface {
	ir.Referent

	// Kind returns the variant description.
	Kind() *Kind

	// HasIdentity reports whether the node carries an assigned identity
	// rather than one derived from its content.
	HasIdentity() bool

	// Height is 0 for a leaf, else 1 + the largest height among out-edges.
	Height() int

	// Attr returns a declared attribute. Node-valued attributes come back as
	// ir.IRRef, collections of nodes as IRArray or IRSet of IRRef.
	// ok is false when the attribute is absent.
	Attr(name string) (v ir.IRValue, ok bool)

	// Validate appends every problem it finds to log and reports whether
	// there were none. It never aborts early.
	Validate(log *Log) bool

	base() *Base
}

// Base carries the state every variant shares. Embed it by value and build
// it with NewBase.
type Base struct {
	kind   *Kind
	id     uuid.UUID
	height int
	sealed bool
}

// NewBase starts a node of kind k.
func NewBase(k *Kind) Base {
	return Base{kind: k}
}

// Class returns the discriminator.
func (b *Base) Class() string { return b.kind.Name }

// ID returns the node identity.
func (b *Base) ID() uuid.UUID { return b.id }

// Kind returns the variant description.
func (b *Base) Kind() *Kind { return b.kind }

// HasIdentity reports the variant's identity flavor.
func (b *Base) HasIdentity() bool { return b.kind.HasIdentity }

// Height returns the cached height.
func (b *Base) Height() int { return b.height }

func (b *Base) base() *Base { return b }

// Seal fixes the identity and height of a freshly built node.
//
// For content-derived variants the identity is recomputed from the
// canonical attributes; a non-nil supplied id must match it. For
// identity-bearing variants the supplied id must be version 1 or 4; a nil id
// is replaced by a fresh random one. Either mismatch is an ErrIdentity.
// Sealing twice is an error.
func Seal(n Node, supplied uuid.UUID) error {
	b := n.base()
	if b.sealed {
		return ir.Errorf(ir.ErrIdentity, "%s %s is already sealed", b.Class(), b.id)
	}

	height := 0
	for _, e := range OutEdges(n) {
		if h := e.Height() + 1; h > height {
			height = h
		}
	}

	var id uuid.UUID
	if b.kind.HasIdentity {
		switch {
		case supplied == uuid.Nil:
			id = uuid.New()
		case ir.IsAssigned(supplied):
			id = supplied
		default:
			return ir.Errorf(ir.ErrIdentity, "%s requires a version 1 or 4 identity, got version %d", b.Class(), supplied.Version()).
				WithID(supplied.String())
		}
	} else {
		computed, err := ir.ContentID(Canonical(n, false))
		if err != nil {
			return err
		}
		if supplied != uuid.Nil && supplied != computed {
			if !ir.IsContentDerived(supplied) {
				return ir.Errorf(ir.ErrIdentity, "%s identity is content-derived, got version %d", b.Class(), supplied.Version()).
					WithID(supplied.String())
			}
			return ir.Errorf(ir.ErrIdentity, "%s content hashes to %s", b.Class(), computed).
				WithID(supplied.String())
		}
		id = computed
	}

	b.id = id
	b.height = height
	b.sealed = true
	return nil
}

// CheckIdentity is the validation every variant starts from: the identity
// version must agree with the identity flavor, and a content-derived
// identity must equal the hash of the current attributes.
func CheckIdentity(n Node, log *Log) bool {
	b := n.base()
	if !b.sealed {
		log.Addf("%s was never sealed", b.Class())
		return false
	}
	if b.kind.HasIdentity {
		if !ir.IsAssigned(b.id) {
			log.Addf("%s identity %s should be version 1 or 4", b.Class(), b.id)
			return false
		}
		return true
	}
	computed, err := ir.ContentID(Canonical(n, false))
	if err != nil {
		log.Addf("%s cannot be hashed: %v", b.Class(), err)
		return false
	}
	if computed != b.id {
		log.Addf("%s identity %s does not match content hash %s", b.Class(), b.id, computed)
		return false
	}
	return true
}

// Compare orders nodes by variant name, then identity.
func Compare(a, b Node) int {
	return ir.CompareRefs(a, b)
}

// Equal reports whether a and b are the same node: same variant, same identity.
func Equal(a, b Node) bool {
	return a.Class() == b.Class() && a.ID() == b.ID()
}

// Canonical returns the node as a value map: "!class", "!uuid" when withID
// is set, and every present declared attribute.
func Canonical(n Node, withID bool) ir.IRObject {
	k := n.Kind()
	obj := make(ir.IRObject, len(k.Attrs)+2)
	obj[AttrClass] = ir.IRString(k.Name)
	if withID {
		obj[AttrUUID] = ir.IRString(n.ID().String())
	}
	for _, a := range k.Attrs {
		v, ok := n.Attr(a.Name)
		if !ok {
			continue
		}
		if _, null := v.(ir.IRNull); null || v == nil {
			continue
		}
		obj[a.Name] = v
	}
	return obj
}

// HashInput returns the exact bytes the content identity is computed over.
func HashInput(n Node) ([]byte, error) {
	return ir.MarshalCanonical(Canonical(n, false))
}

// Standalone returns the stand-alone text of n, including "!uuid", with
// references written as identity strings.
func Standalone(n Node) ([]byte, error) {
	return ir.MarshalCanonical(Canonical(n, true))
}

// String renders n for logs and error messages.
func String(n Node) string {
	b, err := Standalone(n)
	if err != nil {
		return n.Class() + " " + n.ID().String()
	}
	return string(b)
}

// Aliaser is implemented by nodes that assert other nodes denote the same
// thing. The graph store treats the members as one for incoming-edge
// queries.
type Aliaser interface {
	Node
	Aliases() []Node
}
