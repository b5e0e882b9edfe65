package node

import (
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
)

// FromValue builds a node from its value form.
//
// v must be an object carrying "!class". Embedded references are resolved
// through lk (Direct when nil). A supplied "!uuid" is checked against the
// variant's identity flavor and, for content-derived variants, against the
// recomputed hash. The finished node is validated; any failure aborts
// construction and no node is returned.
func FromValue(v ir.IRValue, lk Lookup, reg *Registry) (Node, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, ir.Errorf(ir.ErrSchemaViolation, "a node must be an object, not %s", ir.Describe(v))
	}
	cls, ok := obj[AttrClass].(ir.IRString)
	if !ok {
		return nil, ir.Errorf(ir.ErrSchemaViolation, "a node needs a string %s", AttrClass)
	}
	k, err := reg.Lookup(string(cls))
	if err != nil {
		return nil, err
	}
	return Build(k, obj, lk)
}

// Build is FromValue for a known Kind. A "!class" in obj, if present, must
// name k.
func Build(k *Kind, obj ir.IRObject, lk Lookup) (Node, error) {
	if cls, has := obj[AttrClass]; has && !ir.Equal(cls, ir.IRString(k.Name)) {
		return nil, ir.Errorf(ir.ErrSchemaViolation, "%s given to the %s constructor", ir.Describe(cls), k.Name)
	}

	supplied, err := SuppliedID(obj)
	if err != nil {
		return nil, err
	}

	attrs := make(ir.IRObject, len(obj))
	for key, val := range obj {
		switch {
		case key == AttrClass || key == AttrUUID:
			continue
		case strings.HasPrefix(key, "!"):
			return nil, ir.Errorf(ir.ErrSchemaViolation, "%s: reserved attribute %q", k.Name, key)
		case !k.Declares(key):
			return nil, ir.Errorf(ir.ErrSchemaViolation, "%s has no attribute %q", k.Name, key)
		}
		if _, null := val.(ir.IRNull); null {
			continue
		}
		attrs[key] = val
	}
	for _, a := range k.Attrs {
		if _, has := attrs[a.Name]; a.Required && !has {
			return nil, ir.Errorf(ir.ErrSchemaViolation, "%s requires attribute %q", k.Name, a.Name)
		}
	}

	if lk == nil {
		lk = Direct
	}
	n, err := k.New(attrs, lk)
	if err != nil {
		return nil, err
	}
	if n.Kind() != k {
		return nil, ir.Errorf(ir.ErrSchemaViolation, "%s constructor built a %s", k.Name, n.Class())
	}
	if err := Seal(n, supplied); err != nil {
		return nil, err
	}

	var log Log
	if !n.Validate(&log) {
		err := log.Err()
		if err == nil {
			err = ir.Errorf(ir.ErrValidationFailure, "%s failed validation", k.Name)
		}
		return nil, err.(*ir.Error).WithID(n.ID().String())
	}
	return n, nil
}

// SuppliedID returns the "!uuid" carried by obj, or uuid.Nil when absent.
func SuppliedID(obj ir.IRObject) (uuid.UUID, error) {
	raw, has := obj[AttrUUID]
	if !has {
		return uuid.Nil, nil
	}
	s, ok := raw.(ir.IRString)
	if !ok {
		return uuid.Nil, ir.Errorf(ir.ErrIdentity, "%s must be a string, not %s", AttrUUID, ir.Describe(raw))
	}
	id, err := uuid.Parse(string(s))
	if err != nil {
		return uuid.Nil, ir.Wrap(ir.ErrIdentity, err, "bad %s %q", AttrUUID, s)
	}
	return id, nil
}

// Reader pulls typed attributes out of a constructor's attribute map. The
// first failure sticks; later calls return zero values and Err reports it.
type Reader struct {
	kind  *Kind
	attrs ir.IRObject
	lk    Lookup
	err   error
}

// NewReader reads attrs on behalf of kind k, resolving references via lk.
func NewReader(k *Kind, attrs ir.IRObject, lk Lookup) *Reader {
	if lk == nil {
		lk = Direct
	}
	return &Reader{kind: k, attrs: attrs, lk: lk}
}

// Err returns the first failure, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = ir.Errorf(ir.ErrSchemaViolation, r.kind.Name+"."+format, args...)
	}
}

// Value returns the raw attribute.
func (r *Reader) Value(name string) (ir.IRValue, bool) {
	v, ok := r.attrs[name]
	if _, null := v.(ir.IRNull); null {
		return nil, false
	}
	return v, ok
}

// String returns a string attribute, "" when absent.
func (r *Reader) String(name string) string {
	v, ok := r.Value(name)
	if !ok || r.err != nil {
		return ""
	}
	s, ok := v.(ir.IRString)
	if !ok {
		r.fail("%s must be a string, not %s", name, ir.Describe(v))
		return ""
	}
	return string(s)
}

// Object returns an object attribute, nil when absent.
func (r *Reader) Object(name string) ir.IRObject {
	v, ok := r.Value(name)
	if !ok || r.err != nil {
		return nil
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		r.fail("%s must be an object, not %s", name, ir.Describe(v))
		return nil
	}
	return obj
}

// Objects returns a list-of-objects attribute, nil when absent.
func (r *Reader) Objects(name string) []ir.IRObject {
	elems := r.list(name)
	out := make([]ir.IRObject, 0, len(elems))
	for i, e := range elems {
		obj, ok := e.(ir.IRObject)
		if !ok {
			r.fail("%s[%d] must be an object, not %s", name, i, ir.Describe(e))
			return nil
		}
		out = append(out, obj)
	}
	return out
}

// Node resolves a single reference attribute, nil when absent.
func (r *Reader) Node(name string) Node {
	v, ok := r.Value(name)
	if !ok || r.err != nil {
		return nil
	}
	return r.resolve(name, v)
}

// Nodes resolves a list or set of references, nil when absent.
func (r *Reader) Nodes(name string) []Node {
	elems := r.list(name)
	out := make([]Node, 0, len(elems))
	for _, e := range elems {
		n := r.resolve(name, e)
		if n == nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// IsSet reports whether the attribute was given as an IRSet rather than an
// ordered array.
func (r *Reader) IsSet(name string) bool {
	v, _ := r.Value(name)
	_, ok := v.(ir.IRSet)
	return ok
}

func (r *Reader) list(name string) []ir.IRValue {
	v, ok := r.Value(name)
	if !ok || r.err != nil {
		return nil
	}
	elems, ok := ir.Elements(v)
	if !ok {
		r.fail("%s must be a list, not %s", name, ir.Describe(v))
		return nil
	}
	return elems
}

func (r *Reader) resolve(name string, token ir.IRValue) Node {
	if r.err != nil {
		return nil
	}
	n, err := r.lk.Lookup(token)
	if err != nil {
		r.err = ir.Wrap(ir.ErrUnknownReference, err, "%s.%s", r.kind.Name, name)
		return nil
	}
	return n
}

// As converts a resolved reference to the role T the variant needs. A nil
// node yields the zero T; a node of the wrong role records a schema
// violation on r.
func As[T any](r *Reader, name string, n Node) T {
	var zero T
	if n == nil {
		return zero
	}
	t, ok := n.(T)
	if !ok {
		r.fail("%s cannot be a %s", name, n.Class())
		return zero
	}
	return t
}

// AsAll is As over a list of references.
func AsAll[T any](r *Reader, name string, ns []Node) []T {
	out := make([]T, 0, len(ns))
	for _, n := range ns {
		t, ok := n.(T)
		if !ok {
			r.fail("%s cannot contain a %s", name, n.Class())
			return nil
		}
		out = append(out, t)
	}
	return out
}
