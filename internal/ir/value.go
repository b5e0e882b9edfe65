package ir

import (
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
)

// IRValue is a sealed interface over the canonical value model.
// Only IRNull, IRBool, IRInt, IRFloat, IRString, IRArray, IRSet, IRObject
// and IRRef implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a JSON null value.
type IRNull struct{}

func (IRNull) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRInt represents an integral number. Numbers written without a fraction
// or exponent parse to IRInt.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a number written with a fraction or exponent.
// IRInt and IRFloat order and compare by numeric value.
type IRFloat float64

func (IRFloat) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRSet is a duplicate-free list held in canonical order.
// Build one with NewIRSet or StrictIRSet; a literal IRSet is trusted as-is.
type IRSet []IRValue

func (IRSet) irValue() {}

// IRObject represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Referent is anything an IRRef can point at. Graph nodes satisfy it.
type Referent interface {
	Class() string
	ID() uuid.UUID
}

// IRRef embeds a reference to a node inside a value. It serializes as the
// node's identity, or as a batch position in compressed output.
type IRRef struct {
	Target Referent
}

func (IRRef) irValue() {}

// Ref wraps a Referent as a value.
func Ref(r Referent) IRRef {
	return IRRef{Target: r}
}

// NewIRArray creates an IRArray from values.
func NewIRArray(vals ...IRValue) IRArray {
	return IRArray(vals)
}

// NewIRSet sorts vals into canonical order and drops duplicates.
func NewIRSet(vals ...IRValue) IRSet {
	s := slices.Clone(vals)
	slices.SortFunc(s, Compare)
	return IRSet(slices.CompactFunc(s, Equal))
}

// StrictIRSet is like NewIRSet but fails with ErrDuplicateIdentity when vals
// contains the same element twice.
func StrictIRSet(vals ...IRValue) (IRSet, error) {
	s := slices.Clone(vals)
	slices.SortFunc(s, Compare)
	for i := 1; i < len(s); i++ {
		if Equal(s[i-1], s[i]) {
			return nil, Errorf(ErrDuplicateIdentity, "repeated set element %s", Describe(s[i]))
		}
	}
	return IRSet(s), nil
}

// IRPair represents a key-value pair for IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is a shorthand for IRPair for ergonomic construction.
// Example: NewIRObjectFromPairs(O("key", IRString("name")), O("value", IRString("Jane")))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObjectFromPairs creates an IRObject from key-value pairs.
func NewIRObjectFromPairs(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in UTF-16 code unit order.
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareStrings)
	return keys
}

// Clone returns a shallow copy of obj.
func (obj IRObject) Clone() IRObject {
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

// CompareStrings compares strings by UTF-16 code units.
// Must use unicode/utf16.Encode for correct surrogate handling.
// Strings with equal code units are ordered by their bytes.
func CompareStrings(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	// Invalid UTF-8 encodes every bad byte as U+FFFD; fall back to the raw
	// bytes so distinct strings never tie.
	return strings.Compare(a, b)
}

// Elements returns the members of an IRArray or IRSet.
// ok is false for every other kind of value.
func Elements(v IRValue) (elems []IRValue, ok bool) {
	switch val := v.(type) {
	case IRArray:
		return val, true
	case IRSet:
		return val, true
	}
	return nil, false
}
