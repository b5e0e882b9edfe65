package ir

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RefEncoder chooses how an embedded node reference is written. It returns
// the value to serialize in the reference's place.
type RefEncoder func(ref IRRef) (IRValue, error)

// RefAsID writes a reference as its identity string. It is the encoder
// MarshalCanonical uses.
func RefAsID(ref IRRef) (IRValue, error) {
	return IRString(ref.Target.ID().String()), nil
}

// MarshalCanonical produces the canonical text of v.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Rules:
//  1. Object keys sorted by UTF-16 code units
//  2. Set elements in canonical order
//  3. No insignificant whitespace
//  4. Integral floats below 2^63 in magnitude print as integers
//  5. NaN and infinities are rejected
//  6. Only ", \, control characters and DEL are escaped
func MarshalCanonical(v IRValue) ([]byte, error) {
	return MarshalWith(v, RefAsID)
}

// MarshalWith is MarshalCanonical with a custom reference encoder.
func MarshalWith(v IRValue, refs RefEncoder) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v, refs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshalCanonical is like MarshalCanonical but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustMarshalCanonical(v IRValue) []byte {
	b, err := MarshalCanonical(v)
	if err != nil {
		panic(err)
	}
	return b
}

func marshalCanonical(buf *bytes.Buffer, v IRValue, refs RefEncoder) error {
	switch val := v.(type) {
	case nil, IRNull:
		buf.WriteString("null")
	case IRBool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case IRInt:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case IRFloat:
		return marshalCanonicalFloat(buf, float64(val))
	case IRString:
		marshalCanonicalString(buf, string(val))
	case IRArray:
		return marshalCanonicalArray(buf, val, refs)
	case IRSet:
		return marshalCanonicalArray(buf, sortedSet(val), refs)
	case IRObject:
		return marshalCanonicalObject(buf, val, refs)
	case IRRef:
		if val.Target == nil {
			return fmt.Errorf("nil reference")
		}
		repl, err := refs(val)
		if err != nil {
			return err
		}
		if _, again := repl.(IRRef); again {
			return fmt.Errorf("reference encoder returned a reference")
		}
		return marshalCanonical(buf, repl, refs)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func marshalCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v has no canonical form", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(shortestFloat(f))
	return nil
}

// shortestFloat picks the shorter of the plain decimal and exponential
// forms. The exponent carries no '+' and no leading zeros. Ties go to the
// decimal form.
func shortestFloat(f float64) string {
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	sign := ""
	if exp[0] == '-' {
		sign = "-"
	}
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	if sci := mant + "e" + sign + exp; len(sci) < len(fixed) {
		return sci
	}
	return fixed
}

// marshalCanonicalString escapes only what JSON requires plus DEL.
// No HTML escaping and no U+2028/U+2029 escaping, unlike encoding/json.
func marshalCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf.WriteString(`\"`)
		case c == '\\':
			buf.WriteString(`\\`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\r':
			buf.WriteString(`\r`)
		case c == '\t':
			buf.WriteString(`\t`)
		case c == '\f':
			buf.WriteString(`\f`)
		case c == '\b':
			buf.WriteString(`\b`)
		case c < 0x20 || c == 0x7f:
			buf.WriteString(`\u00`)
			buf.WriteByte(hex[c>>4])
			buf.WriteByte(hex[c&0xf])
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

func marshalCanonicalArray(buf *bytes.Buffer, arr []IRValue, refs RefEncoder) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, elem, refs); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func marshalCanonicalObject(buf *bytes.Buffer, obj IRObject, refs RefEncoder) error {
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		marshalCanonicalString(buf, k)
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[k], refs); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// sortedSet returns s in canonical order. Sets built by NewIRSet are
// already sorted; literals may not be.
func sortedSet(s IRSet) []IRValue {
	return NewIRSet(s...)
}

// Describe renders v for error messages. It never fails.
func Describe(v IRValue) string {
	b, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return string(b)
}
