package ir

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SetPolicy controls whether parsed arrays are promoted to IRSet.
type SetPolicy int

const (
	// SetNever keeps every array as an IRArray.
	SetNever SetPolicy = iota

	// SetIfSorted promotes arrays already in strictly ascending canonical order.
	SetIfSorted

	// SetIfUnique promotes arrays without duplicates, sorting them.
	SetIfUnique

	// SetAlways promotes every array and fails on duplicates.
	SetAlways
)

// ParseOption configures Parse.
type ParseOption func(*parser)

// WithSetPolicy sets the array-to-set promotion policy. Default: SetNever.
func WithSetPolicy(p SetPolicy) ParseOption {
	return func(ps *parser) {
		ps.policy = p
	}
}

// Parse decodes a single JSON value.
//
// The grammar is stricter than encoding/json: duplicate keys, trailing
// commas, leading zeros, "\/" escapes, integers outside int64 and keywords
// run into letters or digits are all rejected with ErrMalformedInput.
// Raw control characters inside strings are accepted; invalid UTF-8 and
// unpaired surrogate escapes are not.
func Parse(data []byte, opts ...ParseOption) (IRValue, error) {
	p := &parser{data: data}
	for _, opt := range opts {
		opt(p)
	}

	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.data) {
		return nil, p.fail("unexpected %q after value", p.data[p.pos])
	}
	return v, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...ParseOption) (IRValue, error) {
	return Parse([]byte(s), opts...)
}

// ParseReader reads r to EOF and parses the result.
func ParseReader(r io.Reader, opts ...ParseOption) (IRValue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Wrap(ErrMalformedInput, err, "read input")
	}
	return Parse(data, opts...)
}

type parser struct {
	data   []byte
	pos    int
	policy SetPolicy
}

func (p *parser) fail(format string, args ...any) error {
	e := Errorf(ErrMalformedInput, format, args...)
	e.Message += " at offset " + strconv.Itoa(p.pos)
	return e
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() (IRValue, error) {
	if p.pos >= len(p.data) {
		return nil, p.fail("unexpected end of input")
	}
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		return IRString(s), nil
	case c == 't':
		return IRBool(true), p.keyword("true")
	case c == 'f':
		return IRBool(false), p.keyword("false")
	case c == 'n':
		return IRNull{}, p.keyword("null")
	case c == '-' || isDigit(c):
		return p.number()
	default:
		return nil, p.fail("unexpected %q", c)
	}
}

func (p *parser) keyword(word string) error {
	if !bytes.HasPrefix(p.data[p.pos:], []byte(word)) {
		return p.fail("unknown keyword, expected %s", word)
	}
	p.pos += len(word)
	if p.pos < len(p.data) && isWordByte(p.data[p.pos]) {
		return p.fail("keyword %s followed by %q", word, p.data[p.pos])
	}
	return nil
}

func (p *parser) number() (IRValue, error) {
	start := p.pos
	if p.data[p.pos] == '-' {
		p.pos++
	}
	if p.pos >= len(p.data) || !isDigit(p.data[p.pos]) {
		return nil, p.fail("expected digit")
	}
	if p.data[p.pos] == '0' {
		p.pos++
		if p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			return nil, p.fail("leading zero in number")
		}
	} else {
		p.digits()
	}

	isFloat := false
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		isFloat = true
		p.pos++
		if p.digits() == 0 {
			return nil, p.fail("expected digit after decimal point")
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if p.digits() == 0 {
			return nil, p.fail("expected digit in exponent")
		}
	}

	text := string(p.data[start:p.pos])
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.fail("number %s out of range", text)
		}
		return IRFloat(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.fail("integer %s out of range", text)
	}
	return IRInt(n), nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
		n++
	}
	return n
}

func (p *parser) str() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.data) {
			return "", p.fail("unterminated string")
		}
		c := p.data[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			if c < utf8.RuneSelf {
				b.WriteByte(c)
				p.pos++
				continue
			}
			r, size := utf8.DecodeRune(p.data[p.pos:])
			if r == utf8.RuneError && size <= 1 {
				return "", p.fail("invalid UTF-8 in string")
			}
			b.Write(p.data[p.pos : p.pos+size])
			p.pos += size
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.data) {
		return p.fail("unterminated escape")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"':
		b.WriteByte('"')
	case '\\':
		b.WriteByte('\\')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, err := p.hex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) {
			if p.pos+1 >= len(p.data) || p.data[p.pos] != '\\' || p.data[p.pos+1] != 'u' {
				return p.fail("unpaired surrogate \\u%04x", r)
			}
			p.pos += 2
			lo, err := p.hex4()
			if err != nil {
				return err
			}
			pair := utf16.DecodeRune(r, lo)
			if pair == utf8.RuneError {
				return p.fail("unpaired surrogate \\u%04x", r)
			}
			r = pair
		}
		b.WriteRune(r)
	default:
		return p.fail("illegal escape \\%c", c)
	}
	return nil
}

func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.fail("truncated \\u escape")
	}
	n, err := strconv.ParseUint(string(p.data[p.pos:p.pos+4]), 16, 32)
	if err != nil {
		return 0, p.fail("bad \\u escape %q", p.data[p.pos:p.pos+4])
	}
	p.pos += 4
	return rune(n), nil
}

func (p *parser) array() (IRValue, error) {
	p.pos++ // [
	arr := IRArray{}
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		return p.promote(arr)
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, p.fail("unterminated array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			if p.pos < len(p.data) && p.data[p.pos] == ']' {
				return nil, p.fail("trailing comma in array")
			}
		case ']':
			p.pos++
			return p.promote(arr)
		default:
			return nil, p.fail("expected , or ] in array, got %q", p.data[p.pos])
		}
	}
}

func (p *parser) promote(arr IRArray) (IRValue, error) {
	switch p.policy {
	case SetIfSorted:
		for i := 1; i < len(arr); i++ {
			if Compare(arr[i-1], arr[i]) >= 0 {
				return arr, nil
			}
		}
		return IRSet(arr), nil
	case SetIfUnique:
		if set := NewIRSet(arr...); len(set) == len(arr) {
			return set, nil
		}
		return arr, nil
	case SetAlways:
		set := NewIRSet(arr...)
		if len(set) != len(arr) {
			return nil, p.fail("array has duplicate entries")
		}
		return set, nil
	}
	return arr, nil
}

func (p *parser) object() (IRValue, error) {
	p.pos++ // {
	obj := IRObject{}
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != '"' {
			if p.pos < len(p.data) && p.data[p.pos] == '}' {
				return nil, p.fail("trailing comma in object")
			}
			return nil, p.fail("expected string key")
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		if _, dup := obj[key]; dup {
			return nil, p.fail("duplicate key %q", key)
		}
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return nil, p.fail("expected : after key %q", key)
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, p.fail("unterminated object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.fail("expected , or } in object, got %q", p.data[p.pos])
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordByte(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
