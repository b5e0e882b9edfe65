package ir

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRef is a minimal Referent for tests.
type fakeRef struct {
	class string
	id    uuid.UUID
}

func (f fakeRef) Class() string { return f.class }
func (f fakeRef) ID() uuid.UUID { return f.id }

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"null", IRNull{}, "null"},
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(math.MaxInt64), "9223372036854775807"},
		{"min int64", IRInt(math.MinInt64), "-9223372036854775808"},
		{"integral float", IRFloat(3.0), "3"},
		{"negative zero", IRFloat(math.Copysign(0, -1)), "0"},
		{"fraction", IRFloat(1.5), "1.5"},
		{"small", IRFloat(1e-7), "1e-7"},
		{"small negative", IRFloat(-1e-5), "-1e-5"},
		{"short fraction", IRFloat(0.5), "0.5"},
		{"fraction below exponent width", IRFloat(0.001), "1e-3"},
		{"large fraction", IRFloat(1234567.5), "1234567.5"},
		{"beyond int64", IRFloat(1e20), "1e20"},
		{"long mantissa", IRFloat(1.2345e300), "1.2345e300"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array keeps order", IRArray{IRInt(3), IRInt(1), IRInt(2)}, "[3,1,2]"},
		{"set sorts", IRSet{IRString("b"), IRInt(1), IRNull{}}, `[null,1,"b"]`},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"short forms", "\n\r\t\f\b", `"\n\r\t\f\b"`},
		{"other control", "\x01\x1f", `"\u0001\u001f"`},
		{"delete", "\x7f", `"\u007f"`},
		{"html left alone", "<a&b>", `"<a&b>"`},
		{"slash left alone", "a/b", `"a/b"`},
		{"line separator left alone", "\u2028", "\"\u2028\""},
		{"non ascii", "héllo", `"héllo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
		"!uuid": IRInt(3),
		"beta":  IRObject{"b": IRInt(1), "a": IRInt(2)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"!uuid":3,"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8
	obj := IRObject{
		"\uE000":     IRInt(1), // UTF-16: 0xE000
		"\U00010000": IRInt(2), // UTF-16: 0xD800, 0xDC00 (surrogate pair)
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// UTF-16 order: 0xD800 < 0xE000, so U+10000 comes first
	expected := "{\"\U00010000\":2,\"\uE000\":1}"
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(IRArray{IRFloat(f)})
		assert.Error(t, err)
	}
}

func TestMarshalWithRefEncoder(t *testing.T) {
	id := uuid.MustParse("8a6b11fd-49af-52f0-8673-7056f0c77287")
	v := IRObject{"citation": Ref(fakeRef{"Citation", id})}

	result, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"citation":"8a6b11fd-49af-52f0-8673-7056f0c77287"}`, string(result))

	result, err = MarshalWith(v, func(IRRef) (IRValue, error) { return IRInt(0), nil })
	require.NoError(t, err)
	assert.Equal(t, `{"citation":0}`, string(result))
}

func TestRoundTrip(t *testing.T) {
	values := []IRValue{
		IRNull{},
		IRBool(true),
		IRInt(-17),
		IRFloat(2.5),
		IRFloat(6.02214076e23),
		IRString("tab\there \u0001 \"quoted\" é 𐀀"),
		IRArray{IRInt(1), IRArray{}, IRObject{}},
		NewIRSet(IRString("z"), IRString("a"), IRInt(9)),
		IRObject{
			"details": IRObject{"type": IRString("imagination")},
			"list":    IRArray{IRBool(false), IRNull{}},
		},
	}

	for _, v := range values {
		text, err := MarshalCanonical(v)
		require.NoError(t, err)

		back, err := Parse(text)
		require.NoError(t, err, string(text))
		assert.True(t, Equal(v, back), "round trip of %s", text)

		again, err := MarshalCanonical(back)
		require.NoError(t, err)
		assert.Equal(t, string(text), string(again))
	}
}
