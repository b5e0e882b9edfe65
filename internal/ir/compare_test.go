package ir

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareKindOrder(t *testing.T) {
	ordered := []IRValue{
		IRNull{},
		IRBool(false),
		IRBool(true),
		IRInt(-5),
		IRFloat(-0.5),
		IRInt(0),
		IRFloat(0.5),
		IRInt(1),
		IRString(""),
		IRString("a"),
		IRString("b"),
		Ref(fakeRef{"Citation", uuid.Nil}),
		Ref(fakeRef{"Thing", uuid.Nil}),
		IRArray{},
		IRArray{IRInt(1)},
		IRArray{IRInt(1), IRInt(2)},
		IRArray{IRInt(2)},
		IRObject{},
		IRObject{"a": IRInt(1)},
		IRObject{"a": IRInt(2)},
		IRObject{"b": IRInt(0)},
	}

	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "%s < %s", Describe(ordered[i]), Describe(ordered[j]))
			case i > j:
				assert.Equal(t, 1, got, "%s > %s", Describe(ordered[i]), Describe(ordered[j]))
			default:
				assert.Equal(t, 0, got)
			}
		}
	}
}

func TestEqualAcrossRepresentations(t *testing.T) {
	assert.True(t, Equal(IRInt(1), IRFloat(1.0)))
	assert.True(t, Equal(IRArray{IRInt(1)}, IRSet{IRInt(1)}))
	assert.True(t, Equal(nil, IRNull{}))
	assert.False(t, Equal(IRString("1"), IRInt(1)))
}

func TestCompareRefsByIdentity(t *testing.T) {
	a := fakeRef{"Thing", uuid.MustParse("00000000-0000-4000-8000-000000000001")}
	b := fakeRef{"Thing", uuid.MustParse("00000000-0000-4000-8000-000000000002")}
	assert.Equal(t, -1, CompareRefs(a, b))
	assert.Equal(t, 0, CompareRefs(a, a))
	assert.True(t, Equal(Ref(a), Ref(a)))
}

func TestNewIRSet(t *testing.T) {
	s := NewIRSet(IRString("b"), IRInt(2), IRString("b"), IRNull{})
	assert.Equal(t, IRSet{IRNull{}, IRInt(2), IRString("b")}, s)

	_, err := StrictIRSet(IRInt(1), IRInt(2), IRFloat(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIdentity))

	strict, err := StrictIRSet(IRInt(3), IRInt(1))
	require.NoError(t, err)
	assert.Equal(t, IRSet{IRInt(1), IRInt(3)}, strict)
}

func TestSortedKeysUTF16(t *testing.T) {
	obj := IRObject{"b": IRNull{}, "\uE000": IRNull{}, "\U00010000": IRNull{}, "a": IRNull{}}
	assert.Equal(t, []string{"a", "b", "\U00010000", "\uE000"}, obj.SortedKeys())

	keys := []string{"b", "A", "a"}
	slices.SortFunc(keys, CompareStrings)
	assert.Equal(t, []string{"A", "a", "b"}, keys)
}

func TestCompareStringsInvalidUTF8(t *testing.T) {
	// Both decode to a single U+FFFD.
	assert.Equal(t, 1, CompareStrings("\xff", "\xfe"))
	assert.Equal(t, -1, CompareStrings("\xfe", "\xff"))
	assert.Equal(t, 0, CompareStrings("\xff", "\xff"))

	set := NewIRSet(IRString("\xff"), IRString("\xfe"))
	assert.Equal(t, IRSet{IRString("\xfe"), IRString("\xff")}, set)

	obj := IRObject{"a": IRObject{"\xff": IRInt(1), "\xfe": IRInt(2)}}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	firstID, err := ContentID(obj)
	require.NoError(t, err)
	for range 50 {
		got, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, got)
		id, err := ContentID(obj)
		require.NoError(t, err)
		assert.Equal(t, firstID, id)
	}
}

func TestFromGo(t *testing.T) {
	got, err := FromGo(map[string]any{
		"n":    nil,
		"i":    7,
		"f":    1.5,
		"list": []any{"x", true},
		"sub":  map[any]any{"k": int64(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"n":    IRNull{},
		"i":    IRInt(7),
		"f":    IRFloat(1.5),
		"list": IRArray{IRString("x"), IRBool(true)},
		"sub":  IRObject{"k": IRInt(3)},
	}, got)

	_, err = FromGo(map[any]any{1: "x"})
	assert.True(t, errors.Is(err, ErrMalformedInput))
}
