package ir

import (
	"bytes"
	"cmp"
	"fmt"
)

// Rank positions of each value kind in the canonical order.
const (
	rankNull = iota
	rankFalse
	rankTrue
	rankNumber
	rankString
	rankRef
	rankList
	rankObject
)

func rank(v IRValue) int {
	switch val := v.(type) {
	case nil, IRNull:
		return rankNull
	case IRBool:
		if val {
			return rankTrue
		}
		return rankFalse
	case IRInt, IRFloat:
		return rankNumber
	case IRString:
		return rankString
	case IRRef:
		return rankRef
	case IRArray, IRSet:
		return rankList
	case IRObject:
		return rankObject
	}
	panic(fmt.Sprintf("ir: unknown IRValue type %T", v))
}

// Compare totally orders values:
// Null < False < True < Number < String < Ref < Array/Set < Object.
// Numbers compare by numeric value regardless of IRInt/IRFloat; strings by
// UTF-16 code units; refs by class then identity bytes; lists element-wise
// with a shorter prefix first; objects key-then-value over sorted keys.
// A nil IRValue is treated as IRNull.
func Compare(a, b IRValue) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return CompareStrings(string(a.(IRString)), string(b.(IRString)))
	case rankRef:
		return CompareRefs(a.(IRRef).Target, b.(IRRef).Target)
	case rankList:
		ae, _ := Elements(a)
		be, _ := Elements(b)
		return compareLists(ae, be)
	case rankObject:
		return compareObjects(a.(IRObject), b.(IRObject))
	}
	return 0
}

// Equal reports whether a and b are the same canonical value.
func Equal(a, b IRValue) bool {
	return Compare(a, b) == 0
}

// CompareRefs orders node references by class name, then identity bytes.
func CompareRefs(a, b Referent) int {
	if c := CompareStrings(a.Class(), b.Class()); c != 0 {
		return c
	}
	ai, bi := a.ID(), b.ID()
	return bytes.Compare(ai[:], bi[:])
}

func compareNumbers(a, b IRValue) int {
	ai, aInt := a.(IRInt)
	bi, bInt := b.(IRInt)
	if aInt && bInt {
		return cmp.Compare(ai, bi)
	}
	if c := cmp.Compare(toFloat(a), toFloat(b)); c != 0 {
		return c
	}
	// Equal as doubles: fall back to integer parts so huge ints that
	// round to the same double still order.
	return cmp.Compare(toInt(a), toInt(b))
}

func toFloat(v IRValue) float64 {
	if i, ok := v.(IRInt); ok {
		return float64(i)
	}
	return float64(v.(IRFloat))
}

func toInt(v IRValue) int64 {
	if i, ok := v.(IRInt); ok {
		return int64(i)
	}
	return int64(v.(IRFloat))
}

func compareLists(a, b []IRValue) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareObjects(a, b IRObject) int {
	ak, bk := a.SortedKeys(), b.SortedKeys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := CompareStrings(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}
