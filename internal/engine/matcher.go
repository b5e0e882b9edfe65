package engine

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

// matchRule reports whether candidates satisfy rule's antecedent patterns,
// position by position.
//
// A pattern's "!class", when present, must name the candidate's variant.
// Every other non-reserved pattern attribute must be present on the
// candidate and match per valueMatches. An attribute the candidate lacks is
// a non-match.
func matchRule(rule *nodes.InferenceRule, candidates []nodes.Claim, res regexps) (bool, error) {
	patterns := rule.Antecedents()
	if len(candidates) != len(patterns) {
		return false, nil
	}
	for i, pattern := range patterns {
		ok, err := matchPattern(pattern, candidates[i], candidates, res)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// MatchPattern reports whether n alone satisfies pattern. With nothing
// bound, positions and "!xref" never match; identity strings compare equal
// to the references they name.
func MatchPattern(pattern ir.IRObject, n node.Node) (bool, error) {
	return matchPattern(pattern, n, nil, make(regexps))
}

func matchPattern(pattern ir.IRObject, candidate node.Node, candidates []nodes.Claim, res regexps) (bool, error) {
	if !classMatches(pattern, candidate) {
		return false, nil
	}
	for _, key := range pattern.SortedKeys() {
		if strings.HasPrefix(key, "!") {
			continue
		}
		value, ok := candidate.Attr(key)
		if !ok {
			return false, nil
		}
		ok, err := valueMatches(pattern[key], value, candidates, res)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// classMatches checks the optional "!class" constraint.
func classMatches(pattern ir.IRObject, candidate node.Node) bool {
	want, has := pattern[node.AttrClass]
	if !has {
		return true
	}
	cls, ok := want.(ir.IRString)
	return ok && string(cls) == candidate.Class()
}

// valueMatches compares an attribute value against one pattern value.
//
//   - A collection pattern needs a collection of the same length whose
//     elements match in order.
//   - An integer k needs a reference to candidates[k].
//   - "!re:<regexp>" needs a string the expression matches in full.
//   - "!contains:<value>" needs a collection with an element matching the
//     parsed value.
//   - "!xref:<k>.<attr>" needs a value equal to candidates[k]'s attr.
//   - Anything else needs canonical equality.
//
// Any other "!kind:" prefix, and malformed arguments to the ones above,
// fail with ErrUnsupportedPattern. Mismatches are (false, nil).
func valueMatches(pattern, value ir.IRValue, candidates []nodes.Claim, res regexps) (bool, error) {
	switch p := pattern.(type) {
	case ir.IRArray, ir.IRSet:
		want, _ := ir.Elements(p)
		have, ok := ir.Elements(value)
		if !ok || len(have) != len(want) {
			return false, nil
		}
		for i := range want {
			ok, err := valueMatches(want[i], have[i], candidates, res)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case ir.IRInt:
		if p < 0 || int(p) >= len(candidates) {
			return false, nil
		}
		ref, ok := value.(ir.IRRef)
		if !ok {
			return false, nil
		}
		target, ok := ref.Target.(node.Node)
		return ok && node.Equal(candidates[int(p)], target), nil

	case ir.IRString:
		kind, rest, ok := splitOperator(string(p))
		if !ok {
			return sameValue(p, value), nil
		}
		switch kind {
		case "re":
			return res.match(string(p), rest, value)
		case "contains":
			return matchContains(string(p), rest, value, candidates, res)
		case "xref":
			return matchXref(string(p), rest, value, candidates)
		}
		return false, newPatternError(string(p), "unknown pattern operator %q", kind)
	}
	return sameValue(pattern, value), nil
}

// splitOperator splits "!kind:rest". Strings without both the leading "!"
// and a colon are plain literals.
func splitOperator(s string) (kind, rest string, ok bool) {
	if !strings.HasPrefix(s, "!") {
		return "", "", false
	}
	return strings.Cut(s[1:], ":")
}

// regexps holds the "!re:" expressions compiled during one Run or Apply,
// keyed by expression text. It is dropped when the call returns.
type regexps map[string]*regexp.Regexp

func (res regexps) match(pattern, expr string, value ir.IRValue) (bool, error) {
	re, ok := res[expr]
	if !ok {
		compiled, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return false, newPatternError(pattern, "bad regular expression: %v", err)
		}
		res[expr] = compiled
		re = compiled
	}
	s, ok := value.(ir.IRString)
	return ok && re.MatchString(string(s)), nil
}

func matchContains(pattern, text string, value ir.IRValue, candidates []nodes.Claim, res regexps) (bool, error) {
	want, err := ir.ParseString(text)
	if err != nil {
		return false, newPatternError(pattern, "contains argument is not a value: %v", err)
	}
	elems, ok := ir.Elements(value)
	if !ok {
		return false, nil
	}
	for _, e := range elems {
		ok, err := valueMatches(want, e, candidates, res)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func matchXref(pattern, ref string, value ir.IRValue, candidates []nodes.Claim) (bool, error) {
	index, attr, ok := strings.Cut(ref, ".")
	if !ok || attr == "" {
		return false, newPatternError(pattern, "xref wants <index>.<attribute>")
	}
	k, err := strconv.Atoi(index)
	if err != nil || k < 0 {
		return false, newPatternError(pattern, "xref index %q is not a position", index)
	}
	if k >= len(candidates) {
		return false, nil
	}
	other, ok := candidates[k].Attr(attr)
	if !ok {
		return false, nil
	}
	return sameValue(other, value), nil
}

// sameValue compares two values by their canonical text, so a reference
// equals the identity string it serializes to and 1 equals 1.0.
func sameValue(a, b ir.IRValue) bool {
	if ir.Equal(a, b) {
		return true
	}
	at, err := ir.MarshalCanonical(a)
	if err != nil {
		return false
	}
	bt, err := ir.MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(at, bt)
}
