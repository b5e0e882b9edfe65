package nodes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

func testCitation(t *testing.T) *Citation {
	t.Helper()
	c, err := NewCitation(CitationKindTransient, ir.IRObject{
		"when": ir.IRString("2014-07-06 04:24:20+00:00"),
		"type": ir.IRString("imagination"),
	})
	require.NoError(t, err)
	return c
}

func testSource(t *testing.T) *ExternalSource {
	t.Helper()
	s, err := NewExternalSource(testCitation(t), "My sister Jane is also my legal guardian", "")
	require.NoError(t, err)
	return s
}

// lookupOf resolves identity strings against the given nodes.
func lookupOf(known ...node.Node) node.Lookup {
	return node.LookupFunc(func(token ir.IRValue) (node.Node, error) {
		if s, ok := token.(ir.IRString); ok {
			for _, n := range known {
				if n.ID().String() == string(s) {
					return n, nil
				}
			}
		}
		return node.Direct.Lookup(token)
	})
}

func TestCitationIdentity(t *testing.T) {
	c := testCitation(t)
	assert.Equal(t, "8a6b11fd-49af-52f0-8673-7056f0c77287", c.ID().String())
	assert.Equal(t, 0, c.Height())
	require.True(t, c.Validate(nil))

	v, err := ir.ParseString(`{"kind":"TRANSIENT","!class":"Citation","details":{"when":"2014-07-06 04:24:20+00:00","type":"imagination"}}`)
	require.NoError(t, err)
	parsed, err := node.FromValue(v, nil, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, c.ID(), parsed.ID())
}

func TestExternalSourceIdentity(t *testing.T) {
	s := testSource(t)
	assert.Equal(t, "f67a64b3-53bf-5bf7-bd69-f39afd24e252", s.ID().String())
	assert.Equal(t, DefaultContentType, s.ContentType())
	assert.Equal(t, 1, s.Height())

	text, err := node.Standalone(s)
	require.NoError(t, err)
	v, err := ir.Parse(text)
	require.NoError(t, err)
	parsed, err := node.FromValue(v, lookupOf(s.Citation()), NewRegistry())
	require.NoError(t, err)
	assert.True(t, node.Equal(s, parsed))
}

func TestExternalSourceWithoutContentType(t *testing.T) {
	c := testCitation(t)
	attrs := ir.IRObject{
		"!class":   ir.IRString("ExternalSource"),
		"citation": ir.IRString(c.ID().String()),
		"content":  ir.IRString("hi"),
	}
	want, err := ir.ContentID(attrs)
	require.NoError(t, err)

	withID := attrs.Clone()
	withID["!uuid"] = ir.IRString(want.String())
	n, err := node.FromValue(withID, lookupOf(c), NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, want, n.ID())

	s := n.(*ExternalSource)
	assert.Empty(t, s.ContentType())
	_, has := s.Attr("contentType")
	assert.False(t, has)

	text, err := node.Standalone(s)
	require.NoError(t, err)
	assert.NotContains(t, string(text), "contentType")
}

func TestCitationValidate(t *testing.T) {
	tests := []struct {
		name    string
		details ir.IRObject
		wantOK  bool
	}{
		{"plain", ir.IRObject{"title": ir.IRString("Census")}, true},
		{"no details", ir.IRObject{}, false},
		{"empty key", ir.IRObject{"": ir.IRString("x")}, false},
		{"reserved key", ir.IRObject{"!title": ir.IRString("x")}, false},
		{"leading space", ir.IRObject{" title": ir.IRString("x")}, false},
		{"control character", ir.IRObject{"\ttitle": ir.IRString("x")}, false},
		{"decomposed key", ir.IRObject{"cafe\u0301": ir.IRString("x")}, false},
		{"composed key", ir.IRObject{"caf\u00e9": ir.IRString("x")}, true},
		{"null value", ir.IRObject{"title": ir.IRNull{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCitation("BOOK", tt.details)
			require.NoError(t, err)
			var log node.Log
			assert.Equal(t, tt.wantOK, c.Validate(&log), log.String())
			assert.Equal(t, tt.wantOK, log.Empty())
		})
	}
}

func TestGroupingMembers(t *testing.T) {
	src := testSource(t)
	a, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	b, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)

	_, err = NewGrouping(src, "siblings", a, b, a)
	assert.ErrorIs(t, err, ir.ErrDuplicateIdentity)

	single, err := NewGrouping(src, "siblings", a)
	require.NoError(t, err)
	assert.False(t, single.Validate(nil))

	ab, err := NewGrouping(src, "siblings", a, b)
	require.NoError(t, err)
	ba, err := NewGrouping(src, "siblings", b, a)
	require.NoError(t, err)
	assert.True(t, ab.Validate(nil))
	assert.Equal(t, ab.ID(), ba.ID())

	subjects, ok := ab.Attr("subjects")
	require.True(t, ok)
	assert.IsType(t, ir.IRSet{}, subjects)
}

func TestMatchMembers(t *testing.T) {
	src := testSource(t)
	a, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	b, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)

	_, err = NewMatch(src, a, a)
	assert.ErrorIs(t, err, ir.ErrDuplicateIdentity)

	single, err := NewMatch(src, a)
	require.NoError(t, err)
	var log node.Log
	assert.False(t, single.Validate(&log))
	assert.Contains(t, log.String(), "cannot match only 1")

	m, err := NewMatch(src, b, a)
	require.NoError(t, err)
	assert.True(t, m.Validate(nil))
	assert.Len(t, m.Aliases(), 2)
	assert.Equal(t, 3, m.Height())

	// A Match is itself an entity and can be matched again.
	c, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	outer, err := NewMatch(src, m, c)
	require.NoError(t, err)
	assert.True(t, outer.Validate(nil))
}

func TestThingIdentity(t *testing.T) {
	src := testSource(t)

	fresh, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), fresh.ID().Version())
	other, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	assert.NotEqual(t, fresh.ID(), other.ID(), "same source, different entities")

	id := uuid.MustParse("c5a3e9a4-16b4-4e5b-9d45-0b1e35d14a77")
	fixed, err := NewThing(src, id)
	require.NoError(t, err)
	assert.Equal(t, id, fixed.ID())

	_, err = NewThing(src, ir.Derive(ir.Namespace, []byte("thing")))
	assert.ErrorIs(t, err, ir.ErrIdentity)
}

func TestInferenceAntecedents(t *testing.T) {
	src := testSource(t)
	a, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	b, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)

	// Without a rule the antecedents are an unordered set.
	ab, err := NewInference(nil, a, b)
	require.NoError(t, err)
	ba, err := NewInference(nil, b, a)
	require.NoError(t, err)
	assert.Equal(t, ab.ID(), ba.ID())
	v, _ := ab.Attr("antecedents")
	assert.IsType(t, ir.IRSet{}, v)

	_, err = NewInference(nil, a, a)
	assert.ErrorIs(t, err, ir.ErrDuplicateIdentity)

	empty, err := NewInference(nil)
	require.NoError(t, err)
	assert.False(t, empty.Validate(nil))

	// With a rule they line up with its patterns, so order matters.
	rule, err := NewInferenceRule(
		[]ir.IRObject{{"!class": ir.IRString("Thing")}, {"!class": ir.IRString("Thing")}},
		[]ir.IRObject{{"!class": ir.IRString("Match"), "same": ir.NewIRSet(ir.IRInt(0), ir.IRInt(1))}},
	)
	require.NoError(t, err)
	fwd, err := NewInference(rule, a, b)
	require.NoError(t, err)
	rev, err := NewInference(rule, b, a)
	require.NoError(t, err)
	assert.NotEqual(t, fwd.ID(), rev.ID())
	v, _ = fwd.Attr("antecedents")
	assert.IsType(t, ir.IRArray{}, v)
	assert.True(t, fwd.Validate(nil))

	short, err := NewInference(rule, a)
	require.NoError(t, err)
	assert.False(t, short.Validate(nil))
}

func TestInferenceRuleValidate(t *testing.T) {
	prop := ir.IRObject{"!class": ir.IRString("Property"), "key": ir.IRString("name")}
	note := ir.IRObject{"!class": ir.IRString("Note"), "about": ir.IRInt(0), "content": ir.IRString("named")}

	tests := []struct {
		name        string
		antecedents []ir.IRObject
		consequents []ir.IRObject
		wantOK      bool
	}{
		{"well formed", []ir.IRObject{prop}, []ir.IRObject{note}, true},
		{"no antecedents", nil, []ir.IRObject{note}, false},
		{"no consequents", []ir.IRObject{prop}, nil, false},
		{"antecedent uuid", []ir.IRObject{{"!uuid": ir.IRString(uuid.NewString())}}, []ir.IRObject{note}, false},
		{"antecedent class not a string", []ir.IRObject{{"!class": ir.IRInt(1)}}, []ir.IRObject{note}, false},
		{"consequent without class", []ir.IRObject{prop}, []ir.IRObject{{"about": ir.IRInt(0)}}, false},
		{"consequent with source", []ir.IRObject{prop}, []ir.IRObject{{"!class": ir.IRString("Thing"), "source": ir.IRInt(1)}}, false},
		{"consequent with uuid", []ir.IRObject{prop}, []ir.IRObject{{"!class": ir.IRString("Thing"), "!uuid": ir.IRString(uuid.NewString())}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewInferenceRule(tt.antecedents, tt.consequents)
			require.NoError(t, err)
			var log node.Log
			assert.Equal(t, tt.wantOK, rule.Validate(&log), log.String())
		})
	}
}

func TestClaimsFromValue(t *testing.T) {
	src := testSource(t)
	thing, err := NewThing(src, uuid.Nil)
	require.NoError(t, err)
	lk := lookupOf(src, src.Citation(), thing)
	reg := NewRegistry()

	build := func(text string) (node.Node, error) {
		v, err := ir.ParseString(text)
		require.NoError(t, err)
		return node.FromValue(v, lk, reg)
	}
	srcID, thingID, citID := src.ID().String(), thing.ID().String(), src.Citation().ID().String()

	t.Run("property", func(t *testing.T) {
		n, err := build(`{"!class":"Property","source":"` + srcID + `","subject":"` + thingID + `","key":"name","value":"Jane"}`)
		require.NoError(t, err)
		p := n.(*Property)
		assert.Equal(t, "Jane", p.Value())
		assert.True(t, node.Equal(thing, p.Subject()))

		direct, err := NewProperty(src, thing, "name", "Jane")
		require.NoError(t, err)
		assert.Equal(t, direct.ID(), p.ID())
	})

	t.Run("empty property value", func(t *testing.T) {
		_, err := build(`{"!class":"Property","source":"` + srcID + `","subject":"` + thingID + `","key":"name","value":""}`)
		assert.ErrorIs(t, err, ir.ErrValidationFailure)
	})

	t.Run("subject must be a claim", func(t *testing.T) {
		_, err := build(`{"!class":"Property","source":"` + srcID + `","subject":"` + citID + `","key":"name","value":"Jane"}`)
		assert.ErrorIs(t, err, ir.ErrSchemaViolation)
	})

	t.Run("source must be a source", func(t *testing.T) {
		_, err := build(`{"!class":"Thing","source":"` + thingID + `"}`)
		assert.ErrorIs(t, err, ir.ErrSchemaViolation)
	})

	t.Run("connection", func(t *testing.T) {
		n, err := build(`{"!class":"Connection","source":"` + srcID + `","subject":"` + thingID + `","object":"` + thingID + `","relation":"self"}`)
		require.NoError(t, err)
		assert.Len(t, node.OutEdges(n), 3)
	})

	t.Run("grouping with repeated subject", func(t *testing.T) {
		_, err := build(`{"!class":"Grouping","source":"` + srcID + `","subjects":["` + thingID + `","` + thingID + `"],"relation":"family"}`)
		assert.ErrorIs(t, err, ir.ErrDuplicateIdentity)
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := build(`{"!class":"Thing","source":"` + uuid.NewString() + `"}`)
		assert.ErrorIs(t, err, ir.ErrUnknownReference)
	})
}

func TestNotes(t *testing.T) {
	c := testCitation(t)

	n, err := NewNote(c, "found in the attic", "")
	require.NoError(t, err)
	assert.True(t, n.Validate(nil))
	_, has := n.Attr("creator")
	assert.False(t, has, "anonymous notes omit the creator")

	blank, err := NewNote(c, "", "luther")
	require.NoError(t, err)
	assert.False(t, blank.Validate(nil))

	src := testSource(t)
	cn, err := NewConnectingNote(src, c, "transcribes", "luther")
	require.NoError(t, err)
	assert.True(t, cn.Validate(nil))
	assert.Equal(t, 2, cn.Height())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{
		"Citation", "ConnectingNote", "Connection", "ExternalSource", "Grouping",
		"Inference", "InferenceRule", "Match", "Note", "Property", "Thing",
	}, reg.Names())

	_, err := reg.Lookup("Person")
	assert.ErrorIs(t, err, ir.ErrUnknownVariant)
}
