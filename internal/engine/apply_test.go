package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

const nicknameRule = `{"!class":"InferenceRule",
	"antecedents":[{"!class":"Thing"},{"!class":"Property","key":"name","value":"Jane","subject":0}],
	"consequents":[{"!class":"Property","subject":0,"key":"nickname","value":"Jenny"}]}`

func TestApply(t *testing.T) {
	f := newFamily(t)
	rule := mustRule(t, nicknameRule)

	t.Run("no match", func(t *testing.T) {
		res, err := Apply(rule, []nodes.Claim{f.mary, f.name(f.mary)})
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("match", func(t *testing.T) {
		candidates := []nodes.Claim{f.jane, f.name(f.jane)}
		res, err := Apply(rule, candidates)
		require.NoError(t, err)
		require.NotNil(t, res)

		assert.Same(t, rule, res.Inference.Rule())
		assert.Equal(t, candidates, res.Inference.Antecedents())
		require.Len(t, res.Derived, 1)

		nick, ok := res.Derived[0].(*nodes.Property)
		require.True(t, ok)
		assert.Equal(t, "nickname", nick.Key())
		assert.Equal(t, "Jenny", nick.Value())
		assert.True(t, node.Equal(f.jane, nick.Subject()))
		assert.True(t, node.Equal(res.Inference, nick.Source()), "a consequent cites the inference")

		out := res.Nodes()
		require.Len(t, out, 2)
		assert.Same(t, res.Inference, out[0])

		again, err := Apply(rule, candidates)
		require.NoError(t, err)
		assert.Equal(t, res.Inference.ID(), again.Inference.ID())
		assert.Equal(t, nick.ID(), again.Derived[0].ID())
	})

	t.Run("candidates are not aliased", func(t *testing.T) {
		candidates := []nodes.Claim{f.jane, f.name(f.jane)}
		res, err := Apply(rule, candidates)
		require.NoError(t, err)
		candidates[0] = f.mary
		assert.True(t, node.Equal(f.jane, res.Inference.Antecedents()[0]))
	})
}

func TestApplyLaterConsequents(t *testing.T) {
	f := newFamily(t)
	rule := mustRule(t, `{"!class":"InferenceRule",
		"antecedents":[{"!class":"Thing"}],
		"consequents":[
			{"!class":"Thing"},
			{"!class":"Connection","subject":0,"object":2,"relation":"parent"}]}`)

	res, err := Apply(rule, []nodes.Claim{f.jane})
	require.NoError(t, err)
	require.Len(t, res.Derived, 2)

	parent, ok := res.Derived[0].(*nodes.Thing)
	require.True(t, ok)
	conn, ok := res.Derived[1].(*nodes.Connection)
	require.True(t, ok)
	assert.Same(t, parent, conn.Object())
	assert.True(t, node.Equal(f.jane, conn.Subject()))
	assert.Equal(t, "parent", conn.Relation())
}

func TestApplyIdentityReference(t *testing.T) {
	f := newFamily(t)
	rule := mustRule(t, `{"!class":"InferenceRule",
		"antecedents":[{"!class":"Thing"}],
		"consequents":[{"!class":"Connection","subject":0,"object":"`+f.mary.ID().String()+`","relation":"sister"}]}`)

	_, err := Apply(rule, []nodes.Claim{f.jane})
	require.Error(t, err, "identity strings do not resolve without a lookup")
	assert.ErrorIs(t, err, ir.ErrUnknownReference)

	lk := node.LookupFunc(func(token ir.IRValue) (node.Node, error) {
		if s, ok := token.(ir.IRString); ok && string(s) == f.mary.ID().String() {
			return f.mary, nil
		}
		return node.Direct.Lookup(token)
	})
	res, err := Apply(rule, []nodes.Claim{f.jane}, WithLookup(lk))
	require.NoError(t, err)
	conn := res.Derived[0].(*nodes.Connection)
	assert.Same(t, f.mary, conn.Object())
}

func TestApplyErrors(t *testing.T) {
	f := newFamily(t)

	t.Run("unsupported pattern names the rule", func(t *testing.T) {
		rule := mustRule(t, `{"!class":"InferenceRule",
			"antecedents":[{"!class":"Property","value":"!soundex:J500"}],
			"consequents":[{"!class":"Thing"}]}`)
		_, err := Apply(rule, []nodes.Claim{f.name(f.jane)})
		require.Error(t, err)
		var re *RuleError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeUnsupportedPattern, re.Code)
		assert.Equal(t, rule.ID().String(), re.Rule)
		assert.Equal(t, "!soundex:J500", re.Pattern)
	})

	t.Run("position past the consequents", func(t *testing.T) {
		rule := mustRule(t, `{"!class":"InferenceRule",
			"antecedents":[{"!class":"Thing"}],
			"consequents":[{"!class":"Property","subject":5,"key":"k","value":"v"}]}`)
		_, err := Apply(rule, []nodes.Claim{f.jane})
		assert.ErrorIs(t, err, ir.ErrUnknownReference)
	})

	t.Run("unknown consequent variant", func(t *testing.T) {
		rule := mustRule(t, `{"!class":"InferenceRule",
			"antecedents":[{"!class":"Thing"}],
			"consequents":[{"!class":"Person"}]}`)
		_, err := Apply(rule, []nodes.Claim{f.jane})
		assert.ErrorIs(t, err, ir.ErrUnknownVariant)
	})

	t.Run("consequent fails validation", func(t *testing.T) {
		rule := mustRule(t, `{"!class":"InferenceRule",
			"antecedents":[{"!class":"Thing"}],
			"consequents":[{"!class":"Property","subject":0,"key":"","value":"v"}]}`)
		_, err := Apply(rule, []nodes.Claim{f.jane})
		assert.ErrorIs(t, err, ir.ErrValidationFailure)
	})

	t.Run("duplicate match members", func(t *testing.T) {
		rule := mustRule(t, `{"!class":"InferenceRule",
			"antecedents":[{"!class":"Thing"},{"!class":"Thing"}],
			"consequents":[{"!class":"Match","same":[0,1]}]}`)
		_, err := Apply(rule, []nodes.Claim{f.jane, f.jane})
		assert.ErrorIs(t, err, ir.ErrDuplicateIdentity)

		res, err := Apply(rule, []nodes.Claim{f.jane, f.janet})
		require.NoError(t, err)
		m := res.Derived[0].(*nodes.Match)
		assert.Len(t, m.Same(), 2)
	})
}
