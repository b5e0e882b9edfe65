package engine

import (
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

// Result is what one successful rule application produces: the Inference
// recording it, then the instantiated consequents in rule order.
type Result struct {
	Inference *nodes.Inference
	Derived   []node.Node
}

// Nodes returns the Inference followed by the derived nodes, ready for
// graph.Store.Add.
func (r *Result) Nodes() []node.Node {
	out := make([]node.Node, 0, len(r.Derived)+1)
	out = append(out, r.Inference)
	return append(out, r.Derived...)
}

// Apply matches rule against candidates and, on a match, synthesizes the
// Inference and instantiates every consequent template.
//
// A non-match returns (nil, nil). Errors are reserved for patterns that
// cannot be evaluated (ErrUnsupportedPattern) and consequents that do not
// build into valid nodes.
//
// Apply is stateless. Consequent templates may name nodes outside the
// candidates by identity string; those resolve through WithLookup.
func Apply(rule *nodes.InferenceRule, candidates []nodes.Claim, opts ...Option) (*Result, error) {
	cfg := newSettings(opts)
	ok, err := matchRule(rule, candidates, make(regexps))
	if err != nil {
		return nil, withRule(err, rule)
	}
	if !ok {
		return nil, nil
	}
	inf, err := nodes.NewInference(rule, candidates...)
	if err != nil {
		return nil, err
	}
	return instantiate(rule, candidates, inf, cfg)
}

// instantiate builds the consequents of a matched rule.
func instantiate(rule *nodes.InferenceRule, candidates []nodes.Claim, inf *nodes.Inference, cfg settings) (*Result, error) {
	var log node.Log
	if !inf.Validate(&log) {
		return nil, ir.Errorf(ir.ErrValidationFailure, "inference: %s", log.String()).WithID(inf.ID().String())
	}

	res := &Result{Inference: inf}
	lk := &consequentLookup{candidates: candidates, inference: inf, next: cfg.lookup}
	for _, tmpl := range rule.Consequents() {
		obj, kind, err := prepare(tmpl, len(candidates), cfg.reg)
		if err != nil {
			return nil, err
		}
		n, err := node.Build(kind, obj, lk)
		if err != nil {
			return nil, err
		}
		res.Derived = append(res.Derived, n)
		lk.derived = res.Derived
	}
	return res, nil
}

// prepare resolves the template's variant and fills in the implicit source:
// a consequent whose variant declares "source" always cites the Inference,
// which sits at position arity.
func prepare(tmpl ir.IRObject, arity int, reg *node.Registry) (ir.IRObject, *node.Kind, error) {
	cls, ok := tmpl[node.AttrClass].(ir.IRString)
	if !ok {
		return nil, nil, ir.Errorf(ir.ErrSchemaViolation, "consequent needs a string %s", node.AttrClass)
	}
	kind, err := reg.Lookup(string(cls))
	if err != nil {
		return nil, nil, err
	}
	obj := tmpl.Clone()
	if _, has := obj["source"]; kind.Declares("source") && !has {
		obj["source"] = ir.IRInt(arity)
	}
	return obj, kind, nil
}

// consequentLookup resolves positions inside a rule application:
// 0..arity-1 are the candidates, arity is the Inference, and arity+1+j is
// the j-th consequent already built. Other tokens go to next.
type consequentLookup struct {
	candidates []nodes.Claim
	inference  *nodes.Inference
	derived    []node.Node
	next       node.Lookup
}

func (l *consequentLookup) Lookup(token ir.IRValue) (node.Node, error) {
	i, ok := node.Index(token)
	if !ok {
		return l.next.Lookup(token)
	}
	arity := len(l.candidates)
	switch {
	case i < arity:
		return l.candidates[i], nil
	case i == arity:
		return l.inference, nil
	case i-arity-1 < len(l.derived):
		return l.derived[i-arity-1], nil
	}
	return nil, ir.Errorf(ir.ErrUnknownReference, "position %d is past the %d candidate(s), the inference and %d consequent(s) built so far",
		i, arity, len(l.derived))
}

// withRule tags a rule error with the rule's identity.
func withRule(err error, rule *nodes.InferenceRule) error {
	if re, ok := err.(*RuleError); ok && re.Rule == "" {
		tagged := *re
		tagged.Rule = rule.ID().String()
		return &tagged
	}
	return err
}
