package nodes

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// InferenceKind describes Inference nodes.
var InferenceKind = &node.Kind{
	Name: "Inference",
	Attrs: []node.AttrSpec{
		{Name: "rule"},
		{Name: "antecedents", Required: true},
	},
}

// Inference is a synthesized source recording that some claims, optionally
// through a rule, justify new claims. With a rule the antecedents are
// ordered to line up with the rule's patterns; without one they are a set.
type Inference struct {
	node.Base
	rule        *InferenceRule
	antecedents []Claim
}

// NewInference builds an inference. rule may be nil, in which case the
// antecedents are sorted and must be distinct.
func NewInference(rule *InferenceRule, antecedents ...Claim) (*Inference, error) {
	inf := &Inference{Base: node.NewBase(InferenceKind), rule: rule, antecedents: slices.Clone(antecedents)}
	if rule == nil {
		sorted, err := distinctSorted("antecedent", antecedents)
		if err != nil {
			return nil, err
		}
		inf.antecedents = sorted
	}
	if err := node.Seal(inf, uuid.Nil); err != nil {
		return nil, err
	}
	return inf, nil
}

func newInference(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(InferenceKind, attrs, lk)
	inf := &Inference{
		Base: node.NewBase(InferenceKind),
		rule: node.As[*InferenceRule](r, "rule", r.Node("rule")),
	}
	inf.antecedents = node.AsAll[Claim](r, "antecedents", r.Nodes("antecedents"))
	if err := r.Err(); err != nil {
		return nil, err
	}
	if inf.rule == nil {
		sorted, err := distinctSorted("antecedent", inf.antecedents)
		if err != nil {
			return nil, err
		}
		inf.antecedents = sorted
	}
	return inf, nil
}

// Rule returns the rule applied, or nil.
func (inf *Inference) Rule() *InferenceRule { return inf.rule }

// Antecedents returns the claims the inference rests on.
func (inf *Inference) Antecedents() []Claim { return inf.antecedents }

func (inf *Inference) isSource() {}

// Attr implements node.Node.
func (inf *Inference) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "rule":
		if inf.rule == nil {
			return nil, false
		}
		return ir.Ref(inf.rule), true
	case "antecedents":
		if inf.rule == nil {
			return ir.IRSet(refs(inf.antecedents)), true
		}
		return refs(inf.antecedents), true
	}
	return nil, false
}

// Validate implements node.Node.
func (inf *Inference) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(inf, log)
	if len(inf.antecedents) < 1 {
		log.Addf("Inference: cannot have an inference with no antecedents")
		ok = false
	}
	for _, a := range inf.antecedents {
		if a == nil {
			log.Addf("Inference: no antecedent should be nil")
			ok = false
		}
	}
	if inf.rule != nil && len(inf.antecedents) != len(inf.rule.antecedents) {
		log.Addf("Inference: rule has %d antecedent patterns but %d antecedents were given",
			len(inf.rule.antecedents), len(inf.antecedents))
		ok = false
	}
	return ok
}

// InferenceRuleKind describes InferenceRule nodes.
var InferenceRuleKind = &node.Kind{
	Name: "InferenceRule",
	Attrs: []node.AttrSpec{
		{Name: "antecedents", Required: true},
		{Name: "consequents", Required: true},
	},
}

// InferenceRule is a declarative rule: antecedent patterns that candidate
// claims must match, and consequent templates instantiated on a match.
//
// Pattern values are literals, integer positions of other candidates, or
// "!kind:rest" wildcards. Consequent templates reference candidates by
// position 0..n-1, the inference itself by n, and earlier consequents by
// n+1 onward. Their source is always the inference and is never written.
type InferenceRule struct {
	node.Base
	antecedents []ir.IRObject
	consequents []ir.IRObject
}

// NewInferenceRule builds a rule. Well-formedness is checked by Validate;
// use node.FromValue or the rulebook loader to reject bad rules up front.
func NewInferenceRule(antecedents, consequents []ir.IRObject) (*InferenceRule, error) {
	rule := &InferenceRule{Base: node.NewBase(InferenceRuleKind), antecedents: antecedents, consequents: consequents}
	if err := node.Seal(rule, uuid.Nil); err != nil {
		return nil, err
	}
	return rule, nil
}

func newInferenceRule(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(InferenceRuleKind, attrs, lk)
	rule := &InferenceRule{
		Base:        node.NewBase(InferenceRuleKind),
		antecedents: r.Objects("antecedents"),
		consequents: r.Objects("consequents"),
	}
	return rule, r.Err()
}

// Antecedents returns the antecedent patterns.
func (rule *InferenceRule) Antecedents() []ir.IRObject { return rule.antecedents }

// Consequents returns the consequent templates.
func (rule *InferenceRule) Consequents() []ir.IRObject { return rule.consequents }

// Arity is the number of candidates the rule consumes.
func (rule *InferenceRule) Arity() int { return len(rule.antecedents) }

// Attr implements node.Node.
func (rule *InferenceRule) Attr(name string) (ir.IRValue, bool) {
	var list []ir.IRObject
	switch name {
	case "antecedents":
		list = rule.antecedents
	case "consequents":
		list = rule.consequents
	default:
		return nil, false
	}
	out := make(ir.IRArray, len(list))
	for i, obj := range list {
		out[i] = obj
	}
	return out, true
}

// Validate implements node.Node. A rule needs at least one antecedent and
// one consequent; no pattern may carry "!uuid"; every consequent names its
// "!class" and none names a "source".
func (rule *InferenceRule) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(rule, log)
	if len(rule.antecedents) < 1 {
		log.Addf("InferenceRule: cannot have an inference rule with no antecedents")
		ok = false
	}
	if len(rule.consequents) < 1 {
		log.Addf("InferenceRule: cannot have an inference rule with no consequents")
		ok = false
	}
	for i, a := range rule.antecedents {
		if a == nil {
			log.Addf("InferenceRule: antecedent %d should not be nil", i)
			ok = false
			continue
		}
		if _, has := a[node.AttrUUID]; has {
			log.Addf("InferenceRule: antecedent %d should not be node-specific", i)
			ok = false
		}
		if cls, has := a[node.AttrClass]; has {
			if _, str := cls.(ir.IRString); !str {
				log.Addf("InferenceRule: antecedent %d has a non-string %s", i, node.AttrClass)
				ok = false
			}
		}
	}
	for i, c := range rule.consequents {
		if c == nil {
			log.Addf("InferenceRule: consequent %d should not be nil", i)
			ok = false
			continue
		}
		if _, has := c[node.AttrUUID]; has {
			log.Addf("InferenceRule: consequent %d should not specify a uuid", i)
			ok = false
		}
		if _, has := c["source"]; has {
			log.Addf("InferenceRule: consequent %d should not specify a source", i)
			ok = false
		}
		cls, has := c[node.AttrClass].(ir.IRString)
		if !has || strings.TrimSpace(string(cls)) == "" {
			log.Addf("InferenceRule: consequent %d must specify a class", i)
			ok = false
		}
	}
	return ok
}
