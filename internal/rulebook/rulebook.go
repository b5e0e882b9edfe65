package rulebook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

// Entry is one loaded rule and the name its file gave it.
type Entry struct {
	Name string
	Rule *nodes.InferenceRule
}

// Rules returns the rules of entries in file order.
func Rules(entries []Entry) []*nodes.InferenceRule {
	out := make([]*nodes.InferenceRule, len(entries))
	for i, e := range entries {
		out[i] = e.Rule
	}
	return out
}

// Error reports a rule file, or one rule in it, that could not be loaded.
// Err keeps the cause, so errors.Is(err, ir.ErrValidationFailure) and the
// other ir sentinels still work.
type Error struct {
	File string
	Rule string
	Err  error
}

func (e *Error) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: rule %q: %v", e.File, e.Rule, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type options struct {
	reg *node.Registry
}

// Option configures loading.
type Option func(*options)

// WithRegistry sets the registry rules are built with. Default: the
// built-in catalog.
func WithRegistry(r *node.Registry) Option {
	return func(o *options) {
		o.reg = r
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.reg == nil {
		o.reg = nodes.NewRegistry()
	}
	return o
}

// Load reads the rule file at path, picking the format by extension.
func Load(path string, opts ...Option) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{File: path, Err: err}
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(path, data, opts...)
	case ".cue":
		return ParseCUE(path, data, opts...)
	case ".json":
		return ParseJSON(path, data, opts...)
	default:
		return nil, &Error{File: path, Err: fmt.Errorf("unknown rule file extension %q", ext)}
	}
}

// ParseJSON reads a list of InferenceRule nodes in standalone text form.
// Rules are named by their position in the list.
func ParseJSON(file string, data []byte, opts ...Option) ([]Entry, error) {
	o := newOptions(opts)
	v, err := ir.Parse(data)
	if err != nil {
		return nil, &Error{File: file, Err: err}
	}
	elems, ok := ir.Elements(v)
	if !ok {
		return nil, &Error{File: file, Err: ir.Errorf(ir.ErrSchemaViolation, "a rule file holds a list, not %s", ir.Describe(v))}
	}
	var b book
	for i, elem := range elems {
		name := fmt.Sprintf("#%d", i)
		obj, ok := elem.(ir.IRObject)
		if !ok || !ir.Equal(obj[node.AttrClass], ir.IRString(nodes.InferenceRuleKind.Name)) {
			return nil, &Error{File: file, Rule: name, Err: ir.Errorf(ir.ErrSchemaViolation, "not an %s", nodes.InferenceRuleKind.Name)}
		}
		if err := b.add(o, name, obj); err != nil {
			return nil, &Error{File: file, Rule: name, Err: err}
		}
	}
	return b.finish(file)
}

// book collects rules while a file is read, rejecting repeated names and
// rules that say the same thing twice.
type book struct {
	entries []Entry
	names   map[string]bool
	ids     map[string]string
}

func (b *book) add(o options, name string, obj ir.IRObject) error {
	if name == "" {
		return ir.Errorf(ir.ErrSchemaViolation, "rule has no name")
	}
	if b.names == nil {
		b.names = make(map[string]bool)
		b.ids = make(map[string]string)
	}
	if b.names[name] {
		return ir.Errorf(ir.ErrSchemaViolation, "rule name used twice")
	}
	b.names[name] = true

	obj = obj.Clone()
	obj[node.AttrClass] = ir.IRString(nodes.InferenceRuleKind.Name)
	n, err := node.FromValue(obj, nil, o.reg)
	if err != nil {
		return err
	}
	rule, ok := n.(*nodes.InferenceRule)
	if !ok {
		return ir.Errorf(ir.ErrSchemaViolation, "registry built a %T for %s", n, nodes.InferenceRuleKind.Name)
	}
	id := rule.ID().String()
	if other, dup := b.ids[id]; dup {
		return ir.Errorf(ir.ErrDuplicateIdentity, "same rule as %q", other).WithID(id)
	}
	b.ids[id] = name
	b.entries = append(b.entries, Entry{Name: name, Rule: rule})
	return nil
}

func (b *book) finish(file string) ([]Entry, error) {
	if len(b.entries) == 0 {
		return nil, &Error{File: file, Err: ir.Errorf(ir.ErrSchemaViolation, "no rules")}
	}
	return b.entries, nil
}
