package rulebook

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/polygenea/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// ParseCUE reads a CUE rule file. The file is unified with the rule schema
// before any rule is built, so misspelled fields and empty pattern lists are
// reported with CUE positions.
func ParseCUE(file string, data []byte, opts ...Option) ([]Entry, error) {
	o := newOptions(opts)
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &Error{File: "schema.cue", Err: err}
	}
	user := ctx.CompileBytes(data, cue.Filename(file))
	if err := user.Err(); err != nil {
		return nil, &Error{File: file, Err: ir.Wrap(ir.ErrMalformedInput, err, "compiling CUE")}
	}
	value := schema.Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{File: file, Err: ir.Wrap(ir.ErrSchemaViolation, err, "rules do not fit the rule schema")}
	}

	rules := value.LookupPath(cue.ParsePath("rules"))
	if !rules.Exists() {
		return nil, &Error{File: file, Err: ir.Errorf(ir.ErrSchemaViolation, "no rules field")}
	}
	iter, err := rules.Fields()
	if err != nil {
		return nil, &Error{File: file, Err: ir.Wrap(ir.ErrSchemaViolation, err, "iterating rules")}
	}

	var b book
	for iter.Next() {
		name := iter.Label()
		raw, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, &Error{File: file, Rule: name, Err: ir.Wrap(ir.ErrSchemaViolation, err, "exporting rule")}
		}
		v, err := ir.Parse(raw)
		if err != nil {
			return nil, &Error{File: file, Rule: name, Err: err}
		}
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, &Error{File: file, Rule: name, Err: ir.Errorf(ir.ErrSchemaViolation, "a rule is a struct, not %s", ir.Describe(v))}
		}
		if err := b.add(o, name, obj); err != nil {
			return nil, &Error{File: file, Rule: name, Err: err}
		}
	}
	return b.finish(file)
}
