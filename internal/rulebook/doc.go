// Package rulebook loads inference rules from rule files.
//
// Three formats are read, chosen by file extension:
//
//   - .yaml/.yml: a "rules" list of {name, antecedents, consequents}
//   - .cue: a "rules" struct keyed by rule name, checked against an
//     embedded schema
//   - .json: a list of InferenceRule nodes in standalone text form
//
// Reserved attributes must be quoted in YAML ("!class"), since a bare
// leading "!" starts a YAML tag. Every rule is built through the node
// registry, so a loaded rule has already passed validation.
package rulebook
