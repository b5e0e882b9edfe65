// Package harness runs inference scenarios.
//
// A scenario is a YAML file naming node files, a rule file and what the
// run should produce:
//
//	name: nickname
//	description: Everyone named Jane is called Jenny
//	nodes: [nodes/family.json]
//	rules: rules/family.yaml
//	expect:
//	  fired: 1
//	assertions:
//	  - type: count
//	    pattern: {"!class": Property, key: nickname, value: Jenny}
//	    count: 1
//
// Paths are relative to the scenario file. Each run starts from an empty
// graph, ingests the node files in order, loads the rules and runs the
// engine to a fixpoint. The resulting graph is then written to an
// in-memory journal and replayed into a fresh graph, and the two must
// serialize identically.
//
// Assertion patterns use the antecedent pattern language of inference
// rules, matched against one node at a time. Positions and "!xref" have
// nothing to bind to and never match; write references as identity
// strings instead.
//
// Assertion types:
//   - contains: at least one stored node matches pattern
//   - count: exactly count stored nodes match pattern
//   - absent: no stored node matches pattern
//   - aliases: the node with identity of has count members in its alias
//     class, itself included
//   - incoming: count of the nodes referring to of (or its aliases) match
//     pattern; with no pattern every incoming node counts
//
// RunWithGolden also compares a summary of the run (report, error code,
// nodes per variant) against testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
