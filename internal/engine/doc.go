// Package engine applies inference rules to claims.
//
// Apply is the stateless core: it matches a rule's antecedent patterns
// against an ordered list of candidate claims and, on a match, returns an
// Inference plus the consequents instantiated from the rule's templates.
// A non-match is a nil Result, not an error.
//
// Engine drives Apply to a fixpoint over a graph store.
//
// DETERMINISM:
// Rules are evaluated in the order given and candidate tuples in
// (variant, identity) order. Content-derived consequents hash the same on
// every application, so re-running a rule over the same claims adds
// nothing. Identity-bearing consequents (Thing) get a fresh identity each
// time they are built; the firing check on the Inference keeps that to
// once per candidate tuple.
//
// TERMINATION:
// Firing idempotency guarantees a fixpoint unless rules keep deriving
// claims that feed back into themselves. WithMaxSteps bounds that case
// with ErrQuotaExceeded.
package engine
