// Package node defines the contract every graph node satisfies.
//
// A variant is described by a Kind: discriminator name, identity flavor,
// declared attribute table and constructor. Concrete variants embed Base,
// expose their attributes through Attr and add their own checks in
// Validate. The attribute table, not reflection, drives canonical form,
// out-edge discovery and schema checks.
//
// Construction ends with Seal, which fixes identity and height once:
//
//	Content-derived: identity = v5(Namespace, canonical text without !uuid)
//	Assigned:        identity = supplied v1/v4, or a fresh v4
//
// FromValue is the inverse of Canonical. It resolves references through a
// Lookup, usually the graph store, and rejects anything that would not
// round-trip: unknown attributes, missing required ones, identity
// mismatches and nodes that fail validation.
package node
