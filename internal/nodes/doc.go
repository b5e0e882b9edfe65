// Package nodes is the built-in variant catalog of the genealogy data model.
//
// Sources (ExternalSource, Inference) justify claims; claims (Thing, Match,
// Property, Connection, Grouping) carry the facts; Citation locates outside
// records and InferenceRule drives the inference engine. Notes sit beside
// the data for human readers.
//
// Every programmatic constructor returns a sealed node but does not
// validate it. Nodes read from text go through node.FromValue, which does.
package nodes
