package nodes

import (
	"github.com/roach88/polygenea/internal/node"
)

// Constructors are attached here rather than in the Kind literals because
// they refer back to the Kinds.
func init() {
	CitationKind.New = newCitation
	ExternalSourceKind.New = newExternalSource
	InferenceKind.New = newInference
	InferenceRuleKind.New = newInferenceRule
	ThingKind.New = newThing
	MatchKind.New = newMatch
	PropertyKind.New = newProperty
	ConnectionKind.New = newConnection
	GroupingKind.New = newGrouping
	NoteKind.New = newNote
	ConnectingNoteKind.New = newConnectingNote
}

// Kinds returns the built-in catalog.
func Kinds() []*node.Kind {
	return []*node.Kind{
		CitationKind,
		ExternalSourceKind,
		InferenceKind,
		InferenceRuleKind,
		ThingKind,
		MatchKind,
		PropertyKind,
		ConnectionKind,
		GroupingKind,
		NoteKind,
		ConnectingNoteKind,
	}
}

// NewRegistry returns a registry holding the built-in catalog. Callers may
// register further variants on it.
func NewRegistry() *node.Registry {
	return node.NewRegistry(Kinds()...)
}
