package nodes

import (
	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// NoteKind describes Note nodes.
var NoteKind = &node.Kind{
	Name: "Note",
	Attrs: []node.AttrSpec{
		{Name: "about", Required: true},
		{Name: "content", Required: true},
		{Name: "creator"},
	},
}

// Note is a short human-targeted remark attached to any node. Notes sit
// outside the researched data: they carry a creator instead of a source.
type Note struct {
	node.Base
	about   node.Node
	content string
	creator string
}

// NewNote builds a note. An empty creator means an anonymous note.
func NewNote(about node.Node, content, creator string) (*Note, error) {
	n := &Note{Base: node.NewBase(NoteKind), about: about, content: content, creator: creator}
	if err := node.Seal(n, uuid.Nil); err != nil {
		return nil, err
	}
	return n, nil
}

func newNote(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(NoteKind, attrs, lk)
	n := &Note{
		Base:    node.NewBase(NoteKind),
		about:   r.Node("about"),
		content: r.String("content"),
		creator: r.String("creator"),
	}
	return n, r.Err()
}

// About returns the annotated node.
func (n *Note) About() node.Node { return n.about }

// Content returns the remark.
func (n *Note) Content() string { return n.content }

// Creator returns who wrote the note, "" if anonymous.
func (n *Note) Creator() string { return n.creator }

// Attr implements node.Node.
func (n *Note) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "about":
		if n.about == nil {
			return nil, false
		}
		return ir.Ref(n.about), true
	case "content":
		return stringAttr(n.content)
	case "creator":
		return stringAttr(n.creator)
	}
	return nil, false
}

// Validate implements node.Node.
func (n *Note) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(n, log)
	if n.about == nil {
		log.Addf("Note: must be about some node")
		ok = false
	}
	return nonEmpty(log, n.Class(), "content", n.content) && ok
}

// ConnectingNoteKind describes ConnectingNote nodes.
var ConnectingNoteKind = &node.Kind{
	Name: "ConnectingNote",
	Attrs: []node.AttrSpec{
		{Name: "subject", Required: true},
		{Name: "object", Required: true},
		{Name: "relation", Required: true},
		{Name: "creator"},
	},
}

// ConnectingNote is the note counterpart of Connection: a directed relation
// between any two nodes, claims or not, aimed at human readers.
type ConnectingNote struct {
	node.Base
	subject  node.Node
	object   node.Node
	relation string
	creator  string
}

// NewConnectingNote builds a connecting note. An empty creator means an
// anonymous note.
func NewConnectingNote(subject, object node.Node, relation, creator string) (*ConnectingNote, error) {
	n := &ConnectingNote{
		Base:     node.NewBase(ConnectingNoteKind),
		subject:  subject,
		object:   object,
		relation: relation,
		creator:  creator,
	}
	if err := node.Seal(n, uuid.Nil); err != nil {
		return nil, err
	}
	return n, nil
}

func newConnectingNote(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(ConnectingNoteKind, attrs, lk)
	n := &ConnectingNote{
		Base:     node.NewBase(ConnectingNoteKind),
		subject:  r.Node("subject"),
		object:   r.Node("object"),
		relation: r.String("relation"),
		creator:  r.String("creator"),
	}
	return n, r.Err()
}

// Subject returns the described node.
func (n *ConnectingNote) Subject() node.Node { return n.subject }

// Object returns the describing node.
func (n *ConnectingNote) Object() node.Node { return n.object }

// Relation names the relation.
func (n *ConnectingNote) Relation() string { return n.relation }

// Creator returns who wrote the note, "" if anonymous.
func (n *ConnectingNote) Creator() string { return n.creator }

// Attr implements node.Node.
func (n *ConnectingNote) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "subject":
		if n.subject == nil {
			return nil, false
		}
		return ir.Ref(n.subject), true
	case "object":
		if n.object == nil {
			return nil, false
		}
		return ir.Ref(n.object), true
	case "relation":
		return stringAttr(n.relation)
	case "creator":
		return stringAttr(n.creator)
	}
	return nil, false
}

// Validate implements node.Node.
func (n *ConnectingNote) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(n, log)
	if n.subject == nil {
		log.Addf("ConnectingNote: subject should not be nil")
		ok = false
	}
	if n.object == nil {
		log.Addf("ConnectingNote: object should not be nil")
		ok = false
	}
	return nonEmpty(log, n.Class(), "relation", n.relation) && ok
}
