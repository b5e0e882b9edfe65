package nodes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// CitationKindTransient marks a citation to something that was never
// recorded, such as an interview or a recollection.
const CitationKindTransient = "TRANSIENT"

// CitationKind describes Citation nodes.
var CitationKind = &node.Kind{
	Name: "Citation",
	Attrs: []node.AttrSpec{
		{Name: "details", Required: true},
		{Name: "kind", Required: true},
	},
}

// Citation identifies where an external source came from. It is
// content-derived: two identical citations are the same node.
type Citation struct {
	node.Base
	details ir.IRObject
	kind    string
}

// NewCitation builds a citation of the given kind from its detail fields.
func NewCitation(kind string, details ir.IRObject) (*Citation, error) {
	c := &Citation{Base: node.NewBase(CitationKind), details: details.Clone(), kind: kind}
	if err := node.Seal(c, uuid.Nil); err != nil {
		return nil, err
	}
	return c, nil
}

func newCitation(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(CitationKind, attrs, lk)
	c := &Citation{
		Base:    node.NewBase(CitationKind),
		details: r.Object("details"),
		kind:    r.String("kind"),
	}
	return c, r.Err()
}

// Details returns a copy of the detail fields.
func (c *Citation) Details() ir.IRObject { return c.details.Clone() }

// CitationKind returns the kind of citation, e.g. CitationKindTransient.
func (c *Citation) CitationKind() string { return c.kind }

// Attr implements node.Node.
func (c *Citation) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "details":
		if c.details == nil {
			return nil, false
		}
		return c.details, true
	case "kind":
		return stringAttr(c.kind)
	}
	return nil, false
}

// Validate implements node.Node. Detail keys must be non-empty, NFC
// normalized, and must not start with "!", white space or a control
// character; values must not be null.
func (c *Citation) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(c, log)
	ok = nonEmpty(log, c.Class(), "kind", c.kind) && ok
	if len(c.details) < 1 {
		log.Addf("Citation: should have at least one detail field")
		ok = false
	}
	for _, key := range c.details.SortedKeys() {
		first, _ := utf8.DecodeRuneInString(key)
		switch {
		case key == "":
			log.Addf("Citation: detail keys should not be empty")
			ok = false
		case strings.HasPrefix(key, "!"):
			log.Addf("Citation: detail key %q should not start with '!'", key)
			ok = false
		case unicode.IsSpace(first):
			log.Addf("Citation: detail key %q should not start with white space", key)
			ok = false
		case unicode.IsControl(first):
			log.Addf("Citation: detail key %q should not start with a control character", key)
			ok = false
		case !norm.NFC.IsNormalString(key):
			log.Addf("Citation: detail key %q should be NFC normalized", key)
			ok = false
		}
		if _, null := c.details[key].(ir.IRNull); null || c.details[key] == nil {
			log.Addf("Citation: detail %q should not be null", key)
			ok = false
		}
	}
	return ok
}

// ExternalSourceKind describes ExternalSource nodes.
var ExternalSourceKind = &node.Kind{
	Name: "ExternalSource",
	Attrs: []node.AttrSpec{
		{Name: "citation", Required: true},
		{Name: "content"},
		{Name: "contentType"},
	},
}

// DefaultContentType is used when an external source does not name one.
const DefaultContentType = "text/plain"

// ExternalSource is a transcription of some outside record, tied to the
// Citation that locates it.
type ExternalSource struct {
	node.Base
	citation    *Citation
	content     string
	contentType string
}

// NewExternalSource builds an external source. An empty contentType means
// DefaultContentType.
func NewExternalSource(citation *Citation, content, contentType string) (*ExternalSource, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}
	s := &ExternalSource{Base: node.NewBase(ExternalSourceKind), citation: citation, content: content, contentType: contentType}
	if err := node.Seal(s, uuid.Nil); err != nil {
		return nil, err
	}
	return s, nil
}

func newExternalSource(attrs ir.IRObject, lk node.Lookup) (node.Node, error) {
	r := node.NewReader(ExternalSourceKind, attrs, lk)
	s := &ExternalSource{
		Base:        node.NewBase(ExternalSourceKind),
		citation:    node.As[*Citation](r, "citation", r.Node("citation")),
		content:     r.String("content"),
		contentType: r.String("contentType"),
	}
	return s, r.Err()
}

// Citation returns the citation locating the source.
func (s *ExternalSource) Citation() *Citation { return s.citation }

// Content returns the transcribed content.
func (s *ExternalSource) Content() string { return s.content }

// ContentType returns the media type of Content, or "" when a decoded
// source names none.
func (s *ExternalSource) ContentType() string { return s.contentType }

func (s *ExternalSource) isSource() {}

// Attr implements node.Node.
func (s *ExternalSource) Attr(name string) (ir.IRValue, bool) {
	switch name {
	case "citation":
		if s.citation == nil {
			return nil, false
		}
		return ir.Ref(s.citation), true
	case "content":
		return stringAttr(s.content)
	case "contentType":
		return stringAttr(s.contentType)
	}
	return nil, false
}

// Validate implements node.Node.
func (s *ExternalSource) Validate(log *node.Log) bool {
	ok := node.CheckIdentity(s, log)
	if s.citation == nil {
		log.Addf("ExternalSource: citation should not be nil")
		ok = false
	}
	return ok
}
