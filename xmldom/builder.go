package xmldom

import (
	"github.com/arturoeanton/goxmlkit/internal/dtd"
	"github.com/arturoeanton/goxmlkit/internal/parser"
)

// Builder is the default SAX-to-DOM consumer ("default SAX-
// consuming DOM builder"), grounded on moznion-helium's TreeBuilder
// (tree.go): a stack of in-progress element nodes, the top of which
// receives each new child as it arrives.
type Builder struct {
	doc   *Document
	stack []*Node
	idAttrs map[string]map[string]bool // element local name -> set of attribute local names declared ID
	pendingNS map[string]string // xmlns bindings reported for the next StartElement
}

// NewBuilder returns a Builder ready to receive events for a fresh
// document. model, if non-nil, is consulted to recognize ID-typed
// attributes as events arrive.
func NewBuilder(model *dtd.Model) *Builder {
	b := &Builder{doc: New()}
	if model != nil {
		b.doc.DocType = model
	}
	return b
}

// Document returns the tree built so far; call after EndDocument for the
// completed result.
func (b *Builder) Document() *Document { return b.doc }

func (b *Builder) top() *Node {
	if len(b.stack) == 0 {
		return b.doc.Root
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) StartDocument() error { return nil }
func (b *Builder) EndDocument() error   { return nil }

func (b *Builder) StartNamespace(prefix, uri string) error {
	if b.pendingNS == nil {
		b.pendingNS = make(map[string]string)
	}
	b.pendingNS[prefix] = uri
	return nil
}
func (b *Builder) EndNamespace(prefix string) error        { return nil }

func (b *Builder) StartElement(name parser.Name, attrs []parser.Attr) error {
	el := NewElement(QName{Prefix: name.Prefix, Local: name.Local, URI: name.URI})
	for prefix, uri := range b.pendingNS {
		el.DeclareNamespace(prefix, uri)
	}
	b.pendingNS = nil
	for _, a := range attrs {
		el.SetAttrQName(QName{Prefix: a.Name.Prefix, Local: a.Name.Local, URI: a.Name.URI}, a.Value)
		if b.isIDAttr(name.Local, a.Name.Local) {
			b.doc.RegisterID(a.Value, el)
		}
	}
	b.top().AppendChild(el)
	b.stack = append(b.stack, el)
	return nil
}

func (b *Builder) EndElement(name parser.Name) error {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return nil
}

func (b *Builder) Characters(text string) error {
	parent := b.top()
	if n := len(parent.Children); n > 0 && parent.Children[n-1].Type == TextNode {
		parent.Children[n-1].Data += text
		return nil
	}
	parent.AppendChild(NewText(text))
	return nil
}

func (b *Builder) CDATA(text string) error {
	b.top().AppendChild(NewCDATA(text))
	return nil
}

func (b *Builder) Comment(text string) error {
	b.top().AppendChild(NewComment(text))
	return nil
}

func (b *Builder) ProcessingInstruction(target, data string) error {
	b.top().AppendChild(NewPI(target, data))
	return nil
}

func (b *Builder) Doctype(name, publicID, systemID string) error { return nil }

func (b *Builder) isIDAttr(elem, attr string) bool {
	if b.doc.DocType == nil {
		return false
	}
	for _, ad := range b.doc.DocType.Attributes(elem) {
		if ad.Name == attr {
			return ad.Type == dtd.ID
		}
	}
	return false
}

var _ parser.Handler = (*Builder)(nil)
