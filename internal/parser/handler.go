package parser

// Name is a namespace-qualified name as reported to a Handler: the
// prefix actually written, its resolved local part, and the namespace
// URI the binding stack resolved it to ("" for no namespace). Kept
// independent of xmldom.QName so this package has no dependency on the
// DOM it feeds ("SAX-style handler contract").
type Name struct {
	Prefix string
	Local  string
	URI    string
}

// Attr is one resolved, defaulted and normalized attribute, reported in
// declaration order (explicit attributes first in document order,
// followed by any DTD defaults the element did not supply itself).
type Attr struct {
	Name    Name
	Value   string
	Defaulted bool // true if supplied by a DTD default rather than written
}

// Handler receives the stream of parse events, in document order. It
// mirrors a classic SAX content handler, adapted to report namespace
// bindings as their own events rather than folding
// xmlns:* pseudo-attributes into the ordinary attribute list.
type Handler interface {
	StartDocument() error
	EndDocument() error

	StartNamespace(prefix, uri string) error
	EndNamespace(prefix string) error

	StartElement(name Name, attrs []Attr) error
	EndElement(name Name) error

	Characters(text string) error
	CDATA(text string) error
	Comment(text string) error
	ProcessingInstruction(target, data string) error

	// Doctype is reported once, after the internal subset (if any) has
	// been fully parsed; the compiled model itself is returned by Parse.
	Doctype(name, publicID, systemID string) error
}

// NopHandler implements Handler with no-ops, for embedding by handlers
// that only care about a few event kinds.
type NopHandler struct{}

func (NopHandler) StartDocument() error                            { return nil }
func (NopHandler) EndDocument() error                              { return nil }
func (NopHandler) StartNamespace(prefix, uri string) error         { return nil }
func (NopHandler) EndNamespace(prefix string) error                { return nil }
func (NopHandler) StartElement(name Name, attrs []Attr) error      { return nil }
func (NopHandler) EndElement(name Name) error                      { return nil }
func (NopHandler) Characters(text string) error                    { return nil }
func (NopHandler) CDATA(text string) error                         { return nil }
func (NopHandler) Comment(text string) error                       { return nil }
func (NopHandler) ProcessingInstruction(target, data string) error { return nil }
func (NopHandler) Doctype(name, publicID, systemID string) error   { return nil }
