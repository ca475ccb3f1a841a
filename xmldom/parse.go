package xmldom

import (
	"io"

	"github.com/arturoeanton/goxmlkit/internal/parser"
	"github.com/arturoeanton/goxmlkit/xmlopt"
)

// Parse reads a complete document from r and builds it into a Document,
// wiring a Builder up to the parser the way every caller of this module
// that wants a DOM rather than raw SAX events needs to.
func Parse(r io.Reader, opts ...xmlopt.ParseOption) (*Document, error) {
	b := NewBuilder(nil)
	model, err := parser.Parse(r, b, opts...)
	if err != nil {
		return nil, err
	}
	doc := b.Document()
	doc.DocType = model
	return doc, nil
}
