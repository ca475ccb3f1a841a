package xmldom

import "github.com/arturoeanton/goxmlkit/internal/dtd"

// Document wraps a parsed document's root node together with the
// information a DOM needs beyond the tree itself: the retained DTD (for
// re-validation or inspection), the ID table XPath's id() consults, and
// the document's declared or detected encoding.
type Document struct {
	Root     *Node // DocumentNode; Root.Element() is the document element
	DocType  *dtd.Model
	Encoding string
	Standalone bool

	ids map[string]*Node
}

// New creates an empty Document with a fresh root container node.
func New() *Document {
	return &Document{Root: NewDocument(), ids: make(map[string]*Node)}
}

// Element returns the document element, or nil if none has been set yet.
func (d *Document) Element() *Node { return d.Root.Element() }

// RegisterID records that element carries the given ID-typed attribute
// value, so xpath's id() can resolve it in O(1). A duplicate ID overwrites
// the previous binding, matching "last one wins" for malformed-but-parsed
// documents in non-validating mode.
func (d *Document) RegisterID(id string, element *Node) {
	if d.ids == nil {
		d.ids = make(map[string]*Node)
	}
	d.ids[id] = element
}

// ElementByID resolves an ID attribute value to its element, per the
// id table XPath's id() function consults.
func (d *Document) ElementByID(id string) (*Node, bool) {
	n, ok := d.ids[id]
	return n, ok
}

// Clone produces an independent copy of the whole document, including an
// ID table re-pointed at the cloned tree rather than the original.
func (d *Document) Clone() *Document {
	clonedRoot := d.Root.Clone()
	c := &Document{Root: clonedRoot, DocType: d.DocType, Encoding: d.Encoding, Standalone: d.Standalone, ids: make(map[string]*Node, len(d.ids))}

	origByPos := make(map[*Node]string, len(d.ids))
	for id, n := range d.ids {
		origByPos[n] = id
	}
	var walk func(orig, clone *Node)
	walk = func(orig, clone *Node) {
		if id, ok := origByPos[orig]; ok {
			c.ids[id] = clone
		}
		for i, och := range orig.Children {
			walk(och, clone.Children[i])
		}
	}
	walk(d.Root, clonedRoot)
	return c
}

// Equal reports whether two documents are structurally equal: same
// document element tree, ignoring DocType/Encoding
// bookkeeping which are not part of the DOM's observable structure.
func (d *Document) Equal(o *Document) bool {
	return d.Root.Equal(o.Root)
}
