// Package xmldom implements a mutable DOM: a
// tagged-variant node tree (element/text/cdata/comment/pi/attribute) with
// ordered children and attributes, parent back-references, and
// clone/move/equals operations. Grounded on
// moznion-helium's TreeBuilder (tree.go) for the SAX-to-DOM construction
// shape and on original_source/include/zeep/xml/node.hpp for the node
// operation surface (str, lang, clone, move_to_namespace).
package xmldom

import "strings"

// NodeType tags the variant a Node holds.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CDATANode
	CommentNode
	PINode
	AttributeNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CDATANode:
		return "cdata"
	case CommentNode:
		return "comment"
	case PINode:
		return "processing-instruction"
	case AttributeNode:
		return "attribute"
	default:
		return "unknown"
	}
}

// QName is a namespace-qualified name: a local part, the prefix it was
// written with (informational only — identity is by URI+Local), and the
// namespace URI resolved for that prefix ("" for no namespace).
type QName struct {
	Prefix string
	Local  string
	URI    string
}

// String renders the name the way it was (or would be) written: prefix
// colon local, or bare local when there is no prefix.
func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// Equal compares qualified names by namespace URI and local part, per
// the Namespaces in XML identity rule — prefixes are cosmetic.
func (q QName) Equal(o QName) bool { return q.URI == o.URI && q.Local == o.Local }

// Node is one node of the DOM tree. Which fields are meaningful depends
// on Type: Name/Attrs/nsDecls/Children for ElementNode, Data for
// Text/CDATA/Comment, Name.Local+Data for PINode (target/data), Name+Data
// for AttributeNode.
type Node struct {
	Type     NodeType
	Name     QName
	Data     string
	Parent   *Node
	Children []*Node

	attrs   *attrList
	nsDecls map[string]string // prefix ("" = default) -> URI, declared directly on this element
}

// NewElement creates a detached element node.
func NewElement(name QName) *Node {
	return &Node{Type: ElementNode, Name: name, attrs: newAttrList()}
}

// NewText, NewCDATA, NewComment create detached leaf character-data nodes.
func NewText(s string) *Node    { return &Node{Type: TextNode, Data: s} }
func NewCDATA(s string) *Node   { return &Node{Type: CDATANode, Data: s} }
func NewComment(s string) *Node { return &Node{Type: CommentNode, Data: s} }

// NewPI creates a detached processing-instruction node; target is stored
// in Name.Local, the instruction data in Data.
func NewPI(target, data string) *Node {
	return &Node{Type: PINode, Name: QName{Local: target}, Data: data}
}

// NewDocument creates an empty document node, which may hold at most one
// element child (the document element) alongside comment/PI misc nodes.
func NewDocument() *Node { return &Node{Type: DocumentNode} }

// IsElement, IsText report the node's variant for the common cases.
func (n *Node) IsElement() bool { return n.Type == ElementNode }
func (n *Node) IsText() bool    { return n.Type == TextNode || n.Type == CDATANode }

// AppendChild appends c as the last child of n, setting c.Parent and
// detaching c from any previous parent first.
func (n *Node) AppendChild(c *Node) {
	c.removeFromParent()
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertBefore inserts c immediately before ref among n's children; if
// ref is nil or not found, c is appended.
func (n *Node) InsertBefore(c, ref *Node) {
	c.removeFromParent()
	c.Parent = n
	if ref == nil {
		n.Children = append(n.Children, c)
		return
	}
	for i, ch := range n.Children {
		if ch == ref {
			n.Children = append(n.Children[:i], append([]*Node{c}, n.Children[i:]...)...)
			return
		}
	}
	n.Children = append(n.Children, c)
}

// RemoveChild detaches c from n's children, if present.
func (n *Node) RemoveChild(c *Node) {
	for i, ch := range n.Children {
		if ch == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

func (n *Node) removeFromParent() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Element returns the document's single document-element child, or nil.
func (n *Node) Element() *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// ChildElements returns n's element children, in document order.
func (n *Node) ChildElements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildElement returns the first element child whose local name is
// local, in any namespace, or nil.
func (n *Node) FirstChildElement(local string) *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode && c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Str concatenates this node's descendant text and CDATA content in
// document order (zeep's node::str / XPath string-value of a node).
func (n *Node) Str() string {
	var sb strings.Builder
	collectText(n, &sb)
	return sb.String()
}

func collectText(n *Node, sb *strings.Builder) {
	switch n.Type {
	case TextNode, CDATANode:
		sb.WriteString(n.Data)
	case AttributeNode:
		sb.WriteString(n.Data)
	default:
		for _, c := range n.Children {
			collectText(c, sb)
		}
	}
}

// Lang returns the nearest ancestor-or-self xml:lang value, or "" if none
// is in scope.
func (n *Node) Lang() string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != ElementNode {
			continue
		}
		if v, ok := cur.Attr("xml", "lang"); ok {
			return v
		}
	}
	return ""
}

// Root returns the outermost ancestor of n (the document, if n is rooted
// under one).
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Depth returns the number of ancestors between n and its root, 0 for a
// root node.
func (n *Node) Depth() int {
	d := 0
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}
