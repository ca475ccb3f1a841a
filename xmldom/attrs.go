package xmldom

// attrList is an insertion-ordered set of attribute nodes keyed by
// namespace URI + local name, reusing arturoeanton-go-xml's OrderedMap idiom
// (xml/map.go: a key slice alongside a map) so serialization reproduces
// the declaration order the parser saw.
type attrList struct {
	order []QName
	byKey map[string]*Node
}

func newAttrList() *attrList {
	return &attrList{byKey: make(map[string]*Node)}
}

func attrKey(q QName) string { return q.URI + "\x00" + q.Local }

// Set adds or replaces the attribute named name with value v, preserving
// the original position on replace.
func (a *attrList) Set(name QName, v string) {
	k := attrKey(name)
	if n, ok := a.byKey[k]; ok {
		n.Data = v
		return
	}
	a.order = append(a.order, name)
	a.byKey[k] = &Node{Type: AttributeNode, Name: name, Data: v}
}

func (a *attrList) Get(uri, local string) (*Node, bool) {
	n, ok := a.byKey[uri+"\x00"+local]
	return n, ok
}

func (a *attrList) Remove(uri, local string) {
	k := uri + "\x00" + local
	if _, ok := a.byKey[k]; !ok {
		return
	}
	delete(a.byKey, k)
	for i, q := range a.order {
		if q.URI == uri && q.Local == local {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

// All returns the attribute nodes in declaration order.
func (a *attrList) All() []*Node {
	out := make([]*Node, len(a.order))
	for i, q := range a.order {
		out[i] = a.byKey[attrKey(q)]
	}
	return out
}

func (a *attrList) clone() *attrList {
	c := newAttrList()
	for _, n := range a.All() {
		c.order = append(c.order, n.Name)
		c.byKey[attrKey(n.Name)] = &Node{Type: AttributeNode, Name: n.Name, Data: n.Data}
	}
	return c
}

// SetAttr sets an attribute by namespace URI, local name and value,
// creating the element's attribute list on first use.
func (n *Node) SetAttr(uri, local, value string) {
	if n.attrs == nil {
		n.attrs = newAttrList()
	}
	n.attrs.Set(QName{Local: local, URI: uri}, value)
}

// SetAttrQName is SetAttr taking a full QName (so the original prefix is
// preserved for round-tripping through the writer).
func (n *Node) SetAttrQName(name QName, value string) {
	if n.attrs == nil {
		n.attrs = newAttrList()
	}
	n.attrs.Set(name, value)
}

// Attr looks up an attribute by namespace URI and local name.
func (n *Node) Attr(uri, local string) (string, bool) {
	if n.attrs == nil {
		return "", false
	}
	a, ok := n.attrs.Get(uri, local)
	if !ok {
		return "", false
	}
	return a.Data, true
}

// AttrNode returns the attribute Node itself, for callers that need its
// QName (prefix included) as well as its value.
func (n *Node) AttrNode(uri, local string) (*Node, bool) {
	if n.attrs == nil {
		return nil, false
	}
	return n.attrs.Get(uri, local)
}

// RemoveAttr removes an attribute by namespace URI and local name.
func (n *Node) RemoveAttr(uri, local string) {
	if n.attrs != nil {
		n.attrs.Remove(uri, local)
	}
}

// Attrs returns the element's attributes in declaration order.
func (n *Node) Attrs() []*Node {
	if n.attrs == nil {
		return nil
	}
	return n.attrs.All()
}

// DeclareNamespace binds prefix ("" for the default namespace) to uri on
// this element, recorded separately from ordinary attributes the way the
// parser splits xmlns declarations from the namespace-qualified attribute
// set before user code ever sees them.
func (n *Node) DeclareNamespace(prefix, uri string) {
	if n.nsDecls == nil {
		n.nsDecls = make(map[string]string)
	}
	n.nsDecls[prefix] = uri
}

// NamespaceDecls returns the prefix->URI bindings declared directly on
// this element (not inherited ones).
func (n *Node) NamespaceDecls() map[string]string { return n.nsDecls }

// LookupNamespaceURI resolves prefix ("" for the default namespace) by
// walking up from n through ancestor elements, per the xmlns binding
// stack.
func (n *Node) LookupNamespaceURI(prefix string) (string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != ElementNode {
			continue
		}
		if uri, ok := cur.nsDecls[prefix]; ok {
			return uri, true
		}
	}
	if prefix == "xml" {
		return "http://www.w3.org/XML/1998/namespace", true
	}
	return "", false
}

// LookupPrefix is the inverse of LookupNamespaceURI: find a prefix bound
// to uri that is in scope at n, preferring the innermost binding.
func (n *Node) LookupPrefix(uri string) (string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != ElementNode {
			continue
		}
		for p, u := range cur.nsDecls {
			if u == uri {
				return p, true
			}
		}
	}
	return "", false
}
