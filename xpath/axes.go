package xpath

import (
	"sort"

	"github.com/arturoeanton/goxmlkit/xmldom"
)

// nodeKey positions n for document-order comparison: a path of child
// indices from the document root down to n. Attribute nodes (which
// xmldom does not thread into the Children tree) sort immediately after
// their owning element and before its children, using ensureAttrParent to
// give them a Parent to walk up from — an attribute is owned by exactly
// one element and was never meant to be shared, so recording that
// ownership on first visit has no other observable effect.
func nodeKey(n *xmldom.Node) []int {
	if n.Type == xmldom.AttributeNode {
		owner := n.Parent
		if owner == nil {
			return []int{-1}
		}
		base := nodeKey(owner)
		idx := 0
		for i, a := range owner.Attrs() {
			if a == n {
				idx = i
				break
			}
		}
		return append(append([]int{}, base...), -2, idx)
	}
	if n.Parent == nil {
		return []int{}
	}
	idx := -1
	for i, c := range n.Parent.Children {
		if c == n {
			idx = i
			break
		}
	}
	return append(nodeKey(n.Parent), idx)
}

func keyLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// docOrderLess reports whether a precedes b in document order.
func docOrderLess(a, b *xmldom.Node) bool { return keyLess(nodeKey(a), nodeKey(b)) }

// sortUnique orders a node-set into document order and removes duplicate
// pointers, the invariant every axis and union result must uphold.
func sortUnique(nodes []*xmldom.Node) []*xmldom.Node {
	seen := make(map[*xmldom.Node]bool, len(nodes))
	out := make([]*xmldom.Node, 0, len(nodes))
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return docOrderLess(out[i], out[j]) })
	return out
}

func ensureAttrParent(owner, attr *xmldom.Node) {
	if attr.Parent == nil {
		attr.Parent = owner
	}
}

// axisNodes enumerates every candidate reachable along axis from ctx, in
// the axis's own order (document order for forward axes, reverse document
// order for reverse axes, per XPath 1.0 §2.3) — callers needing
// position()/last() semantics within a step rely on this order before any
// node-test/predicate filtering is applied.
func axisNodes(ctx *xmldom.Node, axis Axis) []*xmldom.Node {
	switch axis {
	case AxisSelf:
		return []*xmldom.Node{ctx}
	case AxisChild:
		return append([]*xmldom.Node{}, ctx.Children...)
	case AxisAttribute:
		attrs := ctx.Attrs()
		for _, a := range attrs {
			ensureAttrParent(ctx, a)
		}
		return attrs
	case AxisNamespace:
		return namespaceNodes(ctx)
	case AxisParent:
		if ctx.Parent == nil {
			return nil
		}
		return []*xmldom.Node{ctx.Parent}
	case AxisAncestor:
		var out []*xmldom.Node
		for cur := ctx.Parent; cur != nil; cur = cur.Parent {
			out = append(out, cur)
		}
		return out
	case AxisAncestorOrSelf:
		out := []*xmldom.Node{ctx}
		for cur := ctx.Parent; cur != nil; cur = cur.Parent {
			out = append(out, cur)
		}
		return out
	case AxisDescendant:
		var out []*xmldom.Node
		collectDescendants(ctx, &out)
		return out
	case AxisDescendantOrSelf:
		out := []*xmldom.Node{ctx}
		collectDescendants(ctx, &out)
		return out
	case AxisFollowingSibling:
		return siblings(ctx, true)
	case AxisPrecedingSibling:
		return siblings(ctx, false)
	case AxisFollowing:
		return followingOrPreceding(ctx, true)
	case AxisPreceding:
		return followingOrPreceding(ctx, false)
	}
	return nil
}

func collectDescendants(n *xmldom.Node, out *[]*xmldom.Node) {
	for _, c := range n.Children {
		*out = append(*out, c)
		collectDescendants(c, out)
	}
}

func siblings(ctx *xmldom.Node, after bool) []*xmldom.Node {
	if ctx.Parent == nil {
		return nil
	}
	sibs := ctx.Parent.Children
	idx := -1
	for i, c := range sibs {
		if c == ctx {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var out []*xmldom.Node
	if after {
		out = append(out, sibs[idx+1:]...)
	} else {
		for i := idx - 1; i >= 0; i-- {
			out = append(out, sibs[i])
		}
	}
	return out
}

// followingOrPreceding walks the whole document in (reverse) document
// order, skipping ctx's own ancestors and descendants, per XPath 1.0's
// definition of the following/preceding axes.
func followingOrPreceding(ctx *xmldom.Node, following bool) []*xmldom.Node {
	root := ctx.Root()
	var all []*xmldom.Node
	collectDescendants(root, &all)
	all = append(all, root)

	isAncestorOrSelf := func(n *xmldom.Node) bool {
		for cur := ctx; cur != nil; cur = cur.Parent {
			if cur == n {
				return true
			}
		}
		return false
	}
	isDescendant := func(n *xmldom.Node) bool {
		for cur := n.Parent; cur != nil; cur = cur.Parent {
			if cur == ctx {
				return true
			}
		}
		return false
	}

	sort.Slice(all, func(i, j int) bool { return docOrderLess(all[i], all[j]) })
	var out []*xmldom.Node
	ctxKey := nodeKey(ctx)
	for _, n := range all {
		if isAncestorOrSelf(n) || isDescendant(n) {
			continue
		}
		if following && keyLess(ctxKey, nodeKey(n)) {
			out = append(out, n)
		}
		if !following && keyLess(nodeKey(n), ctxKey) {
			out = append(out, n)
		}
	}
	if !following {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// namespaceNodes synthesizes one attribute-shaped node per in-scope
// namespace binding (xmldom has no dedicated namespace-node variant, and
// none of this module's callers need more than Name.Local=prefix,
// Data=uri from one) — the namespace axis enumerates xmlns[:p]
// attributes on an element.
func namespaceNodes(ctx *xmldom.Node) []*xmldom.Node {
	seen := map[string]bool{}
	var out []*xmldom.Node
	for cur := ctx; cur != nil; cur = cur.Parent {
		if cur.Type != xmldom.ElementNode {
			continue
		}
		for prefix, uri := range cur.NamespaceDecls() {
			if seen[prefix] {
				continue
			}
			seen[prefix] = true
			out = append(out, &xmldom.Node{
				Type:   xmldom.AttributeNode,
				Name:   xmldom.QName{Local: prefix},
				Data:   uri,
				Parent: ctx,
			})
		}
	}
	if !seen["xml"] {
		out = append(out, &xmldom.Node{
			Type:   xmldom.AttributeNode,
			Name:   xmldom.QName{Local: "xml"},
			Data:   "http://www.w3.org/XML/1998/namespace",
			Parent: ctx,
		})
	}
	return out
}
