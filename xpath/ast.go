package xpath

import "github.com/arturoeanton/goxmlkit/xmldom"

// Axis names one of the thirteen XPath 1.0 axes an expression step can
// specify.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisParent
	AxisAncestor
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding
	AxisAttribute
	AxisNamespace
	AxisSelf
	AxisDescendantOrSelf
	AxisAncestorOrSelf
)

var axisNames = map[string]Axis{
	"child":               AxisChild,
	"descendant":          AxisDescendant,
	"parent":              AxisParent,
	"ancestor":            AxisAncestor,
	"following-sibling":   AxisFollowingSibling,
	"preceding-sibling":   AxisPrecedingSibling,
	"following":           AxisFollowing,
	"preceding":           AxisPreceding,
	"attribute":           AxisAttribute,
	"namespace":           AxisNamespace,
	"self":                AxisSelf,
	"descendant-or-self":  AxisDescendantOrSelf,
	"ancestor-or-self":    AxisAncestorOrSelf,
}

// forward reports whether the axis enumerates candidates in document
// order (true) or reverse document order (false, per XPath 1.0 §2.3).
func (a Axis) forward() bool {
	switch a {
	case AxisAncestor, AxisAncestorOrSelf, AxisPreceding, AxisPrecedingSibling, AxisParent:
		return false
	default:
		return true
	}
}

// nodeTest decides whether a candidate reached along some axis belongs in
// the step's result, independent of position.
type nodeTest interface {
	matches(n *xmldom.Node, axis Axis) bool
}

// principalIsElement reports whether an axis's principal node type is
// element: true for every axis except attribute (attribute nodes) and
// namespace (namespace nodes, modelled here as attribute-shaped nodes).
func principalIsElement(axis Axis) bool {
	return axis != AxisAttribute && axis != AxisNamespace
}

// wildcardTest is "*", "prefix:*", matching any principal node of the
// step's axis (optionally restricted to a namespace URI).
type wildcardTest struct {
	prefix string // "" for unprefixed "*"
	hasURI bool
	uri    string
}

func (t wildcardTest) matches(n *xmldom.Node, axis Axis) bool {
	if principalIsElement(axis) {
		if n.Type != xmldom.ElementNode {
			return false
		}
	} else if n.Type != xmldom.AttributeNode {
		return false
	}
	if t.hasURI {
		return n.Name.URI == t.uri
	}
	return true
}

// qnameTest is an expanded-QName node test: "local" or "prefix:local".
type qnameTest struct {
	hasURI bool
	uri    string
	local  string
}

func (t qnameTest) matches(n *xmldom.Node, axis Axis) bool {
	if principalIsElement(axis) {
		if n.Type != xmldom.ElementNode {
			return false
		}
	} else if n.Type != xmldom.AttributeNode {
		return false
	}
	if n.Name.Local != t.local {
		return false
	}
	if t.hasURI {
		return n.Name.URI == t.uri
	}
	return n.Name.URI == ""
}

// kindTest is one of node(), text(), comment(), processing-instruction()
// or processing-instruction('literal').
type kindTest struct {
	kind    nodeKind // kindAny for node()
	piLit   string
	piLitOK bool
}

type nodeKind int

const (
	kindAny nodeKind = iota
	kindText
	kindComment
	kindPI
)

func (t kindTest) matches(n *xmldom.Node, axis Axis) bool {
	switch t.kind {
	case kindAny:
		return true
	case kindText:
		return n.Type == xmldom.TextNode || n.Type == xmldom.CDATANode
	case kindComment:
		return n.Type == xmldom.CommentNode
	case kindPI:
		if n.Type != xmldom.PINode {
			return false
		}
		if t.piLitOK {
			return n.Name.Local == t.piLit
		}
		return true
	}
	return false
}

// step is one location step: an axis, a node test, and zero or more
// predicates evaluated left to right against the axis's candidate set.
type step struct {
	axis  Axis
	test  nodeTest
	preds []expr
}

// locationPath is a (possibly absolute) sequence of location steps,
// joined by '/' or '//' (the latter expands to
// descendant-or-self::node()/ per the abbreviation rule, so by
// the time a locationPath reaches eval.go every join is a plain child
// step).
type locationPath struct {
	absolute bool
	steps    []step
}

// expr is any XPath expression tree node: each knows how to evaluate
// itself against a context.
type expr interface {
	eval(ctx *evalContext) (Value, error)
}

type literalString string
type literalNumber float64

type variableRef struct{ name string }

type functionCall struct {
	name string
	args []expr
}

type unaryMinus struct{ x expr }

type binOp int

const (
	opOr binOp = iota
	opAnd
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opUnion
)

type binaryExpr struct {
	op   binOp
	l, r expr
}

// filterExpr is PrimaryExpr Predicate* optionally followed by a relative
// path continuing from its result (FilterExpr '/' RelativeLocationPath in
// the grammar): e.g. "$nodes[1]/child".
type filterExpr struct {
	primary expr
	preds   []expr
	// tail, if non-nil, is a relative locationPath stepped from the
	// filtered result (each node therein becoming a context node).
	tail *locationPath
}
