// Package xpath implements an XPath 1.0 engine: a
// compiler (lexer, abbreviation expansion, recursive-descent parser with
// standard operator precedence) and an evaluator operating over
// *xmldom.Node trees. Grounded on arturoeanton-go-xml's own path-query engine
// (xml/query.go's QueryAll: path segments split and matched one at a
// time, "//" triggering a recursive deep search, "[...]" introducing a
// filter) generalized from ad hoc map-key matching into the real XPath
// 1.0 grammar and node-set/boolean/number/string object model, and on
// antchfx/xmlquery and beevik/etree (other_examples) for the
// axis/node-set evaluation shape a Go XPath engine over a tree takes.
package xpath

import "github.com/arturoeanton/goxmlkit/xmldom"

// Expr is a compiled XPath expression, safe to evaluate repeatedly and
// concurrently against different contexts since evaluation never mutates
// the expression tree.
type Expr struct {
	ast expr
}

// EvalValue evaluates the expression in ctx relative to root, returning
// the raw typed result (node-set, boolean, number or string) rather than
// coercing it — the primitive the three convenience methods below build
// on, and the right call for boolean()/number()/string()-shaped uses.
func (e *Expr) EvalValue(root *xmldom.Node, ctx *Context) (Value, error) {
	if ctx == nil {
		ctx = NewContext(root)
	}
	ec := &evalContext{
		root:     root,
		node:     ctx.Node,
		position: ctx.Position,
		size:     ctx.Size,
		vars:     ctx.Variables,
		doc:      ctx.Doc,
	}
	if ec.node == nil {
		ec.node = root
	}
	if ec.vars == nil {
		ec.vars = map[string]Value{}
	}
	if ec.size == 0 {
		ec.size = 1
	}
	if ec.position == 0 {
		ec.position = 1
	}
	return e.ast.eval(ec)
}

// Evaluate runs the expression and returns its result as a node-set: root
// anchors the expression's absolute location paths and id(), ctx supplies
// the context node, position/size and variable bindings. An expression
// that does not yield a node-set (e.g. a union of non-node-sets) reports
// XPathType.
func (e *Expr) Evaluate(root *xmldom.Node, ctx *Context) ([]*xmldom.Node, error) {
	v, err := e.EvalValue(root, ctx)
	if err != nil {
		return nil, err
	}
	return v.ToNodeSet()
}

// EvaluateElements is Evaluate filtered down to element nodes.
func (e *Expr) EvaluateElements(root *xmldom.Node, ctx *Context) ([]*xmldom.Node, error) {
	nodes, err := e.Evaluate(root, ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*xmldom.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == xmldom.ElementNode {
			out = append(out, n)
		}
	}
	return out, nil
}

// Matches reports whether node is a member of the result of evaluating
// the expression with root and context both set to node.Root().
func (e *Expr) Matches(node *xmldom.Node) (bool, error) {
	root := node.Root()
	nodes, err := e.Evaluate(root, NewContext(root))
	if err != nil {
		return false, err
	}
	for _, n := range nodes {
		if n == node {
			return true, nil
		}
	}
	return false, nil
}

// Find compiles expression and evaluates it, returning elements only.
func Find(root *xmldom.Node, expression string, namespaces map[string]string) ([]*xmldom.Node, error) {
	expr, err := Compile(expression, namespaces)
	if err != nil {
		return nil, err
	}
	return expr.EvaluateElements(root, NewContext(root))
}

// FindFirst is Find, returning only the first match (or nil if none).
func FindFirst(root *xmldom.Node, expression string, namespaces map[string]string) (*xmldom.Node, error) {
	nodes, err := Find(root, expression, namespaces)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}
