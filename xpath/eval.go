package xpath

import (
	"math"

	"github.com/arturoeanton/goxmlkit/xmldom"
)

// evalContext is the expression evaluation context: the
// current node, the current node-set's size and this node's position
// within it (for position()/last()), the root the expression's absolute
// paths anchor to, and the host-supplied variable bindings. Kept separate
// from the exported Context so internal step/predicate evaluation can
// build throwaway contexts freely without exposing evalContext's plumbing.
type evalContext struct {
	root     *xmldom.Node
	node     *xmldom.Node
	position int
	size     int
	vars     map[string]Value
	doc      *xmldom.Document // optional, enables id() resolution
}

// Context is the host-facing expression context: the node an expression
// evaluates relative to, together with a variable binding map reached
// through $name references, with typed setters for the core XPath types.
type Context struct {
	Node      *xmldom.Node
	Position  int
	Size      int
	Variables map[string]Value
	// Doc, if set, is consulted by id() to resolve ID-typed attribute
	// values; left nil, id() always yields an empty node-set (a
	// documented simplification — see DESIGN.md).
	Doc *xmldom.Document
}

// NewContext builds a Context whose current node is node, at position 1
// of a singleton current node-set, with no variable bindings.
func NewContext(node *xmldom.Node) *Context {
	return &Context{Node: node, Position: 1, Size: 1, Variables: map[string]Value{}}
}

// SetString, SetNumber, SetBoolean, SetNodeSet bind name to a typed
// value, reachable from the expression as $name.
func (c *Context) SetString(name, v string)            { c.Variables[name] = stringValue(v) }
func (c *Context) SetNumber(name string, v float64)     { c.Variables[name] = numberValue(v) }
func (c *Context) SetBoolean(name string, v bool)       { c.Variables[name] = boolValue(v) }
func (c *Context) SetNodeSet(name string, v []*xmldom.Node) { c.Variables[name] = nodeSetValue(v) }

func (l literalString) eval(ctx *evalContext) (Value, error) { return stringValue(string(l)), nil }
func (n literalNumber) eval(ctx *evalContext) (Value, error) { return numberValue(float64(n)), nil }

func (v variableRef) eval(ctx *evalContext) (Value, error) {
	val, ok := ctx.vars[v.name]
	if !ok {
		return Value{}, undefinedVariable(v.name)
	}
	return val, nil
}

func (u unaryMinus) eval(ctx *evalContext) (Value, error) {
	v, err := u.x.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return numberValue(-v.ToNumber()), nil
}

func (b binaryExpr) eval(ctx *evalContext) (Value, error) {
	switch b.op {
	case opOr:
		l, err := b.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if l.ToBoolean() {
			return boolValue(true), nil
		}
		r, err := b.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		return boolValue(r.ToBoolean()), nil
	case opAnd:
		l, err := b.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.ToBoolean() {
			return boolValue(false), nil
		}
		r, err := b.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		return boolValue(r.ToBoolean()), nil
	case opUnion:
		lv, err := b.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		ln, err := lv.ToNodeSet()
		if err != nil {
			return Value{}, err
		}
		rv, err := b.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		rn, err := rv.ToNodeSet()
		if err != nil {
			return Value{}, err
		}
		combined := append(append([]*xmldom.Node{}, ln...), rn...)
		return nodeSetValue(sortUnique(combined)), nil
	case opEq, opNe, opLt, opLe, opGt, opGe:
		lv, err := b.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		rv, err := b.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		return boolValue(compareValues(b.op, lv, rv)), nil
	case opAdd, opSub, opMul, opDiv, opMod:
		lv, err := b.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		rv, err := b.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		var res float64
		switch b.op {
		case opAdd:
			res = lv.ToNumber() + rv.ToNumber()
		case opSub:
			res = lv.ToNumber() - rv.ToNumber()
		case opMul:
			res = lv.ToNumber() * rv.ToNumber()
		case opDiv:
			res = lv.ToNumber() / rv.ToNumber()
		case opMod:
			res = math.Mod(lv.ToNumber(), rv.ToNumber())
		}
		return numberValue(res), nil
	}
	return Value{}, typeError("unsupported operator")
}

// scalarCompare applies op to two already-coerced-enough values: equality
// picks boolean/number/string precedence per XPath 1.0's general
// comparison rules (boolean beats number beats string), relational
// operators always compare as numbers.
func scalarCompare(op binOp, l, r Value) bool {
	switch op {
	case opEq, opNe:
		var eq bool
		switch {
		case l.Kind == Boolean || r.Kind == Boolean:
			eq = l.ToBoolean() == r.ToBoolean()
		case l.Kind == Number || r.Kind == Number:
			eq = l.ToNumber() == r.ToNumber()
		default:
			eq = l.ToString() == r.ToString()
		}
		if op == opNe {
			return !eq
		}
		return eq
	case opLt:
		return l.ToNumber() < r.ToNumber()
	case opLe:
		return l.ToNumber() <= r.ToNumber()
	case opGt:
		return l.ToNumber() > r.ToNumber()
	case opGe:
		return l.ToNumber() >= r.ToNumber()
	}
	return false
}

// nodeScalarValue converts a node-set member to whichever type its
// comparison partner suggests, per the node-set general-comparison rule.
func nodeScalarValue(n *xmldom.Node, other Value) Value {
	switch other.Kind {
	case Number:
		return numberValue(stringToNumber(n.Str()))
	case Boolean:
		return boolValue(n.Str() != "")
	default:
		return stringValue(n.Str())
	}
}

// compareValues implements XPath 1.0's general comparison: when either
// side is a node-set, the result is true iff some pair of (node, other
// value) satisfies op — not the negation of the equality case, since with
// more than one node a "!=" pair can exist alongside an "=" pair.
func compareValues(op binOp, l, r Value) bool {
	if l.Kind == NodeSet && r.Kind == NodeSet {
		for _, ln := range l.Nodes {
			for _, rn := range r.Nodes {
				if scalarCompare(op, stringValue(ln.Str()), stringValue(rn.Str())) {
					return true
				}
			}
		}
		return false
	}
	if l.Kind == NodeSet {
		for _, n := range l.Nodes {
			if scalarCompare(op, nodeScalarValue(n, r), r) {
				return true
			}
		}
		return false
	}
	if r.Kind == NodeSet {
		for _, n := range r.Nodes {
			if scalarCompare(op, l, nodeScalarValue(n, l)) {
				return true
			}
		}
		return false
	}
	return scalarCompare(op, l, r)
}

func (f functionCall) eval(ctx *evalContext) (Value, error) {
	fn, ok := coreFunctions[f.name]
	if !ok {
		return Value{}, typeError("unknown function %s()", f.name)
	}
	return fn(ctx, f.args)
}

// evalPath walks a locationPath's steps left to right, starting from the
// root (absolute) or the context node (relative), returning the resulting
// candidate set before the final document-order/dedup pass (callers that
// chain into a filterExpr tail need the unsorted intermediate).
func evalPath(ctx *evalContext, lp *locationPath) ([]*xmldom.Node, error) {
	var current []*xmldom.Node
	if lp.absolute {
		current = []*xmldom.Node{ctx.root}
	} else {
		current = []*xmldom.Node{ctx.node}
	}
	for _, st := range lp.steps {
		next, err := evalStep(ctx, current, st)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (lp *locationPath) eval(ctx *evalContext) (Value, error) {
	nodes, err := evalPath(ctx, lp)
	if err != nil {
		return Value{}, err
	}
	return nodeSetValue(sortUnique(nodes)), nil
}

// evalStep applies one step to every node currently in scope: gather the
// axis's candidates for each, keep those the node test accepts, then
// thread them through each predicate in turn (predicates after the first
// see the already-filtered, already-repositioned set, per XPath 1.0's
// left-to-right predicate evaluation).
func evalStep(ctx *evalContext, contextNodes []*xmldom.Node, st step) ([]*xmldom.Node, error) {
	var result []*xmldom.Node
	for _, cn := range contextNodes {
		// Predicates number candidates in axis (proximity) order, which
		// for a reverse axis is reverse document order; axisNodes
		// already returns candidates in that order.
		candidates := axisNodes(cn, st.axis)
		var matched []*xmldom.Node
		for _, c := range candidates {
			if st.test.matches(c, st.axis) {
				matched = append(matched, c)
			}
		}
		var err error
		for _, pred := range st.preds {
			matched, err = filterByPredicate(ctx, matched, pred)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, matched...)
	}
	return result, nil
}

// filterByPredicate evaluates pred against each candidate with a fresh
// context carrying that candidate's 1-based proximity position and the
// candidate set's size: a numeric predicate result matches only if it
// equals the current position.
func filterByPredicate(ctx *evalContext, nodes []*xmldom.Node, pred expr) ([]*xmldom.Node, error) {
	size := len(nodes)
	var out []*xmldom.Node
	for i, n := range nodes {
		pctx := &evalContext{root: ctx.root, node: n, position: i + 1, size: size, vars: ctx.vars, doc: ctx.doc}
		v, err := pred.eval(pctx)
		if err != nil {
			return nil, err
		}
		if v.Kind == Number {
			if v.Num == float64(i+1) {
				out = append(out, n)
			}
			continue
		}
		if v.ToBoolean() {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f filterExpr) eval(ctx *evalContext) (Value, error) {
	v, err := f.primary.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if len(f.preds) == 0 && f.tail == nil {
		return v, nil
	}
	nodes, err := v.ToNodeSet()
	if err != nil {
		return Value{}, err
	}
	for _, pred := range f.preds {
		nodes, err = filterByPredicate(ctx, nodes, pred)
		if err != nil {
			return Value{}, err
		}
	}
	if f.tail == nil {
		return nodeSetValue(sortUnique(nodes)), nil
	}
	var out []*xmldom.Node
	for _, n := range nodes {
		sub := &evalContext{root: ctx.root, node: n, position: 1, size: 1, vars: ctx.vars, doc: ctx.doc}
		tailNodes, err := evalPath(sub, f.tail)
		if err != nil {
			return Value{}, err
		}
		out = append(out, tailNodes...)
	}
	return nodeSetValue(sortUnique(out)), nil
}
