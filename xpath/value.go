package xpath

import (
	"math"
	"strconv"
	"strings"

	"github.com/arturoeanton/goxmlkit/xmldom"
)

// Kind tags which of XPath 1.0's four object types a Value holds.
type Kind int

const (
	NodeSet Kind = iota
	Boolean
	Number
	String
)

// Value is an XPath 1.0 object: exactly one of a node-set, a boolean, a
// number, or a string is meaningful, per Kind. Represented as a sum type
// with eager conversion methods rather than an interface with
// runtime-polymorphic subclasses.
type Value struct {
	Kind  Kind
	Nodes []*xmldom.Node // document order, no duplicates, when Kind == NodeSet
	Bool  bool
	Num   float64
	Str   string
}

func nodeSetValue(nodes []*xmldom.Node) Value { return Value{Kind: NodeSet, Nodes: nodes} }
func boolValue(b bool) Value                  { return Value{Kind: Boolean, Bool: b} }
func numberValue(n float64) Value             { return Value{Kind: Number, Num: n} }
func stringValue(s string) Value              { return Value{Kind: String, Str: s} }

// ToBoolean applies the XPath 1.0 boolean() conversion rules: a node-set
// is true iff non-empty; a number is true iff neither zero nor NaN; a
// string is true iff non-empty.
func (v Value) ToBoolean() bool {
	switch v.Kind {
	case NodeSet:
		return len(v.Nodes) > 0
	case Boolean:
		return v.Bool
	case Number:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case String:
		return v.Str != ""
	}
	return false
}

// ToNumber applies the XPath 1.0 number() conversion rules: a node-set
// converts via its string-value; a string is parsed as a decimal with an
// optional leading minus sign, NaN on failure; a boolean is 1 or 0.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case NodeSet:
		return stringToNumber(v.ToString())
	case Boolean:
		if v.Bool {
			return 1
		}
		return 0
	case Number:
		return v.Num
	case String:
		return stringToNumber(v.Str)
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	for i, c := range s {
		if !(c >= '0' && c <= '9' || c == '.' || (i == 0 && c == '-')) {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString applies the XPath 1.0 string() conversion rules: a node-set
// converts to the string-value of its first node in document order (""
// if empty); a number formats without a superfluous ".0", and as "NaN",
// "Infinity" or "-Infinity" for the non-finite cases; a boolean is
// "true"/"false".
func (v Value) ToString() string {
	switch v.Kind {
	case NodeSet:
		if len(v.Nodes) == 0 {
			return ""
		}
		return v.Nodes[0].Str()
	case Boolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(v.Num)
	case String:
		return v.Str
	}
	return ""
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
}

// ToNodeSet returns v.Nodes if v is a node-set, or an XPathType error
// otherwise (e.g. a union of non-node-set operands).
func (v Value) ToNodeSet() ([]*xmldom.Node, error) {
	if v.Kind != NodeSet {
		return nil, typeError("expected a node-set")
	}
	return v.Nodes, nil
}
