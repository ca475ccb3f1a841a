package dtd

import "strings"

// NormalizeAttrValue applies the second stage of attribute-value
// normalization (XML 1.0 §3.3.3): literal whitespace
// characters in a start tag's attribute values are already folded to ' ' by
// the parser while it expands references, so this stage
// only does the type-dependent whitespace collapse that applies to every
// tokenized type (everything except CDATA) — leading/trailing space is
// trimmed and interior runs of space collapse to one.
func NormalizeAttrValue(raw string, t AttrType) string {
	if !t.IsTokenized() {
		return raw
	}
	fields := strings.Fields(raw)
	return strings.Join(fields, " ")
}
