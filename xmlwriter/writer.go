// Package xmlwriter serializes an xmldom tree back to XML text.
// Grounded on arturoeanton-go-xml's hand-written streaming encoder
// (xml/streaming_encoder.go: an io.Writer-driven recursive descent with a
// depth-based indent and a small bytes.Buffer-based escaper) adapted from
// map[string]any input to *xmldom.Node input, and on arturoeanton-go-xml's own
// xml/c14n.go for attribute-ordering/escaping conventions this module does
// not reuse verbatim (c14n has its own fixed canonical form; this writer's
// form is configurable per xmlopt.WriterConfig).
package xmlwriter

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arturoeanton/goxmlkit/xmldom"
	"github.com/arturoeanton/goxmlkit/xmlopt"
)

// sortedNSPrefixes orders namespace declarations deterministically for
// output, the same way that encoder sorts its namespace aliases
// (xml/streaming_encoder.go) instead of relying on Go's randomized map
// iteration order.
func sortedNSPrefixes(decls map[string]string) []string {
	out := make([]string, 0, len(decls))
	for p := range decls {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Write serializes doc to w per cfg: an optional XML
// declaration, then the document element. No DOCTYPE is written, even
// when doc.DocType is set.
func Write(w io.Writer, doc *xmldom.Document, cfg *xmlopt.WriterConfig) error {
	if cfg == nil {
		cfg = xmlopt.DefaultWriterConfig()
	}
	if cfg.XMLDeclaration {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"`)
		if cfg.Standalone {
			fmt.Fprint(w, ` standalone="yes"`)
		}
		fmt.Fprint(w, "?>")
		if cfg.Indent > 0 {
			fmt.Fprint(w, "\n")
		}
	}
	root := doc.Element()
	if root == nil {
		return nil
	}
	return WriteNode(w, root, cfg)
}

// WriteNode serializes a single node (and its subtree) without a
// surrounding document — the entry point clone()/move() examples and tests
// use to render a detached fragment.
func WriteNode(w io.Writer, n *xmldom.Node, cfg *xmlopt.WriterConfig) error {
	if cfg == nil {
		cfg = xmlopt.DefaultWriterConfig()
	}
	wr := &writer{w: w, cfg: cfg}
	return wr.writeNode(n, 0)
}

// ToString is the convenience form most callers want: render a node to a
// string with the given options.
func ToString(n *xmldom.Node, cfg *xmlopt.WriterConfig) (string, error) {
	var buf bytes.Buffer
	if err := WriteNode(&buf, n, cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type writer struct {
	w   io.Writer
	cfg *xmlopt.WriterConfig
}

func (wr *writer) indent(depth int) string {
	if wr.cfg.Indent <= 0 {
		return ""
	}
	return "\n" + strings.Repeat(" ", wr.cfg.Indent*depth)
}

func (wr *writer) writeNode(n *xmldom.Node, depth int) error {
	switch n.Type {
	case xmldom.TextNode:
		_, err := io.WriteString(wr.w, escapeText(n.Data))
		return err
	case xmldom.CDATANode:
		return wr.writeCDATA(n.Data)
	case xmldom.CommentNode:
		if wr.cfg.SuppressComments {
			return nil
		}
		_, err := fmt.Fprintf(wr.w, "<!--%s-->", n.Data)
		return err
	case xmldom.PINode:
		data := n.Data
		if data != "" {
			data = " " + data
		}
		_, err := fmt.Fprintf(wr.w, "<?%s%s?>", n.Name.Local, data)
		return err
	case xmldom.ElementNode:
		return wr.writeElement(n, depth)
	default:
		return nil
	}
}

func (wr *writer) writeCDATA(data string) error {
	for {
		if i := strings.Index(data, "]]>"); i >= 0 {
			if _, err := fmt.Fprintf(wr.w, "<![CDATA[%s]]>", data[:i+2]); err != nil {
				return err
			}
			data = data[i+2:]
			continue
		}
		_, err := fmt.Fprintf(wr.w, "<![CDATA[%s]]>", data)
		return err
	}
}

func (wr *writer) writeElement(n *xmldom.Node, depth int) error {
	tag := qualifiedName(n.Name)
	if _, err := fmt.Fprintf(wr.w, "<%s", tag); err != nil {
		return err
	}

	for _, prefix := range sortedNSPrefixes(n.NamespaceDecls()) {
		attrName := "xmlns"
		if prefix != "" {
			attrName = "xmlns:" + prefix
		}
		if err := wr.writeAttr(depth, attrName, n.NamespaceDecls()[prefix]); err != nil {
			return err
		}
	}
	for _, a := range n.Attrs() {
		if err := wr.writeAttr(depth, qualifiedName(a.Name), a.Data); err != nil {
			return err
		}
	}

	children := n.Children
	if len(children) == 0 && wr.cfg.CollapseTags {
		_, err := io.WriteString(wr.w, "/>")
		return err
	}
	if _, err := io.WriteString(wr.w, ">"); err != nil {
		return err
	}
	for _, c := range children {
		if c.Type == xmldom.ElementNode || c.Type == xmldom.CommentNode || c.Type == xmldom.PINode {
			if _, err := io.WriteString(wr.w, wr.indent(depth+1)); err != nil {
				return err
			}
		}
		if err := wr.writeNode(c, depth+1); err != nil {
			return err
		}
	}
	if len(children) > 0 {
		needsIndent := false
		for _, c := range children {
			if c.Type != xmldom.TextNode {
				needsIndent = true
				break
			}
		}
		if needsIndent {
			if _, err := io.WriteString(wr.w, wr.indent(depth)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(wr.w, "</%s>", tag)
	return err
}

func (wr *writer) writeAttr(depth int, name, value string) error {
	sep := " "
	if wr.cfg.IndentAttributes {
		sep = wr.indent(depth + 1)
	}
	_, err := fmt.Fprintf(wr.w, `%s%s="%s"`, sep, name, escapeAttr(value, wr.cfg))
	return err
}

func qualifiedName(n xmldom.QName) string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// escapeText applies content-text escaping (.7): "&"->"&amp;",
// "<"->"&lt;", and ">"->"&gt;" only where it follows a literal "]]" (the
// one case plain ">" would otherwise be ambiguous with a CDATA close).
func escapeText(s string) string {
	var b strings.Builder
	var run int // consecutive ']' just written
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
			run = 0
		case '<':
			b.WriteString("&lt;")
			run = 0
		case '>':
			if run >= 2 {
				b.WriteString("&gt;")
			} else {
				b.WriteRune('>')
			}
			run = 0
		case ']':
			b.WriteRune(']')
			run++
		default:
			b.WriteRune(r)
			run = 0
		}
	}
	return b.String()
}

// escapeAttr applies attribute-value escaping: the same "&"/"<" rules as
// text, plus a conditional '"' and conditional whitespace escaping per
// WriterConfig.
func escapeAttr(s string, cfg *xmlopt.WriterConfig) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '"' && cfg.EscapeDoubleQuote:
			b.WriteString("&quot;")
		case r == '\t' && cfg.EscapeWhiteSpace:
			b.WriteString("&#9;")
		case r == '\n' && cfg.EscapeWhiteSpace:
			b.WriteString("&#10;")
		case r == '\r' && cfg.EscapeWhiteSpace:
			b.WriteString("&#13;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
