package parser

import (
	"strconv"
	"strings"

	"github.com/arturoeanton/goxmlkit/internal/decode"
	"github.com/arturoeanton/goxmlkit/internal/dtd"
	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/internal/source"
	"github.com/arturoeanton/goxmlkit/internal/validator"
	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// rawAttr is an attribute exactly as scanned from a start tag, before
// namespace resolution or entity expansion.
type rawAttr struct {
	name, prefix, local, raw string
}

func splitQName(raw string) (prefix, local string) {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return "", raw
}

func (p *Parser) lookupNS(prefix string) (string, bool) {
	for i := len(p.nsStack) - 1; i >= 0; i-- {
		if uri, ok := p.nsStack[i][prefix]; ok {
			return uri, true
		}
	}
	if prefix == "xml" {
		return "http://www.w3.org/XML/1998/namespace", true
	}
	return "", false
}

func (p *Parser) templateFor(name string) *validator.Automaton {
	if p.templates == nil {
		p.templates = make(map[string]*validator.Automaton)
	}
	if a, ok := p.templates[name]; ok {
		return a
	}
	decl, ok := p.model.Element(name)
	if !ok || decl.Content == nil {
		p.templates[name] = nil
		return nil
	}
	a := validator.Compile(decl.Content)
	p.templates[name] = a
	return a
}

func (p *Parser) parseRootElement() error {
	// skipMisc has already scanned the "<" as a (peeked) markup token.
	tok, err := p.lex.NextMarkup()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.LT {
		return p.errf(xmlerr.NotWellFormed, "expected the document element")
	}
	return p.parseElement()
}

// parseStartTag scans "Name (S Name Eq AttValue)* (S)? ('>' | '/>')", the
// "<" having already been consumed by the content-mode tokenizer.
func (p *Parser) parseStartTag() (rawName string, attrs []rawAttr, selfClosing bool, err error) {
	nameTok, err := p.lex.NextMarkup()
	if err != nil {
		return "", nil, false, err
	}
	if nameTok.Kind != lexer.Name {
		return "", nil, false, p.errf(xmlerr.NotWellFormed, "expected an element name")
	}
	rawName = nameTok.Text

	seen := make(map[string]bool)
	for {
		tok, err := p.lex.NextMarkup()
		if err != nil {
			return "", nil, false, err
		}
		switch tok.Kind {
		case lexer.Whitespace:
			continue
		case lexer.GT:
			return rawName, attrs, false, nil
		case lexer.EmptyClose:
			return rawName, attrs, true, nil
		case lexer.Name:
			attrName := tok.Text
			if seen[attrName] {
				return "", nil, false, p.errf(xmlerr.NotWellFormed, "duplicate attribute %q", attrName)
			}
			seen[attrName] = true
			if err := skipMarkupWS(p.lex); err != nil {
				return "", nil, false, err
			}
			if _, err := p.expect(lexer.Eq, "'=' after attribute name"); err != nil {
				return "", nil, false, err
			}
			if err := skipMarkupWS(p.lex); err != nil {
				return "", nil, false, err
			}
			valTok, err := p.expect(lexer.AttrString, "a quoted attribute value")
			if err != nil {
				return "", nil, false, err
			}
			prefix, local := splitQName(attrName)
			attrs = append(attrs, rawAttr{name: attrName, prefix: prefix, local: local, raw: valTok.Text})
		default:
			return "", nil, false, p.errf(xmlerr.NotWellFormed, "expected an attribute name, '>' or '/>'")
		}
	}
}

// parseElement parses one element, its attributes and its content,
// reporting StartNamespace/StartElement/.../EndElement/EndNamespace to the
// handler. The opening "<" has already been consumed.
func (p *Parser) parseElement() error {
	rawName, rawAttrs, selfClosing, err := p.parseStartTag()
	if err != nil {
		return err
	}

	frame := make(map[string]string)
	var declaredHere []string
	var plain []rawAttr
	for _, a := range rawAttrs {
		switch {
		case a.prefix == "" && a.local == "xmlns":
			frame[""] = a.raw
			declaredHere = append(declaredHere, "")
		case a.prefix == "xmlns":
			frame[a.local] = a.raw
			declaredHere = append(declaredHere, a.local)
		default:
			plain = append(plain, a)
		}
	}
	p.nsStack = append(p.nsStack, frame)
	for _, prefix := range declaredHere {
		if err := p.handler.StartNamespace(prefix, frame[prefix]); err != nil {
			return err
		}
	}

	elemPrefix, elemLocal := splitQName(rawName)
	elemURI, _ := p.lookupNS(elemPrefix)
	resolvedName := Name{Prefix: elemPrefix, Local: elemLocal, URI: elemURI}

	resolvedAttrs, err := p.resolveAttrs(rawName, plain)
	if err != nil {
		return err
	}

	if len(p.frames) > 0 {
		parent := &p.frames[len(p.frames)-1]
		if parent.automaton != nil && !parent.automaton.Allow(rawName) {
			if err := p.validity("element %q is not allowed here inside %q", rawName, parent.name.Local); err != nil {
				return err
			}
		}
	}

	p.frames = append(p.frames, elementFrame{name: resolvedName, automaton: p.cloneTemplate(rawName)})

	if err := p.handler.StartElement(resolvedName, resolvedAttrs); err != nil {
		return err
	}

	if !selfClosing {
		if err := p.parseContent(rawName); err != nil {
			return err
		}
	}

	top := &p.frames[len(p.frames)-1]
	if top.automaton != nil && !top.automaton.Done() {
		if err := p.validity("element %q is missing required content", rawName); err != nil {
			return err
		}
	}
	p.frames = p.frames[:len(p.frames)-1]

	if err := p.handler.EndElement(resolvedName); err != nil {
		return err
	}
	for i := len(declaredHere) - 1; i >= 0; i-- {
		if err := p.handler.EndNamespace(declaredHere[i]); err != nil {
			return err
		}
	}
	p.nsStack = p.nsStack[:len(p.nsStack)-1]
	return nil
}

func (p *Parser) cloneTemplate(rawName string) *validator.Automaton {
	t := p.templateFor(rawName)
	if t == nil {
		return nil
	}
	return t.Clone()
}

// validity reports a DTD validity error: fatal when validating, silently
// ignored (document continues to parse) otherwise — "Invalid
// is only fatal under Validating()".
func (p *Parser) validity(format string, args ...any) error {
	if !p.cfg.Validating {
		return nil
	}
	return p.errf(xmlerr.Invalid, format, args...)
}

func (p *Parser) resolveAttrs(elemName string, plain []rawAttr) ([]Attr, error) {
	declared := p.model.Attributes(elemName)
	declByName := make(map[string]*dtd.AttDecl, len(declared))
	for _, ad := range declared {
		declByName[ad.Name] = ad
	}

	out := make([]Attr, 0, len(plain)+len(declared))
	have := make(map[string]bool, len(plain))
	for _, a := range plain {
		have[a.name] = true
		val, err := p.expandAttrLiteral(a.raw, nil)
		if err != nil {
			return nil, err
		}
		var ad *dtd.AttDecl
		if d, ok := declByName[a.name]; ok {
			ad = d
			val = dtd.NormalizeAttrValue(val, ad.Type)
			if ad.Default == dtd.Fixed && val != ad.DefaultValue {
				if err := p.validity("attribute %q of element %q must have the fixed value %q", a.name, elemName, ad.DefaultValue); err != nil {
					return nil, err
				}
			}
			if ad.Type == dtd.ID {
				if p.ids[val] {
					if err := p.validity("ID value %q is not unique", val); err != nil {
						return nil, err
					}
				}
				p.ids[val] = true
			}
		}
		uri := ""
		if a.prefix != "" {
			uri, _ = p.lookupNS(a.prefix)
		}
		out = append(out, Attr{Name: Name{Prefix: a.prefix, Local: a.local, URI: uri}, Value: val})
	}

	for _, ad := range declared {
		if have[ad.Name] {
			continue
		}
		switch ad.Default {
		case dtd.Required:
			if err := p.validity("element %q is missing required attribute %q", elemName, ad.Name); err != nil {
				return nil, err
			}
		case dtd.Fixed, dtd.Default:
			prefix, local := splitQName(ad.Name)
			uri := ""
			if prefix != "" {
				uri, _ = p.lookupNS(prefix)
			}
			out = append(out, Attr{
				Name:      Name{Prefix: prefix, Local: local, URI: uri},
				Value:     dtd.NormalizeAttrValue(ad.DefaultValue, ad.Type),
				Defaulted: true,
			})
		}
	}
	return out, nil
}

// parseContent parses "content" (content-mode grammar) up to
// and including the matching end tag for elemName.
func (p *Parser) parseContent(elemName string) error {
	for {
		tok, err := p.lex.NextContent()
		if err != nil {
			return err
		}
		top := &p.frames[len(p.frames)-1]
		switch tok.Kind {
		case lexer.EOF:
			return p.errf(xmlerr.UnexpectedEOF, "unexpected end of input inside element %q", elemName)
		case lexer.ETagOpen:
			name, err := p.lex.ScanName()
			if err != nil {
				return err
			}
			if name != elemName {
				return p.errf(xmlerr.NotWellFormed, "mismatched end tag: expected %q, found %q", elemName, name)
			}
			if err := skipMarkupWS(p.lex); err != nil {
				return err
			}
			if _, err := p.expect(lexer.GT, "'>' closing the end tag"); err != nil {
				return err
			}
			return nil
		case lexer.STagOpen:
			if err := p.parseElement(); err != nil {
				return err
			}
		case lexer.CDATAOpen:
			text, err := p.lex.ScanCDATAContent()
			if err != nil {
				return err
			}
			if err := p.checkCharData(top, elemName); err != nil {
				return err
			}
			if p.cfg.PreserveCDATA {
				err = p.handler.CDATA(text)
			} else {
				err = p.handler.Characters(text)
			}
			if err != nil {
				return err
			}
		case lexer.CommentOpen:
			text, err := p.lex.ScanCommentContent()
			if err != nil {
				return err
			}
			if err := p.handler.Comment(text); err != nil {
				return err
			}
		case lexer.PIOpen:
			if err := p.parsePI(); err != nil {
				return err
			}
		case lexer.CharData:
			if strings.TrimFunc(tok.Text, isXMLSpace) != "" {
				if err := p.checkCharData(top, elemName); err != nil {
					return err
				}
			} else if !p.cfg.KeepBlanks && (top.automaton == nil || !top.automaton.AllowCharData()) {
				continue
			}
			if err := p.handler.Characters(tok.Text); err != nil {
				return err
			}
		case lexer.Amp:
			if err := p.parseContentReference(top, elemName); err != nil {
				return err
			}
		default:
			return p.errf(xmlerr.NotWellFormed, "unexpected token inside element %q", elemName)
		}
	}
}

func isXMLSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func (p *Parser) checkCharData(top *elementFrame, elemName string) error {
	if top.automaton != nil && !top.automaton.AllowCharData() {
		return p.validity("element %q does not allow character data here", elemName)
	}
	return nil
}

// parseContentReference handles a '&' seen in content mode: a character
// reference is reported directly as text, a general-entity reference is
// pushed onto the source stack so the ordinary content loop continues
// reading through its replacement text ("entity inclusion").
func (p *Parser) parseContentReference(top *elementFrame, elemName string) error {
	r, ok, err := p.lex.Peek()
	if err != nil {
		return err
	}
	if ok && r == '#' {
		p.lex.Next()
		ch, err := p.scanCharRef()
		if err != nil {
			return err
		}
		if err := p.checkCharData(top, elemName); err != nil {
			return err
		}
		return p.handler.Characters(string(ch))
	}
	name, err := p.lex.ScanName()
	if err != nil {
		return err
	}
	if err := p.expectSemicolon(name); err != nil {
		return err
	}
	e, ok := p.model.GeneralEntity(name)
	if !ok {
		return p.errf(xmlerr.UndefinedEntity, "entity %q is not declared", name)
	}
	switch e.Type {
	case dtd.GeneralExternalUnparsed:
		return p.errf(xmlerr.NotWellFormed, "unparsed entity %q cannot be referenced as text", name)
	case dtd.GeneralExternalParsed:
		text, err := p.fetchExternalEntity(e)
		if err != nil {
			return err
		}
		return p.lex.Stack().PushEntity(name, source.NewRuneFrame(text, e.Base), false)
	default:
		return p.lex.Stack().PushEntity(name, source.NewRuneFrame(e.Value, p.lex.Stack().BaseURI()), false)
	}
}

func (p *Parser) fetchExternalEntity(e *dtd.Entity) (string, error) {
	if p.cfg.ExternalEntityResolver == nil {
		return "", p.errf(xmlerr.UndefinedEntity, "external entity %q requires an entity resolver", e.Name)
	}
	rc, err := p.cfg.ExternalEntityResolver(e.Base, e.PublicID, e.SystemID)
	if err != nil || rc == nil {
		return "", err
	}
	defer rc.Close()
	dec, err := decode.New(rc)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		r, _, err := dec.ReadRune()
		if err != nil {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

func (p *Parser) expectSemicolon(name string) error {
	r, ok, err := p.lex.Peek()
	if err != nil {
		return err
	}
	if !ok || r != ';' {
		return p.errf(xmlerr.NotWellFormed, "reference to entity %q must end with ';'", name)
	}
	p.lex.Next()
	return nil
}

func (p *Parser) scanCharRef() (rune, error) {
	r, ok, err := p.lex.Peek()
	if err != nil {
		return 0, err
	}
	hex := false
	if ok && (r == 'x' || r == 'X') {
		hex = true
		p.lex.Next()
	}
	var sb strings.Builder
	for {
		r, ok, err := p.lex.Peek()
		if err != nil {
			return 0, err
		}
		if ok && r == ';' {
			p.lex.Next()
			break
		}
		if !ok {
			return 0, p.errf(xmlerr.UnexpectedEOF, "unterminated character reference")
		}
		sb.WriteRune(r)
		p.lex.Next()
	}
	base := 10
	if hex {
		base = 16
	}
	v, err := strconv.ParseInt(sb.String(), base, 32)
	if err != nil {
		return 0, p.errf(xmlerr.NotWellFormed, "malformed character reference &#%s%s;", map[bool]string{true: "x", false: ""}[hex], sb.String())
	}
	if !lexer.IsChar(rune(v)) {
		return 0, p.errf(xmlerr.NotWellFormed, "character reference &#%d; is not a legal XML character", v)
	}
	return rune(v), nil
}

// expandAttrLiteral expands character and internal general-entity
// references inside an already-extracted attribute-value literal, replacing
// each literal tab, newline or carriage return (but not one produced by a
// character reference) with a single space. External
// entities are forbidden here per XML 1.0 §3.3.3 ("no processing of
// entities containing < is performed"); seen guards against expansion
// cycles across nested internal entities.
func (p *Parser) expandAttrLiteral(raw string, seen map[string]bool) (string, error) {
	runes := []rune(raw)
	var out strings.Builder
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '&' {
			if r == '\t' || r == '\n' || r == '\r' {
				r = ' '
			}
			out.WriteRune(r)
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != ';' {
			j++
		}
		if j >= len(runes) {
			return "", p.errf(xmlerr.NotWellFormed, "unterminated reference in attribute value")
		}
		ref := string(runes[i+1 : j])
		i = j

		if strings.HasPrefix(ref, "#") {
			ch, err := decodeCharRef(ref[1:])
			if err != nil {
				return "", p.errf(xmlerr.NotWellFormed, "%s", err.Error())
			}
			out.WriteRune(ch)
			continue
		}
		if seen[ref] {
			return "", p.errf(xmlerr.EntityRecursion, "entity %q is already being expanded", ref)
		}
		e, ok := p.model.GeneralEntity(ref)
		if !ok {
			return "", p.errf(xmlerr.UndefinedEntity, "entity %q is not declared", ref)
		}
		if e.Type != dtd.GeneralInternal {
			return "", p.errf(xmlerr.ExternalEntityInAttribute, "external entity %q cannot be referenced from an attribute value", ref)
		}
		nested := make(map[string]bool, len(seen)+1)
		for k := range seen {
			nested[k] = true
		}
		nested[ref] = true
		expanded, err := p.expandAttrLiteral(e.Value, nested)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
	}
	return out.String(), nil
}

func decodeCharRef(lit string) (rune, error) {
	base := 10
	if strings.HasPrefix(lit, "x") || strings.HasPrefix(lit, "X") {
		base = 16
		lit = lit[1:]
	}
	v, err := strconv.ParseInt(lit, base, 32)
	if err != nil {
		return 0, err
	}
	if !lexer.IsChar(rune(v)) {
		return 0, xmlerr.New(xmlerr.NotWellFormed, "character reference is not a legal XML character")
	}
	return rune(v), nil
}
