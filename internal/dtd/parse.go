package dtd

import (
	"strings"

	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/internal/source"
	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// ExternalResolver fetches the replacement text for an external identifier
// (a parameter entity's SYSTEM/PUBLIC reference, or an external subset).
// The caller supplies one backed by xmlopt.EntityResolver and the base
// directory in effect; a nil resolver means external parameter entities are
// recorded in the Model but never expanded in place (the
// "externally declared markup" edge case).
type ExternalResolver func(publicID, systemID, base string) (string, error)

// ParseSubset parses declarations from an already-open DTD subset —
// anything between "<!DOCTYPE name [" and its closing "]" for the internal
// subset, or the entirety of an external DTD file — accumulating them into
// m. It stops (without consuming) at a top-level "]" or end of input, so
// the caller can parse both subsets with the same function.
func ParseSubset(l *lexer.Lexer, m *Model, resolve ExternalResolver) error {
	for {
		tok, err := l.PeekMarkup()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.EOF, lexer.RBracket, lexer.CondSectClose:
			return nil
		case lexer.Whitespace:
			l.NextMarkup()
		case lexer.PEReference:
			l.NextMarkup()
			if err := expandParameterEntity(l, m, tok.Text, resolve); err != nil {
				return err
			}
		case lexer.CommentOpen:
			l.NextMarkup()
			if _, err := l.ScanCommentContent(); err != nil {
				return err
			}
		case lexer.PIOpen:
			l.NextMarkup()
			if _, err := l.ScanPIData(); err != nil {
				return err
			}
		case lexer.ElementOpen:
			l.NextMarkup()
			if err := parseElementDecl(l, m); err != nil {
				return err
			}
		case lexer.AttlistOpen:
			l.NextMarkup()
			if err := parseAttlistDecl(l, m, resolve); err != nil {
				return err
			}
		case lexer.EntityOpen:
			l.NextMarkup()
			if err := parseEntityDecl(l, m, resolve); err != nil {
				return err
			}
		case lexer.NotationOpen:
			l.NextMarkup()
			if err := parseNotationDecl(l, m); err != nil {
				return err
			}
		case lexer.CondSectOpen:
			l.NextMarkup()
			if err := parseConditionalSection(l, m, resolve); err != nil {
				return err
			}
		default:
			return xmlerr.New(xmlerr.NotWellFormed, "unexpected token %q in DTD subset", tok.Text)
		}
	}
}

func expectName(l *lexer.Lexer) (string, error) {
	skipWS(l)
	tok, err := l.NextMarkup()
	if err != nil {
		return "", err
	}
	if tok.Kind != lexer.Name {
		return "", xmlerr.New(xmlerr.NotWellFormed, "expected a name, found %q", tok.Text)
	}
	return tok.Text, nil
}

func expect(l *lexer.Lexer, k lexer.Kind, what string) (lexer.Token, error) {
	tok, err := l.NextMarkup()
	if err != nil {
		return tok, err
	}
	if tok.Kind != k {
		return tok, xmlerr.New(xmlerr.NotWellFormed, "expected %s, found %q", what, tok.Text)
	}
	return tok, nil
}

// expandParameterEntity pushes the (internal) replacement text of a
// parameter entity onto the shared source stack, bracketed with single
// spaces per XML 1.0 §4.4.8 so it cannot fuse with adjacent tokens.
func expandParameterEntity(l *lexer.Lexer, m *Model, name string, resolve ExternalResolver) error {
	e, ok := m.ParameterEntity(name)
	if !ok {
		return xmlerr.New(xmlerr.UndefinedEntity, "parameter entity %q is not declared", name)
	}
	text := e.Value
	if e.Type == ParameterExternal {
		if resolve == nil {
			return nil // recorded but not expandable without a resolver; see DESIGN.md
		}
		resolved, err := resolve(e.PublicID, e.SystemID, e.Base)
		if err != nil {
			return err
		}
		text = resolved
	}
	frame := source.NewRuneFrame(" "+text+" ", e.Base)
	return l.Stack().PushEntity(name, frame, true)
}

func parseElementDecl(l *lexer.Lexer, m *Model) error {
	name, err := expectName(l)
	if err != nil {
		return err
	}
	skipWS(l)
	cm, err := ParseContentModel(l)
	if err != nil {
		return err
	}
	skipWS(l)
	if _, err := expect(l, lexer.GT, "'>'"); err != nil {
		return err
	}
	m.DeclareElement(name, cm)
	return nil
}

func parseAttlistDecl(l *lexer.Lexer, m *Model, resolve ExternalResolver) error {
	elem, err := expectName(l)
	if err != nil {
		return err
	}
	attlist := m.Attlist(elem)
	for {
		skipWS(l)
		tok, err := l.PeekMarkup()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.GT:
			l.NextMarkup()
			return nil
		case lexer.PEReference:
			l.NextMarkup()
			if err := expandParameterEntity(l, m, tok.Text, resolve); err != nil {
				return err
			}
		default:
			ad, err := parseAttDef(l)
			if err != nil {
				return err
			}
			attlist.Declare(ad)
		}
	}
}

func parseAttDef(l *lexer.Lexer) (*AttDecl, error) {
	name, err := expectName(l)
	if err != nil {
		return nil, err
	}
	skipWS(l)
	ad := &AttDecl{Name: name}
	tok, err := l.NextMarkup()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == lexer.Name:
		switch tok.Text {
		case "CDATA":
			ad.Type = CDATA
		case "ID":
			ad.Type = ID
		case "IDREF":
			ad.Type = IDREF
		case "IDREFS":
			ad.Type = IDREFS
		case "ENTITY":
			ad.Type = ENTITY
		case "ENTITIES":
			ad.Type = ENTITIES
		case "NMTOKEN":
			ad.Type = NMTOKEN
		case "NMTOKENS":
			ad.Type = NMTOKENS
		case "NOTATION":
			ad.Type = NOTATION
			skipWS(l)
			values, err := parseNameGroup(l)
			if err != nil {
				return nil, err
			}
			ad.Values = values
		default:
			return nil, xmlerr.New(xmlerr.NotWellFormed, "unknown attribute type %q", tok.Text)
		}
	case tok.Kind == lexer.LParen:
		ad.Type = Enumeration
		values, err := parseEnumeration(l, tok)
		if err != nil {
			return nil, err
		}
		ad.Values = values
	default:
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected attribute type, found %q", tok.Text)
	}

	skipWS(l)
	tok, err = l.NextMarkup()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lexer.Hash {
		kw, err := expectName(l)
		if err != nil {
			return nil, err
		}
		switch kw {
		case "REQUIRED":
			ad.Default = Required
		case "IMPLIED":
			ad.Default = Implied
		case "FIXED":
			ad.Default = Fixed
			skipWS(l)
			v, err := expect(l, lexer.AttrString, "a default value literal")
			if err != nil {
				return nil, err
			}
			ad.DefaultValue = NormalizeAttrValue(v.Text, ad.Type)
		default:
			return nil, xmlerr.New(xmlerr.NotWellFormed, "unknown default keyword #%s", kw)
		}
		return ad, nil
	}
	if tok.Kind != lexer.AttrString {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected attribute default literal or #REQUIRED/#IMPLIED/#FIXED")
	}
	ad.Default = Default
	ad.DefaultValue = NormalizeAttrValue(tok.Text, ad.Type)
	return ad, nil
}

// parseNameGroup parses "(a | b | c)" (a NOTATION value list), starting
// just after the opening '('.
func parseNameGroup(l *lexer.Lexer) ([]string, error) {
	if _, err := expect(l, lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	var names []string
	for {
		skipWS(l)
		name, err := expectName(l)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		skipWS(l)
		tok, err := l.NextMarkup()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RParen {
			return names, nil
		}
		if tok.Kind != lexer.Pipe {
			return nil, xmlerr.New(xmlerr.NotWellFormed, "expected '|' or ')' in NOTATION value list")
		}
	}
}

// parseEnumeration parses an attribute enumeration "(a | b | c)", with the
// opening '(' already consumed as tok.
func parseEnumeration(l *lexer.Lexer, tok lexer.Token) ([]string, error) {
	var values []string
	for {
		skipWS(l)
		nt, err := l.NextMarkup()
		if err != nil {
			return nil, err
		}
		if nt.Kind != lexer.Name {
			return nil, xmlerr.New(xmlerr.NotWellFormed, "expected NMTOKEN in enumeration")
		}
		values = append(values, nt.Text)
		skipWS(l)
		sep, err := l.NextMarkup()
		if err != nil {
			return nil, err
		}
		if sep.Kind == lexer.RParen {
			return values, nil
		}
		if sep.Kind != lexer.Pipe {
			return nil, xmlerr.New(xmlerr.NotWellFormed, "expected '|' or ')' in enumeration")
		}
	}
}

func parseEntityDecl(l *lexer.Lexer, m *Model, resolve ExternalResolver) error {
	skipWS(l)
	isParam := false
	tok, err := l.PeekMarkup()
	if err != nil {
		return err
	}
	if tok.Kind == lexer.Percent {
		l.NextMarkup()
		isParam = true
		skipWS(l)
	}
	name, err := expectName(l)
	if err != nil {
		return err
	}
	skipWS(l)

	tok, err = l.PeekMarkup()
	if err != nil {
		return err
	}
	if tok.Kind == lexer.AttrString {
		l.NextMarkup()
		skipWS(l)
		if _, err := expect(l, lexer.GT, "'>'"); err != nil {
			return err
		}
		if isParam {
			m.DeclareParameterEntity(&Entity{Name: name, Type: ParameterInternal, Value: tok.Text, Base: l.Stack().BaseURI()})
		} else {
			m.DeclareGeneralEntity(&Entity{Name: name, Type: GeneralInternal, Value: tok.Text, Base: l.Stack().BaseURI()})
		}
		return nil
	}

	pubID, sysID, err := parseExternalID(l)
	if err != nil {
		return err
	}
	e := &Entity{Name: name, PublicID: pubID, SystemID: sysID, Base: l.Stack().BaseURI()}
	if isParam {
		e.Type = ParameterExternal
		skipWS(l)
		if _, err := expect(l, lexer.GT, "'>'"); err != nil {
			return err
		}
		if resolve != nil {
			if text, err := resolve(pubID, sysID, e.Base); err == nil {
				e.Value = text
			}
		}
		m.DeclareParameterEntity(e)
		return nil
	}

	skipWS(l)
	ndt, err := l.PeekMarkup()
	if err != nil {
		return err
	}
	if ndt.Kind == lexer.Name && ndt.Text == "NDATA" {
		l.NextMarkup()
		notation, err := expectName(l)
		if err != nil {
			return err
		}
		e.Type = GeneralExternalUnparsed
		e.NotationName = notation
	} else {
		e.Type = GeneralExternalParsed
	}
	skipWS(l)
	if _, err := expect(l, lexer.GT, "'>'"); err != nil {
		return err
	}
	m.DeclareGeneralEntity(e)
	return nil
}

// ParseExternalID parses "SYSTEM sysliteral" or "PUBLIC publiteral
// [sysliteral]", positioned at the SYSTEM/PUBLIC keyword. Exported so the
// document parser can reuse it for a DOCTYPE's own external identifier.
func ParseExternalID(l *lexer.Lexer) (publicID, systemID string, err error) {
	return parseExternalID(l)
}

func parseExternalID(l *lexer.Lexer) (publicID, systemID string, err error) {
	kw, err := expectName(l)
	if err != nil {
		return "", "", err
	}
	switch kw {
	case "SYSTEM":
		skipWS(l)
		lit, err := expect(l, lexer.AttrString, "a system literal")
		if err != nil {
			return "", "", err
		}
		return "", lit.Text, nil
	case "PUBLIC":
		skipWS(l)
		pub, err := expect(l, lexer.AttrString, "a public identifier literal")
		if err != nil {
			return "", "", err
		}
		skipWS(l)
		tok, err := l.PeekMarkup()
		if err != nil {
			return "", "", err
		}
		if tok.Kind != lexer.AttrString {
			return pub.Text, "", nil
		}
		l.NextMarkup()
		return pub.Text, tok.Text, nil
	default:
		return "", "", xmlerr.New(xmlerr.NotWellFormed, "expected SYSTEM or PUBLIC, found %q", kw)
	}
}

func parseNotationDecl(l *lexer.Lexer, m *Model) error {
	name, err := expectName(l)
	if err != nil {
		return err
	}
	skipWS(l)
	pub, sys, err := parseExternalOrPublicID(l)
	if err != nil {
		return err
	}
	skipWS(l)
	if _, err := expect(l, lexer.GT, "'>'"); err != nil {
		return err
	}
	m.DeclareNotation(&Notation{Name: name, PublicID: pub, SystemID: sys})
	return nil
}

// parseExternalOrPublicID accepts a NOTATION's identifier, which may be
// SYSTEM sysliteral, PUBLIC publiteral sysliteral, or a bare PUBLIC
// publiteral with no system literal at all.
func parseExternalOrPublicID(l *lexer.Lexer) (publicID, systemID string, err error) {
	return parseExternalID(l)
}

// parseConditionalSection parses "<![ INCLUDE|IGNORE [ ... ]]>" from just
// after "<![" (the opening has already been consumed as CondSectOpen).
func parseConditionalSection(l *lexer.Lexer, m *Model, resolve ExternalResolver) error {
	skipWS(l)
	tok, err := l.NextMarkup()
	if err != nil {
		return err
	}
	keyword := tok.Text
	if tok.Kind == lexer.PEReference {
		e, ok := m.ParameterEntity(tok.Text)
		if !ok {
			return xmlerr.New(xmlerr.UndefinedEntity, "parameter entity %q is not declared", tok.Text)
		}
		keyword = strings.TrimSpace(e.Value)
	}
	skipWS(l)
	if _, err := expect(l, lexer.LBracket, "'['"); err != nil {
		return err
	}
	switch keyword {
	case "INCLUDE":
		if err := ParseSubset(l, m, resolve); err != nil {
			return err
		}
		_, err := expect(l, lexer.CondSectClose, "']]>' closing an INCLUDE section")
		return err
	case "IGNORE":
		return skipIgnoredSection(l)
	default:
		return xmlerr.New(xmlerr.NotWellFormed, "expected INCLUDE or IGNORE in conditional section, found %q", keyword)
	}
}

// skipIgnoredSection discards everything up to the matching "]]>",
// respecting nested "<![" sections per XML 1.0 §3.4.
func skipIgnoredSection(l *lexer.Lexer) error {
	depth := 1
	for depth > 0 {
		tok, err := l.NextMarkup()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.EOF:
			return xmlerr.New(xmlerr.UnexpectedEOF, "unterminated ignored conditional section")
		case lexer.CondSectOpen:
			depth++
		case lexer.CondSectClose:
			depth--
		}
	}
	return nil
}
