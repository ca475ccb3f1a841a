package dtd

import (
	"strings"

	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// CType is the shape of a content-model node. Grounded on moznion-helium's
// ElementContent{ctype, coccur, name, prefix, c1, c2, parent} (interface.go),
// generalized into a tagged-variant tree instead of a two-child libxml2-style
// binary tree — Parts holds every sibling of a Seq/Choice node directly.
type CType int

const (
	CTEmpty CType = iota // EMPTY
	CTAny                // ANY
	CTMixed              // (#PCDATA | a | b | ...)*  or plain (#PCDATA)
	CTName               // a single child-element name atom
	CTSeq                // (a, b, c) — ordered sequence
	CTChoice             // (a | b | c) — choice
)

// Quant is the occurrence suffix on a content-model particle.
type Quant int

const (
	QOne  Quant = iota // no suffix
	QOpt               // ?
	QStar              // *
	QPlus              // +
)

// ContentModel is one node of a compiled <!ELEMENT> content-model
// expression. A Model's root may be CTEmpty/CTAny/CTMixed or
// a CTSeq/CTChoice tree of CTName/CTSeq/CTChoice particles.
type ContentModel struct {
	Type  CType
	Name  string          // CTName
	Names []string        // CTMixed: permitted child names ("" slice means text-only, no names)
	Parts []*ContentModel // CTSeq / CTChoice
	Quant Quant
}

// MayBeEmpty reports whether this particle can match zero tokens — the
// "empty-acceptance" property the validator's automaton precomputes once
// per content model ().
func (cm *ContentModel) MayBeEmpty() bool {
	switch cm.Type {
	case CTEmpty:
		return true
	case CTAny, CTMixed:
		return true
	case CTName:
		return cm.Quant == QOpt || cm.Quant == QStar
	case CTSeq:
		if cm.Quant == QOpt || cm.Quant == QStar {
			return true
		}
		for _, p := range cm.Parts {
			if !p.MayBeEmpty() {
				return false
			}
		}
		return true
	case CTChoice:
		if cm.Quant == QOpt || cm.Quant == QStar {
			return true
		}
		for _, p := range cm.Parts {
			if p.MayBeEmpty() {
				return true
			}
		}
		return len(cm.Parts) == 0
	default:
		return true
	}
}

// ParseContentModel parses the contentspec of an <!ELEMENT> declaration,
// positioned immediately after the element name and its separating
// whitespace has already been consumed by the caller. It recognizes EMPTY,
// ANY, mixed content "(#PCDATA | ...)*" and the children production
// "(seq|choice)" with trailing ?, * or +.
func ParseContentModel(l *lexer.Lexer) (*ContentModel, error) {
	tok, err := l.NextMarkup()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lexer.Name {
		switch tok.Text {
		case "EMPTY":
			return &ContentModel{Type: CTEmpty}, nil
		case "ANY":
			return &ContentModel{Type: CTAny}, nil
		}
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected EMPTY, ANY or a content-model group, found %q", tok.Text)
	}
	if tok.Kind != lexer.LParen {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected '(' to start a content-model group")
	}

	skipWS(l)
	tok, err = l.NextMarkup()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lexer.Hash {
		return parseMixed(l)
	}

	group, err := parseGroup(l, tok)
	if err != nil {
		return nil, err
	}
	group.Quant = parseOptionalQuant(l)
	return group, nil
}

func skipWS(l *lexer.Lexer) {
	for {
		tok, err := l.PeekMarkup()
		if err != nil || tok.Kind != lexer.Whitespace {
			return
		}
		l.NextMarkup()
	}
}

// parseMixed parses the body of "(#PCDATA | name | ...)*" or "(#PCDATA)"
// after the leading "(#" has already been consumed up through the Hash
// token (the literal "PCDATA" keyword follows as a Name token).
func parseMixed(l *lexer.Lexer) (*ContentModel, error) {
	tok, err := l.NextMarkup()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lexer.Name || tok.Text != "PCDATA" {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected PCDATA after '#' in mixed content")
	}
	m := &ContentModel{Type: CTMixed}
	for {
		skipWS(l)
		tok, err = l.NextMarkup()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case lexer.RParen:
			quant := parseOptionalQuant(l)
			if len(m.Names) > 0 && quant != QStar {
				return nil, xmlerr.New(xmlerr.NotWellFormed, "mixed content with element names must be suffixed with '*'")
			}
			return m, nil
		case lexer.Pipe:
			skipWS(l)
			name, err := l.NextMarkup()
			if err != nil {
				return nil, err
			}
			if name.Kind != lexer.Name {
				return nil, xmlerr.New(xmlerr.NotWellFormed, "expected element name in mixed content list")
			}
			m.Names = append(m.Names, name.Text)
		default:
			return nil, xmlerr.New(xmlerr.NotWellFormed, "unexpected token in mixed content")
		}
	}
}

// parseGroup parses a children-production group: a parenthesized sequence
// or choice of particles. first is the token already consumed that opens
// the first particle (a Name, or a nested LParen).
func parseGroup(l *lexer.Lexer, first lexer.Token) (*ContentModel, error) {
	firstParticle, err := parseParticle(l, first)
	if err != nil {
		return nil, err
	}
	parts := []*ContentModel{firstParticle}
	var kind CType
	haveKind := false

	for {
		skipWS(l)
		tok, err := l.NextMarkup()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case lexer.RParen:
			if !haveKind {
				return &ContentModel{Type: CTSeq, Parts: parts}, nil
			}
			return &ContentModel{Type: kind, Parts: parts}, nil
		case lexer.Comma, lexer.Pipe:
			sep := CTSeq
			if tok.Kind == lexer.Pipe {
				sep = CTChoice
			}
			if haveKind && kind != sep {
				return nil, xmlerr.New(xmlerr.NotWellFormed, "cannot mix ',' and '|' in the same content-model group")
			}
			kind = sep
			haveKind = true
			skipWS(l)
			next, err := l.NextMarkup()
			if err != nil {
				return nil, err
			}
			p, err := parseParticle(l, next)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		default:
			return nil, xmlerr.New(xmlerr.NotWellFormed, "expected ',', '|' or ')' in content-model group")
		}
	}
}

// parseParticle parses a single cp (content particle): an element name or
// a nested group, with an optional trailing ?, * or + quantifier.
func parseParticle(l *lexer.Lexer, tok lexer.Token) (*ContentModel, error) {
	var cm *ContentModel
	switch tok.Kind {
	case lexer.Name:
		cm = &ContentModel{Type: CTName, Name: tok.Text}
	case lexer.LParen:
		skipWS(l)
		inner, err := l.NextMarkup()
		if err != nil {
			return nil, err
		}
		group, err := parseGroup(l, inner)
		if err != nil {
			return nil, err
		}
		cm = group
	default:
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected an element name or nested group")
	}
	cm.Quant = parseOptionalQuant(l)
	return cm, nil
}

func parseOptionalQuant(l *lexer.Lexer) Quant {
	tok, err := l.PeekMarkup()
	if err != nil {
		return QOne
	}
	switch tok.Kind {
	case lexer.Question:
		l.NextMarkup()
		return QOpt
	case lexer.Star:
		l.NextMarkup()
		return QStar
	case lexer.Plus:
		l.NextMarkup()
		return QPlus
	default:
		return QOne
	}
}

// String renders a content model back to its textual contentspec form,
// used by the DTD subset serializer and in diagnostics.
func (cm *ContentModel) String() string {
	switch cm.Type {
	case CTEmpty:
		return "EMPTY"
	case CTAny:
		return "ANY"
	case CTMixed:
		if len(cm.Names) == 0 {
			return "(#PCDATA)"
		}
		return "(#PCDATA|" + strings.Join(cm.Names, "|") + ")*"
	case CTName:
		return cm.Name + quantSuffix(cm.Quant)
	case CTSeq:
		return joinParts(cm.Parts, ",") + quantSuffix(cm.Quant)
	case CTChoice:
		return joinParts(cm.Parts, "|") + quantSuffix(cm.Quant)
	default:
		return ""
	}
}

func joinParts(parts []*ContentModel, sep string) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = p.String()
	}
	return "(" + strings.Join(strs, sep) + ")"
}

func quantSuffix(q Quant) string {
	switch q {
	case QOpt:
		return "?"
	case QStar:
		return "*"
	case QPlus:
		return "+"
	default:
		return ""
	}
}
