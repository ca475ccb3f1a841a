// Package parser implements a recursive-descent document parser: it
// drives the lexer, the DTD model and the content-model
// validator over a character-source stack, reporting a SAX-style event
// stream to a Handler. Grounded on arturoeanton-go-xml's single-pass tokenize-
// then-build loop in xml/xml.go, generalized into the documented two-mode
// grammar, adding entity/namespace handling it lacked.
package parser

import (
	"io"
	"strings"

	"github.com/arturoeanton/goxmlkit/internal/decode"
	"github.com/arturoeanton/goxmlkit/internal/dtd"
	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/internal/source"
	"github.com/arturoeanton/goxmlkit/internal/validator"
	"github.com/arturoeanton/goxmlkit/xmlerr"
	"github.com/arturoeanton/goxmlkit/xmlopt"
)

// Parser holds the state of one parse: the decoder and source stack, the
// lexer, the configuration, the handler receiving events and the DTD model
// accumulated so far.
type Parser struct {
	dec     *decode.Decoder
	stack   *source.Stack
	lex     *lexer.Lexer
	cfg     *xmlopt.ParseConfig
	handler Handler
	model   *dtd.Model

	nsStack   []map[string]string // prefix ("" = default) -> URI, one frame per open element
	ids       map[string]bool     // ID values seen so far, for uniqueness (validating mode)
	frames    []elementFrame
	templates map[string]*validator.Automaton // element name -> compiled content-model template
}

type elementFrame struct {
	name      Name
	automaton *validator.Automaton // nil when the element has no declared content model
}

// Model returns the DTD model accumulated while parsing.
func (p *Parser) Model() *dtd.Model { return p.model }

// Parse reads a complete XML document from r, reporting events to h.
func Parse(r io.Reader, h Handler, opts ...xmlopt.ParseOption) (*dtd.Model, error) {
	cfg := xmlopt.DefaultParseConfig()
	for _, o := range opts {
		o(cfg)
	}
	dec, err := decode.New(r)
	if err != nil {
		return nil, err
	}
	stack := source.NewStack(&source.DecoderFrame{Dec: dec, Base: cfg.BaseDirectory})
	p := &Parser{
		dec:     dec,
		stack:   stack,
		lex:     lexer.New(stack),
		cfg:     cfg,
		handler: h,
		model:   dtd.NewModel(),
		ids:     make(map[string]bool),
	}
	return p.model, p.parseDocument()
}

func (p *Parser) parseDocument() error {
	if err := p.handler.StartDocument(); err != nil {
		return err
	}
	if err := p.parseOptionalXMLDecl(); err != nil {
		return err
	}
	if err := p.skipMisc(); err != nil {
		return err
	}
	if err := p.parseOptionalDoctype(); err != nil {
		return err
	}
	if err := p.skipMisc(); err != nil {
		return err
	}
	if err := p.parseRootElement(); err != nil {
		return err
	}
	if err := p.skipMisc(); err != nil {
		return err
	}
	// skipMisc stops on a peeked markup token; anything but EOF is stray.
	tok, err := p.lex.PeekMarkup()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.EOF {
		return p.errf(xmlerr.NotWellFormed, "unexpected content after the document element")
	}
	return p.handler.EndDocument()
}

func (p *Parser) errf(kind xmlerr.Kind, format string, args ...any) error {
	line, col := p.lex.Position()
	return xmlerr.At(kind, line, col, format, args...)
}

// skipMisc consumes comments, processing instructions and whitespace
// between the prolog, the document element and the epilog.
func (p *Parser) skipMisc() error {
	for {
		tok, err := p.lex.PeekMarkup()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.Whitespace:
			p.lex.NextMarkup()
		case lexer.CommentOpen:
			p.lex.NextMarkup()
			text, err := p.lex.ScanCommentContent()
			if err != nil {
				return err
			}
			if err := p.handler.Comment(text); err != nil {
				return err
			}
		case lexer.PIOpen:
			p.lex.NextMarkup()
			if err := p.parsePI(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Parser) parsePI() error {
	target, err := p.lex.ScanName()
	if err != nil {
		return err
	}
	if strings.EqualFold(target, "xml") {
		return p.errf(xmlerr.NotWellFormed, `processing instruction target "xml" is reserved`)
	}
	data, err := p.lex.ScanPIData()
	if err != nil {
		return err
	}
	return p.handler.ProcessingInstruction(target, data)
}

func skipMarkupWS(l *lexer.Lexer) error {
	for {
		tok, err := l.PeekMarkup()
		if err != nil || tok.Kind != lexer.Whitespace {
			return err
		}
		l.NextMarkup()
	}
}

func (p *Parser) parseOptionalXMLDecl() error {
	tok, err := p.lex.PeekMarkup()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.XMLDeclOpen {
		return nil
	}
	p.lex.NextMarkup()
	pseudo, err := p.parsePseudoAttrs()
	if err != nil {
		return err
	}
	if enc, ok := pseudo["encoding"]; ok {
		if err := p.dec.SetDeclared(enc); err != nil {
			return err
		}
	}
	return nil
}

// parsePseudoAttrs scans the name="value" pairs of the XML declaration up
// to "?>".
func (p *Parser) parsePseudoAttrs() (map[string]string, error) {
	out := make(map[string]string)
	for {
		if err := skipMarkupWS(p.lex); err != nil {
			return nil, err
		}
		tok, err := p.lex.NextMarkup()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.PIClose {
			return out, nil
		}
		if tok.Kind != lexer.Name {
			return nil, p.errf(xmlerr.NotWellFormed, "expected a pseudo-attribute name or '?>'")
		}
		name := tok.Text
		if err := skipMarkupWS(p.lex); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Eq, "'='"); err != nil {
			return nil, err
		}
		if err := skipMarkupWS(p.lex); err != nil {
			return nil, err
		}
		val, err := p.expect(lexer.AttrString, "a quoted value")
		if err != nil {
			return nil, err
		}
		out[name] = val.Text
	}
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	tok, err := p.lex.NextMarkup()
	if err != nil {
		return tok, err
	}
	if tok.Kind != k {
		return tok, p.errf(xmlerr.NotWellFormed, "expected %s", what)
	}
	return tok, nil
}

func (p *Parser) parseOptionalDoctype() error {
	tok, err := p.lex.PeekMarkup()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.DoctypeOpen {
		return nil
	}
	p.lex.NextMarkup()
	if err := skipMarkupWS(p.lex); err != nil {
		return err
	}
	nameTok, err := p.expect(lexer.Name, "the document element name")
	if err != nil {
		return err
	}
	p.model.RootName = nameTok.Text

	var pubID, sysID string
	if err := skipMarkupWS(p.lex); err != nil {
		return err
	}
	next, err := p.lex.PeekMarkup()
	if err != nil {
		return err
	}
	if next.Kind == lexer.Name {
		pubID, sysID, err = dtd.ParseExternalID(p.lex)
		if err != nil {
			return err
		}
		if err := skipMarkupWS(p.lex); err != nil {
			return err
		}
	}

	next, err = p.lex.PeekMarkup()
	if err != nil {
		return err
	}
	if next.Kind == lexer.LBracket {
		p.lex.NextMarkup()
		resolve := p.externalResolver()
		if err := dtd.ParseSubset(p.lex, p.model, resolve); err != nil {
			return err
		}
		if _, err := p.expect(lexer.RBracket, "']' closing the internal subset"); err != nil {
			return err
		}
		if err := skipMarkupWS(p.lex); err != nil {
			return err
		}
	} else if sysID != "" && p.cfg.ExternalEntityResolver != nil {
		resolve := p.externalResolver()
		if text, err := resolve(pubID, sysID, p.stack.BaseURI()); err == nil && text != "" {
			extLex := lexer.New(source.NewStack(source.NewRuneFrame(text, sysID)))
			if err := dtd.ParseSubset(extLex, p.model, resolve); err != nil {
				return err
			}
		}
	}

	if _, err := p.expect(lexer.GT, "'>' closing the document type declaration"); err != nil {
		return err
	}
	return p.handler.Doctype(nameTok.Text, pubID, sysID)
}

// externalResolver adapts the host-supplied xmlopt.EntityResolver (which
// hands back a byte stream that may be in any encoding) to the simpler
// string-returning contract the dtd subset grammar expects.
func (p *Parser) externalResolver() dtd.ExternalResolver {
	if p.cfg.ExternalEntityResolver == nil {
		return nil
	}
	return func(publicID, systemID, base string) (string, error) {
		rc, err := p.cfg.ExternalEntityResolver(base, publicID, systemID)
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
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		}
		return sb.String(), nil
	}
}
