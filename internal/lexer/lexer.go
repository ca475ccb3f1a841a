package lexer

import (
	"strings"
	"unicode"

	"github.com/arturoeanton/goxmlkit/internal/source"
	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// Lexer scans runes off a source.Stack into markup-mode or content-mode
// tokens. The caller (the parser) picks which scan method to call based on
// its own grammar state — the lexer itself has no notion of "mode" beyond
// the two entry points NextMarkup and NextContent.
type Lexer struct {
	src        *source.Stack
	buf        []rune
	line, col  int
	peekedTok  *Token
}

// New wraps a source stack for scanning.
func New(src *source.Stack) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) peek() (rune, bool, error) {
	if len(l.buf) > 0 {
		return l.buf[len(l.buf)-1], true, nil
	}
	r, ok, err := l.src.Next()
	if err != nil || !ok {
		return 0, ok, err
	}
	l.buf = append(l.buf, r)
	return r, true, nil
}

func (l *Lexer) advance() (rune, bool, error) {
	r, ok, err := l.peek()
	if err != nil || !ok {
		return r, ok, err
	}
	l.buf = l.buf[:len(l.buf)-1]
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r, true, nil
}

// Position reports the lexer's current line/column, for error reporting.
func (l *Lexer) Position() (int, int) { return l.line, l.col }

// Stack exposes the underlying source stack so higher layers (the DTD
// subset grammar, the document parser) can push parameter-entity and
// external-entity frames mid-scan.
func (l *Lexer) Stack() *source.Stack { return l.src }

func (l *Lexer) errf(kind xmlerr.Kind, format string, args ...any) error {
	return xmlerr.At(kind, l.line, l.col, format, args...)
}

// IsNameStartChar approximates the XML 1.0 NameStartChar production using
// Unicode letter/underscore/colon, which is the same approximation Go's own
// encoding/xml makes.
func IsNameStartChar(r rune) bool {
	return r == ':' || r == '_' || unicode.IsLetter(r)
}

// IsNameChar approximates NameChar: NameStartChar plus digits, '-', '.',
// and combining marks.
func IsNameChar(r rune) bool {
	return IsNameStartChar(r) || unicode.IsDigit(r) || r == '-' || r == '.' || unicode.IsMark(r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// IsChar validates the XML Char production used for character references.
func IsChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// --- low-level scanning primitives, shared by both modes ---

// SkipWhitespace consumes XML whitespace and returns whether any was
// consumed.
func (l *Lexer) SkipWhitespace() (bool, error) {
	any := false
	for {
		r, ok, err := l.peek()
		if err != nil {
			return any, err
		}
		if !ok || !isSpace(r) {
			return any, nil
		}
		l.advance()
		any = true
	}
}

// ScanName scans a NAME production (NameStartChar NameChar*).
func (l *Lexer) ScanName() (string, error) {
	r, ok, err := l.peek()
	if err != nil {
		return "", err
	}
	if !ok || !IsNameStartChar(r) {
		return "", l.errf(xmlerr.NotWellFormed, "expected name, found %q", r)
	}
	var sb strings.Builder
	for {
		r, ok, err := l.peek()
		if err != nil {
			return "", err
		}
		if !ok || !IsNameChar(r) {
			break
		}
		sb.WriteRune(r)
		l.advance()
	}
	return sb.String(), nil
}

// ScanQuoted scans a quoted STRING, stripping the surrounding quotes.
func (l *Lexer) ScanQuoted() (string, error) {
	q, ok, err := l.peek()
	if err != nil {
		return "", err
	}
	if !ok || (q != '"' && q != '\'') {
		return "", l.errf(xmlerr.NotWellFormed, "expected quoted literal, found %q", q)
	}
	l.advance()
	var sb strings.Builder
	for {
		r, ok, err := l.peek()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", l.errf(xmlerr.UnexpectedEOF, "unterminated quoted literal")
		}
		l.advance()
		if r == q {
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

// Match consumes the given literal if it is next in the stream, returning
// whether it matched. It never consumes on a non-match.
func (l *Lexer) Match(lit string) (bool, error) {
	runes := []rune(lit)
	saved := make([]rune, 0, len(runes))
	for i, want := range runes {
		r, ok, err := l.peekAt(i)
		if err != nil {
			return false, err
		}
		if !ok || r != want {
			return false, nil
		}
		saved = append(saved, r)
	}
	for range saved {
		l.advance()
	}
	return true, nil
}

// peekAt looks ahead n runes without consuming, filling the pushback buffer
// as needed. buf is stored reversed (last element is next-to-consume), so
// we fill it front-to-back by appending, then index from the end.
func (l *Lexer) peekAt(n int) (rune, bool, error) {
	for len(l.buf) <= n {
		r, ok, err := l.src.Next()
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		l.buf = append([]rune{r}, l.buf...)
	}
	return l.buf[len(l.buf)-1-n], true, nil
}

// Peek returns the next rune without consuming it.
func (l *Lexer) Peek() (rune, bool, error) { return l.peek() }

// Next consumes and returns the next rune.
func (l *Lexer) Next() (rune, bool, error) { return l.advance() }

// --- markup mode ---

// NextMarkup scans the next markup-mode token (first bullet).
// It returns a previously peeked token (via PeekMarkup) if one is pending.
func (l *Lexer) NextMarkup() (Token, error) {
	if l.peekedTok != nil {
		t := *l.peekedTok
		l.peekedTok = nil
		return t, nil
	}
	return l.scanMarkup()
}

// PeekMarkup returns the next markup-mode token without consuming it. A
// second call (with no intervening NextMarkup) returns the same token; the
// parser and DTD subset grammar need one token of lookahead to choose
// between alternative productions.
func (l *Lexer) PeekMarkup() (Token, error) {
	if l.peekedTok != nil {
		return *l.peekedTok, nil
	}
	t, err := l.scanMarkup()
	if err != nil {
		return Token{}, err
	}
	l.peekedTok = &t
	return t, nil
}

func (l *Lexer) scanMarkup() (Token, error) {
	line, col := l.line, l.col
	tok := func(k Kind, text string) (Token, error) { return Token{Kind: k, Text: text, Line: line, Column: col}, nil }

	if any, err := l.SkipWhitespace(); err != nil {
		return Token{}, err
	} else if any {
		return tok(Whitespace, " ")
	}

	r, ok, err := l.peek()
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return tok(EOF, "")
	}

	switch {
	case r == '<':
		return l.scanMarkupLT(tok)
	case r == '/':
		if m, err := l.Match("/>"); err != nil {
			return Token{}, err
		} else if m {
			return tok(EmptyClose, "/>")
		}
		return Token{}, l.errf(xmlerr.NotWellFormed, "stray '/' outside of an empty-element close")
	case r == '>':
		l.advance()
		return tok(GT, ">")
	case r == '=':
		l.advance()
		return tok(Eq, "=")
	case r == '(':
		l.advance()
		return tok(LParen, "(")
	case r == ')':
		l.advance()
		return tok(RParen, ")")
	case r == ',':
		l.advance()
		return tok(Comma, ",")
	case r == '|':
		l.advance()
		return tok(Pipe, "|")
	case r == '+':
		l.advance()
		return tok(Plus, "+")
	case r == '*':
		l.advance()
		return tok(Star, "*")
	case r == '?':
		if m, err := l.Match("?>"); err != nil {
			return Token{}, err
		} else if m {
			return tok(PIClose, "?>")
		}
		l.advance()
		return tok(Question, "?")
	case r == '#':
		l.advance()
		return tok(Hash, "#")
	case r == ';':
		l.advance()
		return tok(Semicolon, ";")
	case r == '[':
		l.advance()
		return tok(LBracket, "[")
	case r == ']':
		if m, err := l.Match("]]>"); err != nil {
			return Token{}, err
		} else if m {
			return tok(CondSectClose, "]]>")
		}
		l.advance()
		return tok(RBracket, "]")
	case r == '%':
		// '%' Name ';' (no intervening whitespace) is a parameter-entity
		// reference; a bare '%' — as in "<!ENTITY % name ..." — is its own
		// token.
		next, ok, err := l.peekAt(1)
		if err != nil {
			return Token{}, err
		}
		if !ok || !IsNameStartChar(next) {
			l.advance()
			return tok(Percent, "%")
		}
		l.advance()
		name, err := l.ScanName()
		if err != nil {
			return Token{}, err
		}
		if m, err := l.Match(";"); err != nil {
			return Token{}, err
		} else if !m {
			return Token{}, l.errf(xmlerr.NotWellFormed, "parameter entity reference %%%s missing ';'", name)
		}
		return tok(PEReference, name)
	case r == '"' || r == '\'':
		s, err := l.ScanQuoted()
		if err != nil {
			return Token{}, err
		}
		return tok(AttrString, s)
	case IsNameStartChar(r):
		name, err := l.ScanName()
		if err != nil {
			return Token{}, err
		}
		return tok(Name, name)
	default:
		return Token{}, l.errf(xmlerr.NotWellFormed, "unexpected character %q in markup", r)
	}
}

func (l *Lexer) scanMarkupLT(tok func(Kind, string) (Token, error)) (Token, error) {
	for _, m := range []struct {
		lit string
		k   Kind
	}{
		{"<?xml", XMLDeclOpen},
		{"<!--", CommentOpen},
		{"<!DOCTYPE", DoctypeOpen},
		{"<!ELEMENT", ElementOpen},
		{"<!ATTLIST", AttlistOpen},
		{"<!ENTITY", EntityOpen},
		{"<!NOTATION", NotationOpen},
		{"<![", CondSectOpen},
		{"<?", PIOpen},
		{"</", ETagOpen},
	} {
		if m.k == XMLDeclOpen {
			// "<?xml-stylesheet" and similar targets are ordinary PIs.
			if r, ok, err := l.peekAt(len(m.lit)); err != nil {
				return Token{}, err
			} else if ok && IsNameChar(r) {
				continue
			}
		}
		ok, err := l.Match(m.lit)
		if err != nil {
			return Token{}, err
		}
		if ok {
			return tok(m.k, m.lit)
		}
	}
	l.advance()
	return tok(LT, "<")
}

// --- content mode ---

// NextContent scans the next content-mode token (second
// bullet). A literal "]]>" in character data is a syntax error per the XML
// grammar and is reported here; CDATA section bodies are read with
// ScanCDATAContent instead, which treats "]]>" as the terminator.
func (l *Lexer) NextContent() (Token, error) {
	line, col := l.line, l.col
	tok := func(k Kind, text string) (Token, error) { return Token{Kind: k, Text: text, Line: line, Column: col}, nil }

	r, ok, err := l.peek()
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return tok(EOF, "")
	}

	switch r {
	case '<':
		if m, err := l.Match("<![CDATA["); err != nil {
			return Token{}, err
		} else if m {
			return tok(CDATAOpen, "<![CDATA[")
		}
		if m, err := l.Match("<!--"); err != nil {
			return Token{}, err
		} else if m {
			return tok(CommentOpen, "<!--")
		}
		if m, err := l.Match("<?"); err != nil {
			return Token{}, err
		} else if m {
			return tok(PIOpen, "<?")
		}
		if m, err := l.Match("</"); err != nil {
			return Token{}, err
		} else if m {
			return tok(ETagOpen, "</")
		}
		l.advance()
		return tok(STagOpen, "<")
	case '&':
		l.advance()
		return tok(Amp, "&")
	default:
		return l.scanCharData(tok)
	}
}

func (l *Lexer) scanCharData(tok func(Kind, string) (Token, error)) (Token, error) {
	var sb strings.Builder
	for {
		r, ok, err := l.peek()
		if err != nil {
			return Token{}, err
		}
		if !ok || r == '<' || r == '&' {
			break
		}
		if m, err := l.Match("]]>"); err != nil {
			return Token{}, err
		} else if m {
			return Token{}, l.errf(xmlerr.NotWellFormed, `"]]>" is not allowed in character data`)
		}
		l.advance()
		sb.WriteRune(r)
	}
	return tok(CharData, sb.String())
}

// ScanCDATAContent reads up to (not including) the terminating "]]>",
// which it consumes, returning the literal content in between.
func (l *Lexer) ScanCDATAContent() (string, error) {
	var sb strings.Builder
	for {
		if m, err := l.Match("]]>"); err != nil {
			return "", err
		} else if m {
			return sb.String(), nil
		}
		r, ok, err := l.advance()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", l.errf(xmlerr.UnexpectedEOF, "unterminated CDATA section")
		}
		sb.WriteRune(r)
	}
}

// ScanCommentContent reads up to (not including) the terminating "-->",
// which it consumes. A literal "--" inside a comment is a well-formedness
// error (runaway comment).
func (l *Lexer) ScanCommentContent() (string, error) {
	var sb strings.Builder
	for {
		if m, err := l.Match("-->"); err != nil {
			return "", err
		} else if m {
			return sb.String(), nil
		}
		if m, err := l.Match("--"); err != nil {
			return "", err
		} else if m {
			return "", l.errf(xmlerr.NotWellFormed, `"--" is not allowed inside a comment`)
		}
		r, ok, err := l.advance()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", l.errf(xmlerr.UnexpectedEOF, "unterminated comment")
		}
		sb.WriteRune(r)
	}
}

// ScanPIData reads a processing instruction's data up to (not including)
// the terminating "?>", which it consumes.
func (l *Lexer) ScanPIData() (string, error) {
	var sb strings.Builder
	for {
		if m, err := l.Match("?>"); err != nil {
			return "", err
		} else if m {
			return strings.TrimPrefix(sb.String(), " "), nil
		}
		r, ok, err := l.advance()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", l.errf(xmlerr.UnexpectedEOF, "unterminated processing instruction")
		}
		sb.WriteRune(r)
	}
}
