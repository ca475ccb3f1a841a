package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/goxmlkit/internal/source"
)

func newLexer(s string) *Lexer {
	return New(source.NewStack(source.NewRuneFrame(s, "")))
}

func TestNextMarkupTagPunctuation(t *testing.T) {
	l := newLexer(`<!ELEMENT foo (bar+, baz*)>`)

	tok, err := l.NextMarkup()
	require.NoError(t, err)
	require.Equal(t, ElementOpen, tok.Kind)

	tok, err = l.NextMarkup() // whitespace
	require.NoError(t, err)
	require.Equal(t, Whitespace, tok.Kind)

	tok, err = l.NextMarkup()
	require.NoError(t, err)
	require.Equal(t, Name, tok.Kind)
	require.Equal(t, "foo", tok.Text)
}

func TestNextMarkupPEReference(t *testing.T) {
	l := newLexer(`%frag;`)
	tok, err := l.NextMarkup()
	require.NoError(t, err)
	require.Equal(t, PEReference, tok.Kind)
	require.Equal(t, "frag", tok.Text)
}

func TestNextContentCharData(t *testing.T) {
	l := newLexer("hello <b>world</b>")
	tok, err := l.NextContent()
	require.NoError(t, err)
	require.Equal(t, CharData, tok.Kind)
	require.Equal(t, "hello ", tok.Text)

	tok, err = l.NextContent()
	require.NoError(t, err)
	require.Equal(t, STagOpen, tok.Kind)
}

func TestNextContentRejectsBareCloseBracket(t *testing.T) {
	l := newLexer("a]]>b")
	_, err := l.NextContent()
	require.Error(t, err)
}

func TestScanCDATAContent(t *testing.T) {
	l := newLexer("hi ]] there]]>rest")
	s, err := l.ScanCDATAContent()
	require.NoError(t, err)
	require.Equal(t, "hi ]] there", s)
}
