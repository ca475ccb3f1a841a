package dtd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/internal/source"
)

func newLexer(s string) *lexer.Lexer {
	return lexer.New(source.NewStack(source.NewRuneFrame(s, "")))
}

func TestParseContentModelEmptyAndAny(t *testing.T) {
	cm, err := ParseContentModel(newLexer("EMPTY"))
	require.NoError(t, err)
	require.Equal(t, CTEmpty, cm.Type)
	require.True(t, cm.MayBeEmpty())

	cm, err = ParseContentModel(newLexer("ANY"))
	require.NoError(t, err)
	require.Equal(t, CTAny, cm.Type)
}

func TestParseContentModelMixed(t *testing.T) {
	cm, err := ParseContentModel(newLexer("(#PCDATA|a|b)*"))
	require.NoError(t, err)
	require.Equal(t, CTMixed, cm.Type)
	require.Equal(t, []string{"a", "b"}, cm.Names)
	require.True(t, cm.MayBeEmpty())

	cm, err = ParseContentModel(newLexer("(#PCDATA)"))
	require.NoError(t, err)
	require.Equal(t, CTMixed, cm.Type)
	require.Empty(t, cm.Names)
}

func TestParseContentModelChildren(t *testing.T) {
	cm, err := ParseContentModel(newLexer("(title, (author|editor)+, body?)"))
	require.NoError(t, err)
	require.Equal(t, CTSeq, cm.Type)
	require.Len(t, cm.Parts, 3)
	require.Equal(t, CTName, cm.Parts[0].Type)
	require.Equal(t, "title", cm.Parts[0].Name)
	require.Equal(t, CTChoice, cm.Parts[1].Type)
	require.Equal(t, QPlus, cm.Parts[1].Quant)
	require.Equal(t, QOpt, cm.Parts[2].Quant)
	require.False(t, cm.MayBeEmpty())
}

func TestParseContentModelRoundTripString(t *testing.T) {
	cm, err := ParseContentModel(newLexer("(a,b*,c+)"))
	require.NoError(t, err)
	require.Equal(t, "(a,b*,c+)", cm.String())
}
