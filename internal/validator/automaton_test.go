package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/goxmlkit/internal/dtd"
	"github.com/arturoeanton/goxmlkit/internal/lexer"
	"github.com/arturoeanton/goxmlkit/internal/source"
)

func contentModel(t *testing.T, spec string) *dtd.ContentModel {
	t.Helper()
	l := lexer.New(source.NewStack(source.NewRuneFrame(spec, "")))
	cm, err := dtd.ParseContentModel(l)
	require.NoError(t, err)
	return cm
}

func TestAutomatonEmptyAndAny(t *testing.T) {
	a := Compile(contentModel(t, "EMPTY"))
	require.True(t, a.Done())
	require.False(t, a.Allow("x"))
	require.False(t, a.AllowCharData())

	a = Compile(contentModel(t, "ANY"))
	require.True(t, a.Done())
	require.True(t, a.Allow("anything"))
	require.True(t, a.AllowCharData())
}

func TestAutomatonMixedContent(t *testing.T) {
	a := Compile(contentModel(t, "(#PCDATA|a|b)*"))
	require.True(t, a.Done())
	require.True(t, a.AllowCharData())
	require.True(t, a.Allow("a"))
	require.True(t, a.Allow("b"))
	require.True(t, a.Allow("a"))
	require.False(t, a.Allow("c"))
	require.True(t, a.Done())
}

func TestAutomatonSequence(t *testing.T) {
	a := Compile(contentModel(t, "(title,author+,body?)"))
	require.False(t, a.Done())
	require.False(t, a.Allow("author")) // title required first
	require.True(t, a.Allow("title"))
	require.False(t, a.Done())
	require.True(t, a.Allow("author"))
	require.True(t, a.Done()) // body is optional, author already satisfies +
	require.True(t, a.Allow("author"))
	require.True(t, a.Done())
	require.True(t, a.Allow("body"))
	require.True(t, a.Done())
	require.False(t, a.Allow("body")) // body is not repeatable
}

func TestAutomatonChoiceCommits(t *testing.T) {
	// Once the choice commits to the (a,b) branch on seeing 'a', it must
	// not accept 'c' or 'd' from the other branch even though a fresh
	// choice at this position would have allowed them.
	a := Compile(contentModel(t, "((a,b)|(c,d))"))
	require.False(t, a.Done())
	require.True(t, a.Allow("a"))
	require.False(t, a.Allow("d"))
	require.False(t, a.Allow("c"))
	require.True(t, a.Allow("b"))
	require.True(t, a.Done())
}

func TestAutomatonRepeatedChoiceAllowsDifferentBranchesEachCycle(t *testing.T) {
	// "(a|b)+" re-seeds the choice on every new repetition, so distinct
	// cycles may pick distinct alternatives.
	a := Compile(contentModel(t, "(a|b)+"))
	require.True(t, a.Allow("a"))
	require.True(t, a.Done())
	require.True(t, a.Allow("b"))
	require.True(t, a.Allow("a"))
	require.True(t, a.Done())
}

func TestAutomatonEmptyAcceptanceMatchesMayBeEmpty(t *testing.T) {
	for _, spec := range []string{"EMPTY", "ANY", "(#PCDATA)", "(#PCDATA|a)*", "(a,b)", "(a,b)?", "(a?,b?)"} {
		cm := contentModel(t, spec)
		a := Compile(cm)
		require.Equal(t, cm.MayBeEmpty(), a.Done(), "mismatch for %s", spec)
	}
}

func TestAutomatonCloneIsIndependent(t *testing.T) {
	tmpl := Compile(contentModel(t, "(a,b)"))
	c1 := tmpl.Clone()
	c2 := tmpl.Clone()
	require.True(t, c1.Allow("a"))
	require.False(t, c2.Done())
	require.True(t, c2.Allow("a"))
	require.True(t, c1.Allow("b"))
	require.True(t, c1.Done())
	require.False(t, c2.Done())
}
