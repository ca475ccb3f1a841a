package dtd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSubsetElementsAndAttlists(t *testing.T) {
	m := NewModel()
	l := newLexer(`<!ELEMENT book (title, author+)>
<!ATTLIST book
  id ID #REQUIRED
  lang CDATA "en"
  status (draft|final) "draft">
`)
	require.NoError(t, ParseSubset(l, m, nil))

	el, ok := m.Element("book")
	require.True(t, ok)
	require.Equal(t, CTSeq, el.Content.Type)

	attrs := m.Attributes("book")
	require.Len(t, attrs, 3)
	require.Equal(t, "id", attrs[0].Name)
	require.Equal(t, ID, attrs[0].Type)
	require.Equal(t, Required, attrs[0].Default)
	require.Equal(t, "en", attrs[1].DefaultValue)
	require.Equal(t, Enumeration, attrs[2].Type)
	require.Equal(t, []string{"draft", "final"}, attrs[2].Values)
}

func TestParseSubsetEntitiesAndNotation(t *testing.T) {
	m := NewModel()
	l := newLexer(`<!ENTITY publisher "Acme, Inc.">
<!ENTITY % common "id CDATA #IMPLIED">
<!NOTATION png SYSTEM "image/png">
<!ENTITY logo SYSTEM "logo.png" NDATA png>
`)
	require.NoError(t, ParseSubset(l, m, nil))

	ge, ok := m.GeneralEntity("publisher")
	require.True(t, ok)
	require.Equal(t, "Acme, Inc.", ge.Value)

	pe, ok := m.ParameterEntity("common")
	require.True(t, ok)
	require.Equal(t, ParameterInternal, pe.Type)

	n, ok := m.Notation("png")
	require.True(t, ok)
	require.Equal(t, "image/png", n.SystemID)

	logo, ok := m.GeneralEntity("logo")
	require.True(t, ok)
	require.True(t, logo.IsUnparsed())
	require.Equal(t, "png", logo.NotationName)
}

func TestParseSubsetExpandsParameterEntityBetweenDeclarations(t *testing.T) {
	m := NewModel()
	l := newLexer(`<!ENTITY % attrs "id CDATA #IMPLIED">
<!ELEMENT item ANY>
<!ATTLIST item %attrs;>
`)
	require.NoError(t, ParseSubset(l, m, nil))

	attrs := m.Attributes("item")
	require.Len(t, attrs, 1)
	require.Equal(t, "id", attrs[0].Name)
	require.Equal(t, Implied, attrs[0].Default)
}

func TestParseSubsetConditionalSections(t *testing.T) {
	m := NewModel()
	l := newLexer(`<![INCLUDE[
<!ELEMENT kept ANY>
]]>
<![IGNORE[
<!ELEMENT dropped ANY>
]]>
`)
	require.NoError(t, ParseSubset(l, m, nil))

	_, ok := m.Element("kept")
	require.True(t, ok)
	_, ok = m.Element("dropped")
	require.False(t, ok)
}

func TestPredefinedEntitiesAreSeeded(t *testing.T) {
	m := NewModel()
	e, ok := m.GeneralEntity("amp")
	require.True(t, ok)
	require.Equal(t, "&", e.Value)
}
