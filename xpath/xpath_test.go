package xpath

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/goxmlkit/xmldom"
)

// buildLibrary builds:
//
//	<library xmlns:bk="urn:books">
//	  <book id="b1" bk:lang="en"><title>Go in Practice</title><price>29.95</price></book>
//	  <book id="b2" bk:lang="es"><title>El Quijote</title><price>12.50</price></book>
//	</library>
func buildLibrary(t *testing.T) *xmldom.Document {
	t.Helper()
	doc := xmldom.New()
	lib := xmldom.NewElement(xmldom.QName{Local: "library"})
	lib.DeclareNamespace("bk", "urn:books")
	doc.Root.AppendChild(lib)

	addBook := func(id, lang, title, price string) {
		b := xmldom.NewElement(xmldom.QName{Local: "book"})
		b.SetAttr("", "id", id)
		b.SetAttrQName(xmldom.QName{Prefix: "bk", Local: "lang", URI: "urn:books"}, lang)
		doc.RegisterID(id, b)
		lib.AppendChild(b)

		titleEl := xmldom.NewElement(xmldom.QName{Local: "title"})
		titleEl.AppendChild(xmldom.NewText(title))
		b.AppendChild(titleEl)

		priceEl := xmldom.NewElement(xmldom.QName{Local: "price"})
		priceEl.AppendChild(xmldom.NewText(price))
		b.AppendChild(priceEl)
	}
	addBook("b1", "en", "Go in Practice", "29.95")
	addBook("b2", "es", "El Quijote", "12.50")
	return doc
}

func evalNodes(t *testing.T, doc *xmldom.Document, xp string, namespaces map[string]string) []*xmldom.Node {
	t.Helper()
	expr, err := Compile(xp, namespaces)
	require.NoError(t, err)
	ctx := NewContext(doc.Element())
	ctx.Doc = doc
	nodes, err := expr.Evaluate(doc.Root, ctx)
	require.NoError(t, err)
	return nodes
}

func TestChildAndAttributeAxes(t *testing.T) {
	doc := buildLibrary(t)

	titles := evalNodes(t, doc, "/library/book/title", nil)
	require.Len(t, titles, 2)
	require.Equal(t, "Go in Practice", titles[0].Str())
	require.Equal(t, "El Quijote", titles[1].Str())

	ids := evalNodes(t, doc, "//book/@id", nil)
	require.Len(t, ids, 2)
	require.Equal(t, "b1", ids[0].Data)
	require.Equal(t, "b2", ids[1].Data)
}

func TestPredicatePositionAndLast(t *testing.T) {
	doc := buildLibrary(t)

	first := evalNodes(t, doc, "/library/book[1]", nil)
	require.Len(t, first, 1)
	idAttr, ok := first[0].Attr("", "id")
	require.True(t, ok)
	require.Equal(t, "b1", idAttr)

	last := evalNodes(t, doc, "/library/book[last()]", nil)
	require.Len(t, last, 1)
	idAttr, ok = last[0].Attr("", "id")
	require.True(t, ok)
	require.Equal(t, "b2", idAttr)
}

func TestNamespacedAttributeTest(t *testing.T) {
	doc := buildLibrary(t)
	ns := map[string]string{"bk": "urn:books"}
	nodes := evalNodes(t, doc, "//book[@bk:lang='es']/title", ns)
	require.Len(t, nodes, 1)
	require.Equal(t, "El Quijote", nodes[0].Str())
}

func TestIDFunction(t *testing.T) {
	doc := buildLibrary(t)
	nodes := evalNodes(t, doc, "id('b2')/title", nil)
	require.Len(t, nodes, 1)
	require.Equal(t, "El Quijote", nodes[0].Str())
}

func TestArithmeticSumAndCount(t *testing.T) {
	// Mirrors a worked example: given <l><i>1</i><i>2</i><i>3</i></l>,
	// sum(/l/i) + count(/l/i) == 9, and /l/i[position()=last()] is "3".
	doc := xmldom.New()
	l := xmldom.NewElement(xmldom.QName{Local: "l"})
	doc.Root.AppendChild(l)
	for _, v := range []string{"1", "2", "3"} {
		i := xmldom.NewElement(xmldom.QName{Local: "i"})
		i.AppendChild(xmldom.NewText(v))
		l.AppendChild(i)
	}

	expr, err := Compile("sum(/l/i) + count(/l/i)", nil)
	require.NoError(t, err)
	ctx := NewContext(doc.Element())
	v, err := expr.EvalValue(doc.Root, ctx)
	require.NoError(t, err)
	require.Equal(t, Number, v.Kind)
	require.Equal(t, 9.0, v.Num)

	last := evalNodes(t, doc, "/l/i[position()=last()]", nil)
	require.Len(t, last, 1)
	require.Equal(t, "3", last[0].Str())
}

func TestAbbreviationEquivalence(t *testing.T) {
	doc := buildLibrary(t)

	a := evalNodes(t, doc, "//title", nil)
	b := evalNodes(t, doc, "/descendant-or-self::node()/title", nil)
	c := evalNodes(t, doc, "/descendant::title", nil)
	require.Equal(t, a, b)
	require.Equal(t, a, c)
}

func TestStringFunctions(t *testing.T) {
	doc := buildLibrary(t)
	expr, err := Compile("concat('Book: ', /library/book[1]/title)", nil)
	require.NoError(t, err)
	v, err := expr.EvalValue(doc.Root, NewContext(doc.Element()))
	require.NoError(t, err)
	require.Equal(t, String, v.Kind)
	require.Equal(t, "Book: Go in Practice", v.Str)

	expr2, err := Compile("starts-with(/library/book[2]/title, 'El')", nil)
	require.NoError(t, err)
	v2, err := expr2.EvalValue(doc.Root, NewContext(doc.Element()))
	require.NoError(t, err)
	require.True(t, v2.ToBoolean())
}

func TestUnionAndParentAxis(t *testing.T) {
	doc := buildLibrary(t)
	nodes := evalNodes(t, doc, "//title | //price", nil)
	require.Len(t, nodes, 4)

	books := evalNodes(t, doc, "//title/..", nil)
	require.Len(t, books, 2)
	for _, b := range books {
		require.Equal(t, "book", b.Name.Local)
	}
}

func TestMatches(t *testing.T) {
	doc := buildLibrary(t)
	expr, err := Compile("//book[@id='b1']", nil)
	require.NoError(t, err)
	target := evalNodes(t, doc, "/library/book[1]", nil)[0]
	ok, err := expr.Matches(target)
	require.NoError(t, err)
	require.True(t, ok)

	other := evalNodes(t, doc, "/library/book[2]", nil)[0]
	ok, err = expr.Matches(other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVariableBinding(t *testing.T) {
	doc := buildLibrary(t)
	expr, err := Compile("//book[@id=$wanted]/title", nil)
	require.NoError(t, err)
	ctx := NewContext(doc.Element())
	ctx.SetString("wanted", "b2")
	v, err := expr.EvalValue(doc.Root, ctx)
	require.NoError(t, err)
	nodes, err := v.ToNodeSet()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "El Quijote", nodes[0].Str())
}

func TestUndefinedVariableFails(t *testing.T) {
	expr, err := Compile("$missing", nil)
	require.NoError(t, err)
	doc := buildLibrary(t)
	_, err = expr.EvalValue(doc.Root, NewContext(doc.Element()))
	require.Error(t, err)
}

func TestSyntaxErrorReported(t *testing.T) {
	_, err := Compile("//book[", nil)
	require.Error(t, err)
}
