package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverPage = `<!DOCTYPE html>
<html><head><title>Home</title><meta name="description" content="x" data-ephemeral="true"></head>
<body><main data-slot="content"><div data-view-uid="1|0_0"><p>hello</p><section data-view-uid="1|0_0_0"></section></div></main></body></html>`

func TestParseAndQuery(t *testing.T) {
	doc, err := ParseString(serverPage)
	require.NoError(t, err)

	assert.NotNil(t, doc.DocumentElement())
	assert.NotNil(t, doc.Head())
	assert.NotNil(t, doc.Body())
	assert.Equal(t, "Home", doc.Title())

	slot := Find(doc.Node(), ByAttr(SlotAttribute, "content"))
	require.NotNil(t, slot)
	assert.Equal(t, "main", slot.Data)

	ephemeral := FindAll(doc.Head(), ByAttr(EphemeralAttribute, "true"))
	assert.Len(t, ephemeral, 1)
}

func TestServerViewIndex(t *testing.T) {
	doc, err := ParseString(serverPage)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.IndexServerViews())

	el := doc.TakeServerView("1|0_0")
	require.NotNil(t, el)
	assert.Equal(t, "div", el.Data)

	// Claimed elements are purged from the index.
	assert.Nil(t, doc.TakeServerView("1|0_0"))
	assert.NotNil(t, doc.TakeServerView("1|0_0_0"))

	doc.IndexServerViews()
	doc.ResetServerViews()
	assert.Nil(t, doc.TakeServerView("1|0_0"))
}

func TestSetTitle(t *testing.T) {
	doc := New()
	doc.SetTitle("First")
	assert.Equal(t, "First", doc.Title())

	doc.SetTitle("Second & more")
	assert.Equal(t, "Second & more", doc.Title())

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Second &amp; more</title>")
}

func TestFragmentAndReplaceChildren(t *testing.T) {
	doc := New()
	nodes, err := ParseFragment(`<h1>a</h1><p>b</p>`, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	ReplaceChildren(doc.Body(), nodes...)
	inner, err := InnerHTML(doc.Body())
	require.NoError(t, err)
	assert.Equal(t, "<h1>a</h1><p>b</p>", inner)

	Detach(nodes[0])
	Detach(nodes[0]) // already detached
	inner, err = InnerHTML(doc.Body())
	require.NoError(t, err)
	assert.Equal(t, "<p>b</p>", inner)
}

func TestStringKeepsDoctype(t *testing.T) {
	doc, err := ParseString(serverPage)
	require.NoError(t, err)

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"), out)
}

func TestAttrHelpers(t *testing.T) {
	el := NewElement("div")
	_, ok := Attr(el, "id")
	assert.False(t, ok)

	SetAttr(el, "id", "a")
	SetAttr(el, "id", "b")
	v, ok := Attr(el, "id")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Len(t, el.Attr, 1)

	doc := New()
	AppendChildren(doc.Body(), el)
	assert.Same(t, el, doc.ElementByID("b"))

	first := NewElement("span")
	PrependChild(doc.Body(), first)
	assert.Same(t, first, doc.Body().FirstChild)
}
