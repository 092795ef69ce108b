package hxnav

import (
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxnav/lib/dom"
)

func outerHTML(t *testing.T, v View) string {
	t.Helper()
	require.NotNil(t, v.Element())
	html, err := dom.OuterHTML(v.Element())
	require.NoError(t, err)
	return html
}

func TestViewRender(t *testing.T) {
	v := NewView("card", StaticMarkup(`<p>card</p>`))
	v.SetUID("u1")

	require.NoError(t, v.Render(context.Background()))

	assert.True(t, v.HasBeenRendered())
	assert.False(t, v.IsAttached())
	assert.Equal(t, `<div data-view-uid="u1"><p>card</p></div>`, outerHTML(t, v))
}

func TestViewRenderIsIdempotent(t *testing.T) {
	renders := 0
	v := NewView("card", StaticMarkup(`<p>card</p>`), WithHooks(ViewHooks{
		BeforeRender: func() { renders++ },
	}))

	require.NoError(t, v.Render(context.Background()))
	el := v.Element()
	require.NoError(t, v.Render(context.Background()))

	assert.Equal(t, 1, renders)
	assert.Same(t, el, v.Element())
}

func TestViewTagNameAndTemplateFunc(t *testing.T) {
	label := "before"
	v := NewView("item", nil,
		WithTagName("li"),
		WithTemplateFunc(func() templ.Component { return StaticMarkup(label) }),
	)
	label = "after"

	require.NoError(t, v.Render(context.Background()))
	assert.Equal(t, `<li>after</li>`, outerHTML(t, v))
}

func TestRenderOfClosedViewFails(t *testing.T) {
	v := NewView("card", nil)
	v.Close()

	assert.Error(t, v.Render(context.Background()))
	assert.True(t, v.IsClosed())
}

func TestCreateChildViewRendersWithParent(t *testing.T) {
	parent := NewView("page", StaticMarkup(`<h1>page</h1><section data-slot="side"></section>`))
	parent.SetUID("p")
	child := NewView("side", StaticMarkup(`<span>child</span>`))
	parent.CreateChildView("side", child)

	require.NoError(t, parent.Render(context.Background()))

	assert.Equal(t, "p_0", child.UID())
	assert.True(t, child.HasBeenRendered())
	assert.Equal(t,
		`<div data-view-uid="p"><h1>page</h1><section data-slot="side"><div data-view-uid="p_0"><span>child</span></div></section></div>`,
		outerHTML(t, parent))
	assert.Same(t, View(child), parent.ChildView("side"))
}

func TestReplaceChildViewClosesPrevious(t *testing.T) {
	parent := NewView("page", StaticMarkup(`<section data-slot="main"></section>`))
	parent.SetUID("p")

	closed := 0
	first := NewView("first", StaticMarkup(`first`), WithHooks(ViewHooks{OnClose: func() { closed++ }}))
	second := NewView("second", StaticMarkup(`second`))

	ctx := context.Background()
	require.NoError(t, parent.Render(ctx))
	require.NoError(t, parent.ReplaceChildView(ctx, "main", first))
	require.NoError(t, parent.ReplaceChildView(ctx, "main", second))

	assert.Equal(t, 1, closed)
	assert.True(t, first.IsClosed())
	assert.Equal(t, "p_1", second.UID())
	assert.Equal(t,
		`<div data-view-uid="p"><section data-slot="main"><div data-view-uid="p_1">second</div></section></div>`,
		outerHTML(t, parent))
}

func TestReplaceChildViewMissingSlot(t *testing.T) {
	parent := NewView("page", StaticMarkup(`<p>no slots</p>`))
	ctx := context.Background()
	require.NoError(t, parent.Render(ctx))

	err := parent.ReplaceChildView(ctx, "main", NewView("child", nil))
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestSlotLookupSkipsNestedViews(t *testing.T) {
	parent := NewView("page", StaticMarkup(`<div data-slot="x"></div>`))
	parent.SetUID("p")
	inner := NewView("inner", StaticMarkup(`<div data-slot="deep"></div>`))
	parent.CreateChildView("x", inner)

	ctx := context.Background()
	require.NoError(t, parent.Render(ctx))

	err := parent.ReplaceChildView(ctx, "deep", NewView("child", nil))
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestReattachClaimsServerMarkup(t *testing.T) {
	doc, err := dom.ParseString(`<!DOCTYPE html><html><body><div data-slot="content"><div data-view-uid="1|0_0"><p>server</p></div></div></body></html>`)
	require.NoError(t, err)
	require.Equal(t, 1, doc.IndexServerViews())

	v := NewView("article", StaticMarkup(`<p>client</p>`))
	v.SetUID("1|0_0")
	v.Reattach(doc)
	require.True(t, v.IsAttached())
	require.NoError(t, v.Render(context.Background()))
	assert.Equal(t, `<div data-view-uid="1|0_0"><p>server</p></div>`, outerHTML(t, v))

	again := NewView("article", nil)
	again.SetUID("1|0_0")
	again.Reattach(doc)
	assert.False(t, again.IsAttached())
}

func TestReattachWithoutMatch(t *testing.T) {
	doc := dom.New()
	doc.IndexServerViews()

	v := NewView("article", nil)
	v.SetUID("2|0_1")
	v.Reattach(doc)
	assert.False(t, v.IsAttached())
}

func TestEnterDOMRecursesOnce(t *testing.T) {
	var entered []string
	hook := func(name string) ViewOption {
		return WithHooks(ViewHooks{OnEnterDOM: func() { entered = append(entered, name) }})
	}

	parent := NewView("parent", StaticMarkup(`<div data-slot="a"></div>`), hook("parent"))
	child := NewView("child", nil, hook("child"))
	parent.CreateChildView("a", child)
	require.NoError(t, parent.Render(context.Background()))

	parent.EnterDOM()
	parent.EnterDOM()

	assert.Equal(t, []string{"parent", "child"}, entered)
	assert.True(t, child.IsInDOM())
}

func TestCloseOrder(t *testing.T) {
	var closed []string
	hook := func(name string) ViewOption {
		return WithHooks(ViewHooks{OnClose: func() { closed = append(closed, name) }})
	}

	parent := NewView("parent", StaticMarkup(`<div data-slot="a"></div><div data-slot="b"></div>`), hook("parent"))
	a := NewView("a", nil, hook("a"))
	b := NewView("b", nil, hook("b"))
	parent.CreateChildView("a", a)
	parent.CreateChildView("b", b)
	require.NoError(t, parent.Render(context.Background()))

	slot := a.Element().Parent
	parent.Close()
	parent.Close()

	assert.Equal(t, []string{"b", "a", "parent"}, closed)
	assert.Nil(t, parent.Element())
	assert.Nil(t, slot.FirstChild)
}

func TestCloseChildView(t *testing.T) {
	parent := NewView("parent", StaticMarkup(`<div data-slot="a"></div>`))
	child := NewView("child", nil)
	parent.CreateChildView("a", child)

	parent.CloseChildView("a")

	assert.True(t, child.IsClosed())
	assert.Nil(t, parent.ChildView("a"))
}
