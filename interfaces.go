package hxnav

import (
	"context"

	"golang.org/x/net/html"

	"github.com/pthm/hxnav/lib/dom"
)

// Renderable produces a view's markup.
//
// Render is idempotent within a render cycle: once HasBeenRendered reports
// true, further calls do nothing.
type Renderable interface {
	Render(ctx context.Context) error
	HasBeenRendered() bool
}

// Attachable binds a view to markup that already exists in a document,
// typically produced by the server for the first page load.
type Attachable interface {
	Reattach(doc *dom.Document)
	IsAttached() bool
}

// Closeable tears a view down. Close is idempotent.
type Closeable interface {
	Close()
	IsClosed() bool
}

// View is a composable UI unit with an identity and a lifecycle.
//
// Most views embed *ViewBase, which implements everything here:
//
//	type ArticleView struct {
//	    *hxnav.ViewBase
//	    Article Article
//	}
//
//	func NewArticleView(a Article) *ArticleView {
//	    return &ArticleView{
//	        ViewBase: hxnav.NewView("article", articleTemplate(a)),
//	        Article:  a,
//	    }
//	}
type View interface {
	Renderable
	Attachable
	Closeable

	// Name identifies the view in logs and spans.
	Name() string
	UID() string
	SetUID(uid string)
	Element() *html.Node

	// EnterDOM signals that the view is live in the document.
	EnterDOM()
}

// Titled is implemented by views that set the page title.
type Titled interface {
	Title() string
}

// MetaTagged is implemented by views that contribute head tags.
type MetaTagged interface {
	MetaTags() []Tag
}
