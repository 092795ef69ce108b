// Package demo is a small blog served by the hxnav command. It exercises
// layouts with fetched data, child views, redirects, error views and
// bootstrap state.
package demo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/lib/dom"
)

// EnvSiteName is the environment config key holding the blog name.
const EnvSiteName = "siteName"

const defaultSiteName = "hxnav blog"

// BlogLayout is the layout of every demo page: a header, a tag sidebar
// filled from layout data, and the content slot.
type BlogLayout struct {
	*hxnav.LayoutBase
	tags      []TagCount
	activeTag string
}

// NewBlogLayoutKind defines the blog layout kind reading tags from store.
func NewBlogLayoutKind(store *Store) *hxnav.LayoutKind {
	return hxnav.DefineLayout("blog", func(k *hxnav.LayoutKind) hxnav.Layout {
		l := &BlogLayout{}
		l.LayoutBase = hxnav.NewLayout(k, nil,
			hxnav.WithDefaultTitle(defaultSiteName),
			hxnav.WithClientMetaTags(),
			hxnav.WithDataFetcher(func(context.Context, hxnav.EnvironmentConfig) (any, error) {
				return store.Tags(), nil
			}),
			hxnav.WithDataHydrater(func(data any) {
				tags, _ := data.([]TagCount)
				l.tags = tags
			}),
			hxnav.WithBackToNormal(func() { l.SetActiveTag("") }),
			hxnav.WithViewOptions(hxnav.WithTemplateFunc(l.shell)),
		)
		return l
	})
}

func (l *BlogLayout) shell() templ.Component {
	site := l.EnvironmentConfig().String(EnvSiteName)
	if site == "" {
		site = defaultSiteName
	}
	return blogShell(site, l.tags, l.activeTag)
}

// Tags returns the hydrated tag counts.
func (l *BlogLayout) Tags() []TagCount { return l.tags }

// ActiveTag returns the highlighted sidebar tag.
func (l *BlogLayout) ActiveTag() string { return l.activeTag }

// SetActiveTag highlights tag in the sidebar. An empty tag clears it.
func (l *BlogLayout) SetActiveTag(tag string) {
	l.activeTag = tag
	doc := l.Document()
	if doc == nil {
		return
	}
	nav := dom.Find(doc.Node(), dom.ByTag("nav"))
	if nav == nil {
		return
	}
	for _, a := range dom.FindAll(nav, dom.ByTag("a")) {
		href, _ := dom.Attr(a, "href")
		if tag != "" && href == "/tags/"+tag {
			dom.SetAttr(a, "class", "active")
		} else {
			removeAttr(a, "class")
		}
	}
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// NewRoutes builds the demo route table over store.
func NewRoutes(store *Store) *hxnav.RouteTable {
	router := &hxnav.BaseRouter{
		LayoutKind: NewBlogLayoutKind(store),
		ErrorViewMapping: hxnav.NewErrorViewMapping(map[int]hxnav.ViewFactory{
			http.StatusNotFound:            newMessageView("not-found", "Not found", "There is nothing here."),
			http.StatusInternalServerError: newMessageView("server-error", "Something went wrong", "Please try again later."),
		}),
	}
	h := &handlers{store: store}
	return hxnav.NewRouteTable().
		Add("/", router, h.index).
		Add("/articles/{slug}", router, h.article).
		Add("/tags/{tag}", router, h.tag)
}

type handlers struct {
	store *Store
}

func (h *handlers) index(_ context.Context, _ *hxnav.Navigation) (hxnav.View, error) {
	return NewArticleListView("Latest articles", h.store.List("")), nil
}

func (h *handlers) article(ctx context.Context, nav *hxnav.Navigation) (hxnav.View, error) {
	slug := nav.Args[0]
	key := "article:" + slug

	var a Article
	ok, err := hxnav.Bootstrapped(ctx, key, &a)
	if err != nil {
		return nil, err
	}
	if !ok {
		if a, ok = h.store.Get(slug); !ok {
			if to, moved := h.store.MovedTo(slug); moved {
				return nil, nav.Response.RedirectWithStatus("/articles/"+to, http.StatusMovedPermanently)
			}
			return nil, hxnav.NewStatusError(http.StatusNotFound, fmt.Errorf("article %q", slug))
		}
		hxnav.Record(ctx, key, a)
	}
	return NewArticleView(a), nil
}

func (h *handlers) tag(_ context.Context, nav *hxnav.Navigation) (hxnav.View, error) {
	tag := nav.Args[0]
	articles := h.store.List(tag)
	if len(articles) == 0 {
		return nil, hxnav.NewStatusError(http.StatusNotFound, fmt.Errorf("tag %q", tag))
	}
	hxnav.DoAs(nav.Layout, func(l *BlogLayout) { l.SetActiveTag(tag) })
	return NewArticleListView("Tagged "+tag, articles), nil
}
