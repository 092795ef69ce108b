package demo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxnav"
)

// markup renders a component from a function building its HTML.
func markup(build func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		build(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func esc(s string) string { return templ.EscapeString(s) }

// blogShell is the document of BlogLayout. tags lists the sidebar; it is
// empty until the layout data arrives.
func blogShell(site string, tags []TagCount, active string) templ.Component {
	return markup(func(b *strings.Builder) {
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"/><title></title></head><body>`)
		fmt.Fprintf(b, `<header><a href="/">%s</a></header>`, esc(site))
		b.WriteString(`<nav class="tags"><ul>`)
		for _, t := range tags {
			class := ""
			if t.Tag == active {
				class = ` class="active"`
			}
			fmt.Fprintf(b, `<li><a href="/tags/%s"%s>%s</a> (%d)</li>`, esc(t.Tag), class, esc(t.Tag), t.Count)
		}
		b.WriteString(`</ul></nav><main data-slot="content"></main></body></html>`)
	})
}

// ArticleListView lists article summaries.
type ArticleListView struct {
	*hxnav.ViewBase
	heading  string
	articles []Article
}

// NewArticleListView creates a list under heading.
func NewArticleListView(heading string, articles []Article) *ArticleListView {
	v := &ArticleListView{heading: heading, articles: articles}
	v.ViewBase = hxnav.NewView("article-list", markup(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1><ul class="articles">`, esc(v.heading))
		for _, a := range v.articles {
			fmt.Fprintf(b, `<li><a href="/articles/%s">%s</a><p>%s</p></li>`,
				esc(a.Slug), esc(a.Title), esc(a.Summary))
		}
		b.WriteString(`</ul>`)
	}))
	return v
}

func (v *ArticleListView) Title() string { return v.heading }

// ArticleView shows one article. The tag list is a child view.
type ArticleView struct {
	*hxnav.ViewBase
	Article Article
}

// NewArticleView creates the view for a.
func NewArticleView(a Article) *ArticleView {
	v := &ArticleView{Article: a}
	v.ViewBase = hxnav.NewView("article", markup(func(b *strings.Builder) {
		fmt.Fprintf(b, `<article><h1>%s</h1><time>%s</time><p>%s</p><footer data-slot="tags"></footer></article>`,
			esc(a.Title), a.Published.UTC().Format("2006-01-02"), esc(a.Body))
	}))
	v.CreateChildView("tags", newTagListView(a.Tags))
	return v
}

func (v *ArticleView) Title() string { return v.Article.Title }

func (v *ArticleView) MetaTags() []hxnav.Tag {
	return []hxnav.Tag{hxnav.Metatags{
		"description": v.Article.Summary,
		"canonical":   "/articles/" + v.Article.Slug,
	}}
}

func newTagListView(tags []string) *hxnav.ViewBase {
	return hxnav.NewView("tag-list", markup(func(b *strings.Builder) {
		b.WriteString(`<ul class="tags">`)
		for _, t := range tags {
			fmt.Fprintf(b, `<li><a href="/tags/%s">%s</a></li>`, esc(t), esc(t))
		}
		b.WriteString(`</ul>`)
	}), hxnav.WithTagName("nav"))
}

type messageView struct {
	*hxnav.ViewBase
	title string
}

func (v *messageView) Title() string { return v.title }

func newMessageView(name, title, text string) hxnav.ViewFactory {
	return func() hxnav.View {
		return &messageView{
			ViewBase: hxnav.NewView(name, markup(func(b *strings.Builder) {
				fmt.Fprintf(b, `<h1 class="error">%s</h1><p>%s</p>`, esc(title), esc(text))
			})),
			title: title,
		}
	}
}
