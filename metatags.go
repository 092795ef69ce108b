package hxnav

import (
	"context"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Tag is a piece of <head> markup contributed by a view.
//
// Every tag renders with data-ephemeral="true" so the layout can remove it
// before the next view sets its own tags.
type Tag interface {
	HTML() string
}

// Metatags renders <meta name content> pairs. The "canonical" key renders
// a canonical link instead.
//
//	func (v *ArticleView) MetaTags() []hxnav.Tag {
//	    return []hxnav.Tag{hxnav.Metatags{"description": v.Article.Summary}}
//	}
type Metatags map[string]string

// HTML renders the tags sorted by name.
func (m Metatags) HTML() string {
	var sb strings.Builder
	for _, name := range sortedKeys(m) {
		if name == "canonical" {
			writeLink(&sb, "canonical", m[name])
			continue
		}
		sb.WriteString(`<meta name="`)
		sb.WriteString(html.EscapeString(name))
		sb.WriteString(`" content="`)
		sb.WriteString(html.EscapeString(m[name]))
		sb.WriteString(`" data-ephemeral="true">`)
	}
	return sb.String()
}

// OpenGraphTags renders <meta property content> pairs. Keys are used as the
// property verbatim, e.g. "og:title".
type OpenGraphTags map[string]string

// HTML renders the tags sorted by property.
func (m OpenGraphTags) HTML() string {
	var sb strings.Builder
	for _, property := range sortedKeys(m) {
		sb.WriteString(`<meta property="`)
		sb.WriteString(html.EscapeString(property))
		sb.WriteString(`" content="`)
		sb.WriteString(html.EscapeString(m[property]))
		sb.WriteString(`" data-ephemeral="true">`)
	}
	return sb.String()
}

// LinkTags renders <link rel href> pairs keyed by rel.
type LinkTags map[string]string

// HTML renders the links sorted by rel.
func (m LinkTags) HTML() string {
	var sb strings.Builder
	for _, rel := range sortedKeys(m) {
		writeLink(&sb, rel, m[rel])
	}
	return sb.String()
}

func writeLink(sb *strings.Builder, rel, href string) {
	sb.WriteString(`<link rel="`)
	sb.WriteString(html.EscapeString(rel))
	sb.WriteString(`" href="`)
	sb.WriteString(html.EscapeString(href))
	sb.WriteString(`" data-ephemeral="true">`)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HeadTags returns a templ component writing tags, for layouts that want to
// place default tags in their own template:
//
//	<head>
//	    @hxnav.HeadTags(hxnav.LinkTags{"icon": "/favicon.ico"})
//	</head>
func HeadTags(tags ...Tag) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, t := range tags {
			if t == nil {
				continue
			}
			if _, err := io.WriteString(w, t.HTML()); err != nil {
				return err
			}
		}
		return nil
	})
}
