package hxnav

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// ViewFactory constructs a view.
type ViewFactory func() View

// ErrorViewMapping maps failure statuses to the views rendered in place of
// the route's content. It is immutable.
//
//	errorViews := hxnav.NewErrorViewMapping(map[int]hxnav.ViewFactory{
//	    404: func() hxnav.View { return NewNotFoundView() },
//	    500: func() hxnav.View { return NewErrorPage() },
//	})
type ErrorViewMapping struct {
	views map[int]ViewFactory
}

// NewErrorViewMapping copies views into a new mapping.
func NewErrorViewMapping(views map[int]ViewFactory) *ErrorViewMapping {
	m := &ErrorViewMapping{views: make(map[int]ViewFactory, len(views))}
	for status, f := range views {
		if f != nil {
			m.views[status] = f
		}
	}
	return m
}

// ViewFor returns the factory for status. Unmapped statuses, including 0
// for "no status", fall back to the 500 view and then to DefaultErrorView.
// A nil mapping behaves like an empty one.
func (m *ErrorViewMapping) ViewFor(status int) ViewFactory {
	if m != nil {
		if f, ok := m.views[status]; ok {
			return f
		}
		if f, ok := m.views[http.StatusInternalServerError]; ok {
			return f
		}
	}
	return func() View { return DefaultErrorView(status) }
}

// ViewForError returns the factory for the status carried by err.
func (m *ErrorViewMapping) ViewForError(err error) ViewFactory {
	code, _ := StatusCode(err)
	return m.ViewFor(code)
}

// Len reports how many statuses are mapped.
func (m *ErrorViewMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.views)
}

// DefaultErrorView is the built-in fallback error view.
func DefaultErrorView(status int) View {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	text := http.StatusText(status)
	if text == "" {
		text = "Error"
	}
	return &defaultErrorView{
		ViewBase: NewView("error", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, `<h1 class="hxnav-error">%d %s</h1>`, status, html.EscapeString(text))
			return err
		})),
		status: status,
	}
}

type defaultErrorView struct {
	*ViewBase
	status int
}

func (v *defaultErrorView) Title() string {
	return http.StatusText(v.status)
}
