package hxnav

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedFactory(name string) ViewFactory {
	return func() View { return NewTestView(name, "<p>"+name+"</p>") }
}

func TestErrorViewMappingLookup(t *testing.T) {
	m := NewErrorViewMapping(map[int]ViewFactory{
		http.StatusNotFound:            namedFactory("not-found"),
		http.StatusInternalServerError: namedFactory("oops"),
		http.StatusForbidden:           nil,
	})

	tests := []struct {
		name   string
		status int
		expect string
	}{
		{"mapped", http.StatusNotFound, "not-found"},
		{"falls back to 500", http.StatusServiceUnavailable, "oops"},
		{"no status", 0, "oops"},
		{"nil factories are dropped", http.StatusForbidden, "oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, m.ViewFor(tt.status)().Name())
		})
	}
	assert.Equal(t, 2, m.Len())
}

func TestErrorViewMappingIsCopied(t *testing.T) {
	views := map[int]ViewFactory{http.StatusNotFound: namedFactory("not-found")}
	m := NewErrorViewMapping(views)
	views[http.StatusNotFound] = namedFactory("changed")

	assert.Equal(t, "not-found", m.ViewFor(http.StatusNotFound)().Name())
}

func TestErrorViewMappingDefault(t *testing.T) {
	var m *ErrorViewMapping
	assert.Equal(t, 0, m.Len())

	v := m.ViewFor(http.StatusNotFound)()
	require.NoError(t, v.Render(context.Background()))
	assert.Equal(t, `<div><h1 class="hxnav-error">404 Not Found</h1></div>`, outerHTML(t, v))
	assert.Equal(t, "Not Found", v.(Titled).Title())

	empty := NewErrorViewMapping(nil)
	assert.Equal(t, "Internal Server Error", empty.ViewFor(0)().(Titled).Title())
}

func TestViewForError(t *testing.T) {
	m := NewErrorViewMapping(map[int]ViewFactory{
		http.StatusNotFound:            namedFactory("not-found"),
		http.StatusInternalServerError: namedFactory("oops"),
	})

	notFound := fmt.Errorf("load article: %w", &StatusError{Code: http.StatusNotFound})
	assert.Equal(t, "not-found", m.ViewForError(notFound)().Name())
	assert.Equal(t, "oops", m.ViewForError(fmt.Errorf("plain"))().Name())
}

func TestDefaultErrorViewUnknownStatus(t *testing.T) {
	v := DefaultErrorView(599)
	require.NoError(t, v.Render(context.Background()))
	assert.Contains(t, outerHTML(t, v), "599 Error")
}
