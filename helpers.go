package hxnav

import (
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context. Use this for pages outside the route table:
//
//	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
//	    hxnav.Render(w, r, statusPage())
//	})
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// RequestID returns the correlation id of a server request.
//
// Server fills in X-Request-ID before handlers run, so inside a route it is
// never empty.
func RequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// IsFirstRender reports whether req is the navigation that renders the page
// the server sent: the server render itself or the client's first
// navigation, which binds to the server markup.
func IsFirstRender(req *Request) bool {
	return req != nil && req.RequestID == serverRequestID
}
