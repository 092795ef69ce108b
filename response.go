package hxnav

import (
	"net/http"
	"sync"
)

// Response collects what a handler wants to happen besides rendering a view:
// a status, headers, or a redirect.
//
// Redirecting interrupts the handler:
//
//	func showArticle(ctx context.Context, nav *hxnav.Navigation) (hxnav.View, error) {
//	    if nav.Args[0] == "old-slug" {
//	        return nil, nav.Response.Redirect("/articles/new-slug")
//	    }
//	    ...
//	}
type Response struct {
	mu             sync.Mutex
	status         int
	header         http.Header
	redirect       string
	redirectStatus int
	win            *Window
}

// NewClientResponse creates a response for a client navigation. Redirects
// resolve against the window location.
func NewClientResponse(win *Window) *Response {
	return &Response{status: http.StatusOK, header: make(http.Header), win: win}
}

// NewServerResponse creates a response for a server render.
func NewServerResponse() *Response {
	return &Response{status: http.StatusOK, header: make(http.Header)}
}

// Redirect records a temporary redirect and returns ErrInterrupted for the
// handler to return.
func (r *Response) Redirect(url string) error {
	return r.RedirectWithStatus(url, http.StatusFound)
}

// RedirectWithStatus records a redirect with an explicit 3xx status and
// returns ErrInterrupted.
func (r *Response) RedirectWithStatus(url string, code int) error {
	if r.win != nil {
		current := r.win.Location()
		if loc, err := current.Parse(url); err == nil && loc.Host == current.Host {
			url = loc.RequestURI()
		}
	}

	r.mu.Lock()
	r.redirect = url
	r.redirectStatus = code
	r.mu.Unlock()
	return ErrInterrupted
}

// RedirectLocation returns the redirect target and status, if any.
func (r *Response) RedirectLocation() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect, r.redirectStatus
}

// SetStatus sets the response status for a successful render.
func (r *Response) SetStatus(code int) {
	r.mu.Lock()
	r.status = code
	r.mu.Unlock()
}

// Status returns the response status.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Header returns the headers sent with a server response.
func (r *Response) Header() http.Header {
	return r.header
}
