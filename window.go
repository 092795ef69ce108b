package hxnav

import (
	"net/url"
	"sync"
)

// Window models the browser environment a client session runs in: the
// location bar, history, referrer, user agent and cookies.
//
// Window is safe for concurrent use.
type Window struct {
	mu        sync.RWMutex
	location  *url.URL
	referrer  string
	userAgent string
	cookies   map[string]string
	history   []string
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithReferrer sets document.referrer.
func WithReferrer(referrer string) WindowOption {
	return func(w *Window) {
		w.referrer = referrer
	}
}

// WithUserAgent sets the user agent.
func WithUserAgent(ua string) WindowOption {
	return func(w *Window) {
		w.userAgent = ua
	}
}

// WithCookies sets the cookie jar.
func WithCookies(cookies map[string]string) WindowOption {
	return func(w *Window) {
		for k, v := range cookies {
			w.cookies[k] = v
		}
	}
}

// NewWindow creates a window at location.
func NewWindow(location string, opts ...WindowOption) (*Window, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	w := &Window{
		location: u,
		cookies:  make(map[string]string),
		history:  []string{u.RequestURI()},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Location returns a copy of the current URL.
func (w *Window) Location() *url.URL {
	w.mu.RLock()
	defer w.mu.RUnlock()
	u := *w.location
	return &u
}

// Referrer returns the referrer of the initial page load.
func (w *Window) Referrer() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.referrer
}

// UserAgent returns the user agent.
func (w *Window) UserAgent() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.userAgent
}

// Cookies returns a copy of the cookie jar, or nil when it is empty.
func (w *Window) Cookies() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.cookies) == 0 {
		return nil
	}
	out := make(map[string]string, len(w.cookies))
	for k, v := range w.cookies {
		out[k] = v
	}
	return out
}

// SetCookie stores a cookie.
func (w *Window) SetCookie(name, value string) {
	w.mu.Lock()
	w.cookies[name] = value
	w.mu.Unlock()
}

// PushState moves the location to ref, resolved against the current URL, and
// records it in history. It returns the new location.
func (w *Window) PushState(ref string) (*url.URL, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.location.ResolveReference(target)
	if next.RequestURI() != w.location.RequestURI() {
		w.history = append(w.history, next.RequestURI())
	}
	w.location = next
	u := *next
	return &u, nil
}

// History returns the visited request URIs, oldest first.
func (w *Window) History() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.history...)
}
