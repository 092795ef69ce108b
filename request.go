package hxnav

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// serverRequestID is the request id of every server render. The client's
// first navigation also gets id 1, so view uids line up across the two.
const serverRequestID = 1

// Request describes one navigation, on either side.
type Request struct {
	RequestID      int
	IsFirstRequest bool

	Protocol string
	Host     string
	// Path is the full request path; ApplicationPath has the app root
	// stripped.
	Path            string
	ApplicationPath string
	Query           url.Values
	RawQuery        string

	Referrer  string
	UserAgent string
	Cookies   map[string]string

	EnvironmentConfig EnvironmentConfig

	// IsNotClick is true when the navigation did not come from an in-app
	// link: the server render and the first client navigation.
	IsNotClick bool

	mu        sync.Mutex
	complete  bool
	callbacks []func(*Request)
}

// NewClientRequest describes navigation id against the window's current
// location. previous is the last completed request; its URL becomes the
// referrer.
func NewClientRequest(win *Window, id int, cfg EnvironmentConfig, previous *Request) *Request {
	loc := win.Location()
	if cfg == nil {
		cfg = EnvironmentConfig{}
	}

	req := &Request{
		RequestID:         id,
		IsFirstRequest:    id == 1,
		Protocol:          strings.TrimSuffix(loc.Scheme, ":"),
		Host:              loc.Host,
		Path:              loc.Path,
		ApplicationPath:   applicationPath(loc.Path, cfg.AppRoot()),
		Query:             loc.Query(),
		RawQuery:          loc.RawQuery,
		UserAgent:         win.UserAgent(),
		Cookies:           win.Cookies(),
		EnvironmentConfig: cfg,
		IsNotClick:        id == 1,
	}
	if previous != nil {
		req.Referrer = previous.URL()
	} else {
		req.Referrer = win.Referrer()
	}
	return req
}

// NewServerRequest describes an HTTP request being rendered on the server.
func NewServerRequest(r *http.Request, cfg EnvironmentConfig) *Request {
	if cfg == nil {
		cfg = EnvironmentConfig{}
	}

	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		proto = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	var cookies map[string]string
	if cs := r.Cookies(); len(cs) > 0 {
		cookies = make(map[string]string, len(cs))
		for _, c := range cs {
			cookies[c.Name] = c.Value
		}
	}

	return &Request{
		RequestID:         serverRequestID,
		IsFirstRequest:    true,
		Protocol:          proto,
		Host:              r.Host,
		Path:              r.URL.Path,
		ApplicationPath:   applicationPath(r.URL.Path, cfg.AppRoot()),
		Query:             r.URL.Query(),
		RawQuery:          r.URL.RawQuery,
		Referrer:          r.Referer(),
		UserAgent:         r.UserAgent(),
		Cookies:           cookies,
		EnvironmentConfig: cfg,
		IsNotClick:        true,
	}
}

func applicationPath(path, appRoot string) string {
	if appRoot == "" {
		return path
	}
	rest := strings.TrimPrefix(path, appRoot)
	if rest == path {
		return path
	}
	if rest == "" || rest[0] != '/' {
		rest = "/" + rest
	}
	return rest
}

// URL rebuilds the absolute URL of the request.
func (r *Request) URL() string {
	u := url.URL{Scheme: r.Protocol, Host: r.Host, Path: r.Path, RawQuery: r.RawQuery}
	return u.String()
}

// OnComplete registers fn to run when the navigation completes. Callbacks
// registered after completion run immediately.
func (r *Request) OnComplete(fn func(*Request)) {
	r.mu.Lock()
	if !r.complete {
		r.callbacks = append(r.callbacks, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(r)
}

// Complete marks the navigation complete and runs callbacks once.
func (r *Request) Complete() {
	r.mu.Lock()
	if r.complete {
		r.mu.Unlock()
		return
	}
	r.complete = true
	callbacks := r.callbacks
	r.callbacks = nil
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(r)
	}
}

// IsComplete reports whether Complete ran.
func (r *Request) IsComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}
