package hxnav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// TestResult holds the response of a test request.
//
// Provides convenience methods for asserting on HTML content, headers,
// status codes and redirects.
type TestResult struct {
	HTML        string
	StatusCode  int
	Headers     http.Header
	RedirectURL string
}

// TestServe sends a GET request for path to h and returns the response.
//
//	srv := hxnav.MustNewServer(cfg, routes)
//	result := hxnav.TestServe(srv, "/articles/hello")
//	if !result.HTMLContains("Hello") {
//	    t.Fatal("missing article")
//	}
func TestServe(h http.Handler, path string) *TestResult {
	return NewTestRequest(http.MethodGet, path).Execute(h)
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the HTML contains any of the given substrings.
func (r *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.HTML, s) {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// RedirectedTo checks if the response was redirected to a specific URL.
func (r *TestResult) RedirectedTo(url string) bool {
	return r.RedirectURL == url
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
//	result := hxnav.NewTestRequest("GET", "/articles/hello").
//	    WithHeader("X-Forwarded-Proto", "https").
//	    WithContext(ctx).
//	    Execute(srv)
type TestRequestBuilder struct {
	method  string
	url     string
	headers map[string]string
	ctx     context.Context
}

// NewTestRequest creates a new test request builder.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:  method,
		url:     url,
		headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

// WithHeader adds a header to the request.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute sends the request to h.
func (b *TestRequestBuilder) Execute(h http.Handler) *TestResult {
	req := httptest.NewRequest(b.method, b.url, nil)
	req = req.WithContext(b.ctx)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if rec.Code >= 300 && rec.Code < 400 {
		result.RedirectURL = rec.Header().Get("Location")
	}
	return result
}

// TestView is a view with static markup for tests.
type TestView struct {
	*ViewBase
	TitleText string
	Tags      []Tag
}

// NewTestView creates a view rendering markup.
func NewTestView(name, markup string, opts ...ViewOption) *TestView {
	return &TestView{
		ViewBase: NewView(name, StaticMarkup(markup), opts...),
	}
}

// Title implements Titled when TitleText is set.
func (v *TestView) Title() string { return v.TitleText }

// MetaTags implements MetaTagged.
func (v *TestView) MetaTags() []Tag { return v.Tags }

// StaticMarkup is a component writing markup verbatim.
func StaticMarkup(markup string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, markup)
		return err
	})
}

// NewTestLayoutKind defines a layout kind whose document has a title, a
// <main> carrying the layout name as its class, and a content slot.
func NewTestLayoutKind(name string, opts ...LayoutOption) *LayoutKind {
	shell := `<!DOCTYPE html><html><head><title></title></head><body>` +
		`<main class="` + name + `"><div data-slot="content"></div></main></body></html>`
	return DefineLayout(name, func(k *LayoutKind) Layout {
		return NewLayout(k, StaticMarkup(shell), opts...)
	})
}

// RenderCall is one call recorded by RecordingRenderer.
type RenderCall struct {
	Layout    Layout
	View      View
	RequestID int
}

// RecordingRenderer records render calls and then delegates to Next
// (ClientRenderer when nil). A non-nil Err is returned instead of
// delegating.
type RecordingRenderer struct {
	Next Renderer
	Err  error

	mu    sync.Mutex
	calls []RenderCall
}

var _ Renderer = (*RecordingRenderer)(nil)

// Render implements Renderer.
func (r *RecordingRenderer) Render(ctx context.Context, layout Layout, view View, requestID int) error {
	r.mu.Lock()
	r.calls = append(r.calls, RenderCall{Layout: layout, View: view, RequestID: requestID})
	err := r.Err
	r.mu.Unlock()

	if err != nil {
		return err
	}
	next := r.Next
	if next == nil {
		next = ClientRenderer{}
	}
	return next.Render(ctx, layout, view, requestID)
}

// Calls returns the recorded calls in order.
func (r *RecordingRenderer) Calls() []RenderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderCall(nil), r.calls...)
}
