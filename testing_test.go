package hxnav

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestTestServe(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		default:
			w.Header().Set("X-Test", "yes")
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("<p>Hello, World!</p>"))
		}
	})

	result := TestServe(h, "/")
	if !result.HasStatus(http.StatusTeapot) {
		t.Errorf("HasStatus(418) = false, status = %d", result.StatusCode)
	}
	if !result.HTMLContains("Hello, World!") {
		t.Errorf("HTMLContains() = false, HTML = %q", result.HTML)
	}
	if !result.HTMLContainsAll("<p>", "World") {
		t.Errorf("HTMLContainsAll() = false")
	}
	if result.HTMLContainsAny("absent", "missing") {
		t.Errorf("HTMLContainsAny() = true, want false")
	}
	if !result.HasHeader("X-Test", "yes") {
		t.Errorf("HasHeader() = false, want true")
	}
	if result.WasRedirected() {
		t.Errorf("WasRedirected() = true, want false")
	}

	redirect := TestServe(h, "/old")
	if !redirect.RedirectedTo("/new") {
		t.Errorf("RedirectedTo(/new) = false, RedirectURL = %q", redirect.RedirectURL)
	}
}

func TestTestRequestBuilder(t *testing.T) {
	type ctxKey struct{}
	var gotHeader string
	var gotValue any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		gotValue = r.Context().Value(ctxKey{})
	})

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	result := NewTestRequest(http.MethodGet, "/").
		WithHeader("X-Custom", "header").
		WithContext(ctx).
		Execute(h)

	if !result.IsOK() {
		t.Errorf("IsOK() = false, status = %d", result.StatusCode)
	}
	if gotHeader != "header" {
		t.Errorf("header = %q, want %q", gotHeader, "header")
	}
	if gotValue != "value" {
		t.Errorf("context value = %v, want %v", gotValue, "value")
	}
}

func TestRecordingRenderer(t *testing.T) {
	boom := errors.New("boom")
	r := &RecordingRenderer{Err: boom}

	view := NewTestView("v", "<p>v</p>")
	err := r.Render(context.Background(), nil, view, 3)
	if !errors.Is(err, boom) {
		t.Errorf("Render() error = %v, want %v", err, boom)
	}

	calls := r.Calls()
	if len(calls) != 1 {
		t.Fatalf("len(Calls()) = %d, want 1", len(calls))
	}
	if calls[0].View != view || calls[0].RequestID != 3 {
		t.Errorf("Calls()[0] = %+v, want view v with request id 3", calls[0])
	}
}

func TestNewTestLayoutKind(t *testing.T) {
	kind := NewTestLayoutKind("blog", WithDefaultTitle("Blog"))
	layout := kind.New()

	if layout.Kind() != kind {
		t.Errorf("Kind() = %v, want %v", layout.Kind(), kind)
	}
	if err := layout.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html, err := layout.AsHTML()
	if err != nil {
		t.Fatalf("AsHTML() error = %v", err)
	}
	want := `<main class="blog"><div data-slot="content"></div></main>`
	if !contains(html, want) {
		t.Errorf("AsHTML() = %q, want it to contain %q", html, want)
	}
}

func contains(s, substr string) bool {
	return (&TestResult{HTML: s}).HTMLContains(substr)
}
