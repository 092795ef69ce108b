package hxnav

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxnav/lib/dom"
	"github.com/pthm/hxnav/lib/encoding"
)

func testConfig() *Config {
	return &Config{
		ClientAppURL: "/static/app.js",
		StateKey:     "test-key",
		Environment:  map[string]any{"apiHost": "api.test"},
	}
}

type slugView struct {
	*ViewBase
	slug string
}

func (v *slugView) Title() string { return "Article " + v.slug }

func articleRoutes(router Router) *RouteTable {
	return NewRouteTable().
		Add("/", router, func(context.Context, *Navigation) (View, error) {
			return NewTestView("home", "<p>home</p>"), nil
		}).
		Add("/articles/{slug}", router, func(_ context.Context, nav *Navigation) (View, error) {
			slug := nav.Args[0]
			switch slug {
			case "old":
				return nil, nav.Response.Redirect("/articles/new")
			case "missing":
				return nil, NewStatusError(http.StatusNotFound, nil)
			}
			return &slugView{ViewBase: NewView("article", StaticMarkup("<p>"+slug+"</p>")), slug: slug}, nil
		}).
		Add("/archive/{year}/{month}", router, func(_ context.Context, nav *Navigation) (View, error) {
			return NewTestView("archive", "<p>"+strings.Join(nav.Args, "-")+"</p>"), nil
		})
}

func newTestServer(t *testing.T, cfg *Config, opts ...Option) (*Server, *countingRouter) {
	t.Helper()
	router := newCountingRouter(NewTestLayoutKind("blog"), NewErrorViewMapping(map[int]ViewFactory{
		http.StatusNotFound: namedFactory("not-found"),
	}))
	srv, err := NewServer(cfg, articleRoutes(router), opts...)
	require.NoError(t, err)
	return srv, router
}

func TestServerRendersPage(t *testing.T) {
	srv, router := newTestServer(t, testConfig())

	result := TestServe(srv, "/articles/hello")

	require.True(t, result.IsOK(), "status %d", result.StatusCode)
	assert.True(t, result.HasHeader("Content-Type", "text/html; charset=utf-8"))
	assert.True(t, strings.HasPrefix(result.HTML, "<!DOCTYPE html>"))
	assert.True(t, result.HTMLContainsAll(
		"<title>Article hello</title>",
		`<div data-view-uid="1|0_0"><p>hello</p></div>`,
		`"apiHost":"api.test"`,
		`<script src="/static/app.js" defer=""></script>`,
	))
	assert.False(t, result.HTMLContains(StateScriptID))

	_, err := uuid.Parse(result.GetHeader(RequestIDHeader))
	assert.NoError(t, err)

	started, completed, closed := router.snapshot()
	assert.Equal(t, []int{1}, started)
	assert.Equal(t, []int{1}, completed)
	assert.Equal(t, 1, closed)
}

func TestServerEchoesRequestID(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	result := NewTestRequest(http.MethodGet, "/").
		WithHeader(RequestIDHeader, "abc-123").
		Execute(srv)

	assert.True(t, result.HasHeader(RequestIDHeader, "abc-123"))
}

func TestServerRouteArgs(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	result := TestServe(srv, "/archive/2024/05")

	assert.True(t, result.HTMLContains("<p>2024-05</p>"))
}

func TestServerRedirect(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	result := TestServe(srv, "/articles/old")

	assert.True(t, result.HasStatus(http.StatusFound))
	assert.True(t, result.RedirectedTo("/articles/new"))
	assert.False(t, result.HTMLContains("<html"))
}

func TestServerErrorView(t *testing.T) {
	notifier := &recordingNotifier{}
	srv, router := newTestServer(t, testConfig(), WithNotifier(notifier))

	result := TestServe(srv, "/articles/missing")

	assert.True(t, result.HasStatus(http.StatusNotFound))
	assert.True(t, result.HTMLContains("<p>not-found</p>"))
	assert.Len(t, notifier.Errors(), 1)

	_, completed, closed := router.snapshot()
	assert.Empty(t, completed)
	assert.Equal(t, 1, closed)
}

func TestServerNotifierPanicDoesNotEscape(t *testing.T) {
	srv, router := newTestServer(t, testConfig(), WithNotifier(panickingNotifier{}))

	var result *TestResult
	require.NotPanics(t, func() { result = TestServe(srv, "/articles/missing") })

	assert.True(t, result.HasStatus(http.StatusNotFound))
	assert.True(t, result.HTMLContains("<p>not-found</p>"))

	_, _, closed := router.snapshot()
	assert.Equal(t, 1, closed)
}

func TestServerUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	result := TestServe(srv, "/nope")

	assert.True(t, result.HasStatus(http.StatusNotFound))
	assert.NotEmpty(t, result.GetHeader(RequestIDHeader))
}

func TestServerCanceledRequest(t *testing.T) {
	router := newCountingRouter(NewTestLayoutKind("blog"), nil)
	routes := NewRouteTable().Add("/", router, func(ctx context.Context, _ *Navigation) (View, error) {
		return nil, ctx.Err()
	})
	srv, err := NewServer(testConfig(), routes)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := NewTestRequest(http.MethodGet, "/").WithContext(ctx).Execute(srv)

	assert.True(t, result.HasStatus(499))
	assert.Empty(t, result.HTML)
}

func TestServerMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("next:" + r.URL.Path))
	})
	h := srv.Middleware(next)

	assert.True(t, TestServe(h, "/articles/hello").HTMLContains("<p>hello</p>"))
	assert.Equal(t, "next:/static/app.js", TestServe(h, "/static/app.js").HTML)

	post := NewTestRequest(http.MethodPost, "/").Execute(h)
	assert.Equal(t, "next:/", post.HTML)
}

func TestServerAppRoot(t *testing.T) {
	cfg := testConfig()
	cfg.AppRoot = "/blog"
	srv, _ := newTestServer(t, cfg)

	home := TestServe(srv, "/blog")
	require.True(t, home.IsOK(), "status %d", home.StatusCode)
	assert.True(t, home.HTMLContains("<p>home</p>"))
	assert.True(t, home.HTMLContains(`<base href="http://example.com/blog/"/>`))

	article := TestServe(srv, "/blog/articles/hello")
	assert.True(t, article.HTMLContains("<p>hello</p>"))

	args := TestServe(srv, "/blog/archive/2024/05")
	assert.True(t, args.HTMLContains("<p>2024-05</p>"))

	assert.True(t, TestServe(srv, "/articles/hello").HasStatus(http.StatusNotFound))
}

func TestServerPatterns(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	assert.Equal(t, []string{"/", "/articles/{slug}", "/archive/{year}/{month}"}, srv.Patterns())

	cfg := testConfig()
	cfg.AppRoot = "/blog"
	srv, _ = newTestServer(t, cfg)
	assert.Equal(t, []string{"/blog", "/blog/articles/{slug}", "/blog/archive/{year}/{month}"}, srv.Patterns())
}

func TestServerRouteHandledCallback(t *testing.T) {
	var handled []RouteHandled
	srv, _ := newTestServer(t, testConfig(), WithOnRouteHandled(func(rh RouteHandled) {
		handled = append(handled, rh)
	}))

	TestServe(srv, "/articles/hello")
	TestServe(srv, "/articles/old")

	require.Len(t, handled, 2)
	assert.Equal(t, "/articles/{slug}", handled[0].Route)
	assert.Equal(t, http.StatusOK, handled[0].Status)
	assert.Equal(t, "/articles/hello", handled[0].Request.URL.Path)
	assert.Equal(t, http.StatusFound, handled[1].Status)
}

func TestServerRenderFailure(t *testing.T) {
	kind := DefineLayout("broken", func(k *LayoutKind) Layout {
		return NewLayout(k, StaticMarkup("<html><body></body></html>"))
	})
	router := &BaseRouter{LayoutKind: kind}
	routes := NewRouteTable().Add("/", router, staticHandler(NewTestView("v", "<p>v</p>")))
	srv, err := NewServer(testConfig(), routes)
	require.NoError(t, err)

	result := TestServe(srv, "/")

	assert.True(t, result.HasStatus(http.StatusInternalServerError))
}

func TestServerBootstrapState(t *testing.T) {
	type article struct {
		Slug  string
		Title string
	}
	router := newCountingRouter(NewTestLayoutKind("blog"), nil)
	routes := NewRouteTable().Add("/articles/{slug}", router, func(ctx context.Context, nav *Navigation) (View, error) {
		Record(ctx, "article", article{Slug: nav.Args[0], Title: "Hello"})
		return NewTestView("article", "<p>article</p>"), nil
	})
	srv, err := NewServer(testConfig(), routes)
	require.NoError(t, err)

	result := TestServe(srv, "/articles/hello")
	require.True(t, result.IsOK())

	doc, err := dom.ParseString(result.HTML)
	require.NoError(t, err)
	script := doc.ElementByID(StateScriptID)
	require.NotNil(t, script)

	enc, err := encoding.NewEncoder([]byte("test-key"))
	require.NoError(t, err)
	var state map[string]any
	require.NoError(t, enc.Decode(dom.Text(script), false, &state))

	var got article
	ok, err := Bootstrapped(WithBootstrap(context.Background(), state), "article", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, article{Slug: "hello", Title: "Hello"}, got)
}

func TestServerOnRender(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), WithOnRender(func(l Layout) {
		l.Document().Body().AppendChild(dom.NewElement("footer"))
	}))

	assert.True(t, TestServe(srv, "/").HTMLContains("<footer></footer>"))
}

func TestNewServerInvalidConfig(t *testing.T) {
	_, err := NewServer(&Config{}, NewRouteTable())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Panics(t, func() { MustNewServer(&Config{AppRoot: "blog/"}, NewRouteTable()) })
}

func TestServerOutcomeResult(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		out    ServerOutcome
		expect string
	}{
		{ServerOutcome{HTML: "<html>"}, OutcomeRendered},
		{ServerOutcome{Redirect: "/x", Err: ErrInterrupted}, OutcomeInterrupted},
		{ServerOutcome{Canceled: true, Err: context.Canceled}, OutcomeCanceled},
		{ServerOutcome{HTML: "<html>", Err: boom}, OutcomeErrorView},
		{ServerOutcome{Err: boom}, OutcomeFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, tt.out.Result())
	}
}
