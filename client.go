package hxnav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pthm/hxnav/lib/dom"
)

// maxRedirects bounds the redirects followed by one navigation.
const maxRedirects = 10

type clientRoute struct {
	router  Router
	handler RouteHandler
}

// ClientApp drives client navigations over the route table. It takes over a
// document rendered by Server and keeps rendering into it as the user
// navigates.
//
//	app, err := hxnav.NewClientApp(doc, win, routes)
//	if err != nil {
//	    return err
//	}
//	if _, err := app.Start(ctx); err != nil {
//	    return err
//	}
//	out, err := app.Navigate(ctx, "/articles/hello")
type ClientApp struct {
	doc      *dom.Document
	win      *Window
	workflow *Workflow
	encoder  *Encoder
	opts     *options

	mux    *chi.Mux
	routes map[string]clientRoute
}

// NewClientApp creates a client app rendering into doc. WithStateKey must
// match the server's state key, and WithSealedState its seal_state setting.
func NewClientApp(doc *dom.Document, win *Window, routes *RouteTable, opts ...Option) (*ClientApp, error) {
	wf := NewWorkflow(doc, win, opts...)
	enc, err := NewEncoder([]byte(wf.opts.stateKey))
	if err != nil {
		return nil, fmt.Errorf("hxnav: state encoder: %w", err)
	}

	app := &ClientApp{
		doc:      doc,
		win:      win,
		workflow: wf,
		encoder:  enc,
		opts:     wf.opts,
		mux:      chi.NewMux(),
		routes:   make(map[string]clientRoute),
	}
	for _, route := range routes.Routes() {
		// The mux only matches; handlers run through the workflow.
		app.mux.Get(route.Pattern, http.NotFound)
		app.routes[route.Pattern] = clientRoute{
			router:  route.Router,
			handler: wf.CreateHandlerFrom(route.Handler),
		}
	}
	return app, nil
}

// Workflow returns the client workflow.
func (a *ClientApp) Workflow() *Workflow {
	return a.workflow
}

// Start indexes the server-rendered views, reads the environment config and
// bootstrap state the server embedded, and renders the current location.
// The first navigation binds to the server markup instead of re-rendering.
func (a *ClientApp) Start(ctx context.Context) (*Outcome, error) {
	a.doc.IndexServerViews()

	env, err := a.readEnvironment()
	if err != nil {
		return nil, err
	}
	a.workflow.SetEnvironmentConfig(env)

	state, err := a.readState()
	if err != nil {
		return nil, err
	}
	return a.dispatch(WithBootstrap(ctx, state))
}

// Navigate moves the window to path and renders it.
func (a *ClientApp) Navigate(ctx context.Context, path string) (*Outcome, error) {
	if _, err := a.win.PushState(path); err != nil {
		return nil, fmt.Errorf("hxnav: navigate to %q: %w", path, err)
	}
	return a.dispatch(ctx)
}

// dispatch renders the window location, following redirects.
func (a *ClientApp) dispatch(ctx context.Context) (*Outcome, error) {
	for hops := 0; ; hops++ {
		out, err := a.renderLocation(ctx)
		if err != nil || out.Redirect == "" {
			return out, err
		}
		if hops >= maxRedirects {
			return out, ErrTooManyRedirects
		}

		loc := a.win.Location()
		target, perr := url.Parse(out.Redirect)
		if perr != nil || (target.Host != "" && target.Host != loc.Host) {
			// Off-site redirects are left to the caller.
			return out, nil
		}
		if _, err := a.win.PushState(out.Redirect); err != nil {
			return out, err
		}
		// Bootstrap data belongs to the page the server rendered.
		ctx = WithBootstrap(ctx, nil)
	}
}

func (a *ClientApp) renderLocation(ctx context.Context) (*Outcome, error) {
	loc := a.win.Location()
	path := applicationPath(loc.Path, a.workflow.EnvironmentConfig().AppRoot())

	rctx := chi.NewRouteContext()
	if !a.mux.Match(rctx, http.MethodGet, path) || len(rctx.RoutePatterns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, path)
	}
	route, ok := a.routes[rctx.RoutePatterns[len(rctx.RoutePatterns)-1]]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, path)
	}

	args := make([]string, 0, len(rctx.URLParams.Values))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" && rctx.URLParams.Values[i] == "" {
			continue
		}
		args = append(args, rctx.URLParams.Values[i])
	}
	return route.handler(ctx, route.router, args...)
}

func (a *ClientApp) readEnvironment() (EnvironmentConfig, error) {
	env := EnvironmentConfig{}
	el := a.doc.ElementByID(EnvScriptID)
	if el == nil {
		return env, nil
	}
	text := strings.TrimSpace(dom.Text(el))
	if text == "" {
		return env, nil
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("hxnav: read environment config: %w", err)
	}
	return env, nil
}

func (a *ClientApp) readState() (map[string]any, error) {
	el := a.doc.ElementByID(StateScriptID)
	if el == nil {
		return nil, nil
	}
	state, err := decodeState(a.encoder, strings.TrimSpace(dom.Text(el)), a.opts.sealState)
	if err != nil {
		return nil, fmt.Errorf("hxnav: read bootstrap state: %w", err)
	}
	return state, nil
}
