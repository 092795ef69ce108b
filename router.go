package hxnav

import (
	"context"
	"fmt"
	"sync"
)

// Router groups routes that share a layout, error views and route hooks.
type Router interface {
	// Layout is the layout kind for the router's routes. nil means
	// DefaultLayout.
	Layout() *LayoutKind
	ErrorViews() *ErrorViewMapping

	// OnRouteStart fires before data fetching begins, for every navigation,
	// including ones later superseded.
	OnRouteStart(layout Layout, req *Request, res *Response)
	// OnRouteComplete fires only for the navigation that finished current.
	OnRouteComplete(layout Layout, req *Request, res *Response)

	// Close runs after every navigation. Errors are reported, never
	// propagated.
	Close() error
}

// BaseRouter is a Router assembled from optional fields.
//
//	var Articles = &hxnav.BaseRouter{
//	    LayoutKind:       BlogLayout,
//	    ErrorViewMapping: errorViews,
//	    RouteStart: func(l hxnav.Layout, req *hxnav.Request, _ *hxnav.Response) {
//	        analytics.PageView(req.Path)
//	    },
//	}
type BaseRouter struct {
	LayoutKind       *LayoutKind
	ErrorViewMapping *ErrorViewMapping
	RouteStart       func(Layout, *Request, *Response)
	RouteComplete    func(Layout, *Request, *Response)
	OnClose          func() error
}

var _ Router = (*BaseRouter)(nil)

func (r *BaseRouter) Layout() *LayoutKind { return r.LayoutKind }

func (r *BaseRouter) ErrorViews() *ErrorViewMapping { return r.ErrorViewMapping }

func (r *BaseRouter) OnRouteStart(l Layout, req *Request, res *Response) {
	if r.RouteStart != nil {
		r.RouteStart(l, req, res)
	}
}

func (r *BaseRouter) OnRouteComplete(l Layout, req *Request, res *Response) {
	if r.RouteComplete != nil {
		r.RouteComplete(l, req, res)
	}
}

func (r *BaseRouter) Close() error {
	if r.OnClose != nil {
		return r.OnClose()
	}
	return nil
}

// RenderError returns a *StatusError for status, for handlers that want the
// mapped error view rendered:
//
//	if article == nil {
//	    return nil, router.RenderError(http.StatusNotFound)
//	}
func (r *BaseRouter) RenderError(status int) error {
	return NewStatusError(status, nil)
}

func layoutKindOf(r Router) *LayoutKind {
	if k := r.Layout(); k != nil {
		return k
	}
	return DefaultLayout
}

// Handler produces the view for a navigation. Return ErrInterrupted (as
// returned by Response.Redirect) to stop without rendering; any other error
// renders the router's error view.
type Handler func(ctx context.Context, nav *Navigation) (View, error)

// Navigation is what a Handler sees of one navigation.
type Navigation struct {
	// Args are the route parameters in pattern order.
	Args     []string
	Layout   *LayoutDelegate
	Request  *Request
	Response *Response
	// Router is the router the route belongs to.
	Router Router
}

// Route binds a chi-style pattern to a handler.
type Route struct {
	Pattern string
	Router  Router
	Handler Handler
}

// RouteTable is the route list shared by the server and the client app.
type RouteTable struct {
	mu     sync.RWMutex
	routes []Route
	seen   map[string]bool
}

// NewRouteTable creates an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{seen: make(map[string]bool)}
}

// Add registers a route. Patterns use chi syntax ("/articles/{id}").
// Panics on a duplicate pattern or a nil router or handler.
func (t *RouteTable) Add(pattern string, router Router, h Handler) *RouteTable {
	if router == nil || h == nil {
		panic(fmt.Sprintf("hxnav: route %q needs a router and a handler", pattern))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen[pattern] {
		panic(fmt.Sprintf("hxnav: duplicate route %q", pattern))
	}
	t.seen[pattern] = true
	t.routes = append(t.routes, Route{Pattern: pattern, Router: router, Handler: h})
	return t
}

// Routes returns the routes in registration order.
func (t *RouteTable) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Route(nil), t.routes...)
}
