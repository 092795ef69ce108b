// Package hxnavecho serves an hxnav route table from the Echo framework.
//
// Register every route on an Echo instance:
//
//	e := echo.New()
//	srv := hxnav.MustNewServer(cfg, routes)
//	hxnavecho.Mount(e, srv)
//
// Or on a group, sharing its middleware. The group prefix must equal the
// config's app root:
//
//	g := e.Group("/blog", authMiddleware)
//	hxnavecho.MountGroup(g, srv, "/blog")
package hxnavecho

import (
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxnav"
)

// Mount registers a GET route on e for every pattern srv serves.
func Mount(e *echo.Echo, srv *hxnav.Server) []*echo.Route {
	h := echo.WrapHandler(srv)
	var routes []*echo.Route
	for _, p := range srv.Patterns() {
		routes = append(routes, e.GET(EchoPattern(p), h))
	}
	return routes
}

// MountGroup registers srv's routes on g. Patterns are registered without
// the app root, which the group prefix supplies.
func MountGroup(g *echo.Group, srv *hxnav.Server, appRoot string) []*echo.Route {
	h := echo.WrapHandler(srv)
	var routes []*echo.Route
	for _, p := range srv.Patterns() {
		rel := strings.TrimPrefix(p, appRoot)
		routes = append(routes, g.GET(EchoPattern(rel), h))
	}
	return routes
}

// Middleware renders requests matching srv's routes and passes the rest to
// the next Echo handler.
//
//	e.Use(hxnavecho.Middleware(srv))
func Middleware(srv *hxnav.Server) echo.MiddlewareFunc {
	return echo.WrapMiddleware(srv.Middleware)
}

// EchoPattern converts a chi route pattern to Echo syntax:
// "/articles/{slug}" becomes "/articles/:slug" and regexp constraints are
// dropped.
func EchoPattern(pattern string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		name := pattern[open+1 : open+end]
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		b.WriteString(pattern[:open])
		b.WriteByte(':')
		b.WriteString(name)
		pattern = pattern[open+end+1:]
	}
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxnavecho.Render(c, myTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
