// Package hxnav is an isomorphic web framework: the same route table renders
// full HTML pages on the server and keeps rendering in place on the client
// as the user navigates.
//
// # Core Concepts
//
// A View is a composable UI unit with an identity (its uid), a lifecycle
// (render, attach, enter the DOM, close) and named slots holding child views.
// Most views embed *ViewBase:
//
//	type ArticleView struct {
//	    *hxnav.ViewBase
//	    Article Article
//	}
//
// A Layout is the page-level root view. It owns the document title, the head
// tags and the content slot, and is reused across navigations that target
// the same LayoutKind. Layout data (FetchData) is loaded at most once per
// kind while navigations keep targeting it.
//
// # Routing
//
// Routes bind chi-style patterns to a Router and a Handler. The router names
// the layout kind, the error views and the route start and completion hooks:
//
//	routes := hxnav.NewRouteTable().
//	    Add("/", blog, listArticles).
//	    Add("/articles/{slug}", blog, showArticle)
//
// Handlers return the view to render. Returning the error from
// Response.Redirect stops the navigation without rendering; any other error
// renders the router's error view for its status.
//
// # Navigation Workflow
//
// Each client navigation gets a monotonically increasing request id. Only the
// navigation that is still current when its handler returns renders;
// superseded ones are dropped and their layout instructions discarded. Layout
// changes made through the LayoutDelegate are buffered until the navigation
// wins, then replayed in order.
//
// The server runs the same handlers once per request, renders the layout and
// view to a complete document and embeds the environment config and the
// bootstrap state values recorded with Record.
//
// # Client Takeover
//
// ClientApp.Start reads what the server embedded and runs the first
// navigation against the server markup: views bind to existing elements
// instead of re-rendering, and handlers read recorded values with
// Bootstrapped instead of fetching them again.
//
// # Observability
//
// Options attach a *slog.Logger, Prometheus metrics (NewMetrics), an
// OpenTelemetry tracer and a Notifier receiving errors from handlers, hooks
// and renders.
package hxnav
