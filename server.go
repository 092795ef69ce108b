package hxnav

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of a server request. Requests
// without one get a fresh uuid, echoed back in the response.
const RequestIDHeader = "X-Request-ID"

// RouteHandled describes a request the server answered.
type RouteHandled struct {
	Request *http.Request
	// Route is the pattern the request matched.
	Route  string
	Status int
}

// Server renders the route table as HTML pages.
//
//	routes := hxnav.NewRouteTable().
//	    Add("/", Articles, listArticles).
//	    Add("/articles/{slug}", Articles, showArticle)
//
//	srv, err := hxnav.NewServer(cfg, routes, hxnav.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(cfg.Addr, srv)
type Server struct {
	cfg      *Config
	routes   *RouteTable
	workflow *ServerWorkflow
	opts     *options
	mux      http.Handler
}

// NewServer validates cfg and builds the server.
func NewServer(cfg *Config, routes *RouteTable, opts ...Option) (*Server, error) {
	wf, err := NewServerWorkflow(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		routes:   routes,
		workflow: wf,
		opts:     wf.opts,
	}
	s.mux = s.buildMux(nil)
	return s, nil
}

// MustNewServer is like NewServer but panics on error.
func MustNewServer(cfg *Config, routes *RouteTable, opts ...Option) *Server {
	s, err := NewServer(cfg, routes, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Workflow returns the server workflow.
func (s *Server) Workflow() *ServerWorkflow {
	return s.workflow
}

// Patterns returns the route patterns as served, prefixed with the app
// root.
func (s *Server) Patterns() []string {
	routes := s.routes.Routes()
	patterns := make([]string, 0, len(routes))
	for _, route := range routes {
		p := s.cfg.AppRoot + route.Pattern
		if s.cfg.AppRoot != "" && route.Pattern == "/" {
			p = s.cfg.AppRoot
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// ServeHTTP renders the matching route, or answers 404.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Middleware renders matching routes and passes every other request to
// next.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return s.buildMux(next.ServeHTTP)
}

func (s *Server) buildMux(notFound http.HandlerFunc) http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestID)
	if notFound != nil {
		mux.NotFound(notFound)
		mux.MethodNotAllowed(notFound)
	}

	register := func(r chi.Router) {
		for _, route := range s.routes.Routes() {
			r.Get(route.Pattern, s.handle(route))
		}
	}
	if s.cfg.AppRoot != "" {
		mux.Route(s.cfg.AppRoot, register)
	} else {
		register(mux)
	}
	return mux
}

func (s *Server) handle(route Route) http.HandlerFunc {
	handler := s.workflow.CreateHandlerFrom(route.Handler)

	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ctx := r.Context()

		out, err := handler(ctx, route.Router, r, routeArgs(r)...)
		if err != nil {
			s.opts.logger.Error("render failed",
				slog.String("request_id", w.Header().Get(RequestIDHeader)),
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			s.routeHandled(r, route, http.StatusInternalServerError)
			return
		}

		status := writeOutcome(w, r, out)
		s.routeHandled(r, route, status)

		s.opts.logger.Info("route handled",
			slog.String("request_id", w.Header().Get(RequestIDHeader)),
			slog.String("path", r.URL.Path),
			slog.String("route", route.Pattern),
			slog.String("outcome", out.Result()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(started)),
		)
	}
}

func (s *Server) routeHandled(r *http.Request, route Route, status int) {
	if s.opts.onRouteHandled == nil {
		return
	}
	s.opts.onRouteHandled(RouteHandled{Request: r, Route: route.Pattern, Status: status})
}

// writeOutcome sends the outcome and returns the status written. Canceled
// requests get no body.
func writeOutcome(w http.ResponseWriter, r *http.Request, out *ServerOutcome) int {
	for k, vs := range out.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	if out.Redirect != "" {
		code := out.RedirectStatus
		if code == 0 {
			code = http.StatusFound
		}
		http.Redirect(w, r, out.Redirect, code)
		return code
	}

	if out.Canceled {
		// The client is gone; nginx's "client closed request".
		const clientClosedRequest = 499
		w.WriteHeader(clientClosedRequest)
		return clientClosedRequest
	}

	status := out.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out.HTML))
	return status
}

// routeArgs returns the chi URL params in pattern order. An empty catch-all
// is omitted.
func routeArgs(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	args := make([]string, 0, len(rctx.URLParams.Values))
	for i, key := range rctx.URLParams.Keys {
		val := rctx.URLParams.Values[i]
		if key == "*" && val == "" {
			continue
		}
		args = append(args, val)
	}
	return args
}

// requestID fills in a missing X-Request-ID and echoes it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
