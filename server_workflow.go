package hxnav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServerRouteHandler renders one HTTP request for router.
type ServerRouteHandler func(ctx context.Context, router Router, r *http.Request, args ...string) (*ServerOutcome, error)

// ServerOutcome is the result of a server render.
type ServerOutcome struct {
	// HTML is the complete page. It is empty for redirects and canceled
	// requests.
	HTML   string
	Status int
	Header http.Header

	Redirect       string
	RedirectStatus int

	View View
	// Err is the error that stopped the handler, if any.
	Err error
	// Canceled is set when the request context ended before rendering.
	Canceled bool
}

// Result labels the outcome for metrics and logs.
func (o *ServerOutcome) Result() string {
	switch {
	case o.Redirect != "":
		return OutcomeInterrupted
	case o.Canceled:
		return OutcomeCanceled
	case o.Err != nil && o.HTML != "":
		return OutcomeErrorView
	case o.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeRendered
	}
}

// ServerWorkflow renders complete pages. Every request gets its own layout
// and nothing is shared between requests.
type ServerWorkflow struct {
	env          EnvironmentConfig
	clientAppURL string
	encoder      *Encoder
	renderer     ServerRenderer
	opts         *options
}

// NewServerWorkflow creates a server workflow for cfg. cfg.StateKey signs
// the bootstrap state unless WithStateKey overrides it; cfg.SealState
// encrypts it.
func NewServerWorkflow(cfg *Config, opts ...Option) (*ServerWorkflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []Option{WithStateKey(cfg.StateKey)}
	if cfg.SealState {
		base = append(base, WithSealedState())
	}
	o := buildOptions(append(base, opts...))

	enc, err := NewEncoder([]byte(o.stateKey))
	if err != nil {
		return nil, fmt.Errorf("hxnav: state encoder: %w", err)
	}
	return &ServerWorkflow{
		env:          cfg.EnvironmentConfig(),
		clientAppURL: cfg.ClientAppURL,
		encoder:      enc,
		opts:         o,
	}, nil
}

// EnvironmentConfig returns a copy of the config rendered into every page.
func (w *ServerWorkflow) EnvironmentConfig() EnvironmentConfig {
	return w.env.Clone()
}

// CreateHandlerFrom wraps h into a ServerRouteHandler.
func (w *ServerWorkflow) CreateHandlerFrom(h Handler) ServerRouteHandler {
	return func(ctx context.Context, router Router, r *http.Request, args ...string) (*ServerOutcome, error) {
		return w.serve(ctx, router, h, r, args)
	}
}

func (w *ServerWorkflow) serve(ctx context.Context, router Router, h Handler, r *http.Request, args []string) (*ServerOutcome, error) {
	started := time.Now()
	kind := layoutKindOf(router)
	ctx, span := w.opts.tracer.Start(ctx, "hxnav.serve",
		trace.WithAttributes(
			attribute.String("hxnav.layout", kind.Name()),
			attribute.String("hxnav.path", r.URL.Path),
		),
	)
	defer span.End()

	req := NewServerRequest(r, w.env.Clone())
	res := NewServerResponse()
	defer w.closeRouter(ctx, router, req)

	out, err := w.render(ctx, router, h, req, res, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.opts.metrics.ObserveNavigation(SideServer, OutcomeFailed, time.Since(started))
		return nil, err
	}

	result := out.Result()
	if out.Err != nil && !IsInterrupted(out.Err) {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("hxnav.outcome", result))
	w.opts.metrics.ObserveNavigation(SideServer, result, time.Since(started))
	w.opts.logger.Debug("page rendered",
		slog.String("path", req.Path),
		slog.String("layout", kind.Name()),
		slog.String("outcome", result),
		slog.Int("status", out.Status),
	)
	return out, nil
}

func (w *ServerWorkflow) render(ctx context.Context, router Router, h Handler, req *Request, res *Response, args []string) (*ServerOutcome, error) {
	kind := layoutKindOf(router)
	ctx, rec := WithBootstrapRecorder(ctx)

	html, view, err := w.renderRoute(ctx, rec, router, h, kind, req, res, args)
	if err == nil {
		return &ServerOutcome{
			HTML:   html,
			Status: res.Status(),
			Header: res.Header(),
			View:   view,
		}, nil
	}

	out := &ServerOutcome{Header: res.Header(), Err: err}
	if IsInterrupted(err) {
		out.Redirect, out.RedirectStatus = res.RedirectLocation()
		return out, nil
	}

	w.notify(ctx, err, req)

	if ctx.Err() != nil {
		out.Canceled = true
		return out, nil
	}

	out.Status = statusOf(err)
	view, html, rerr := w.renderError(ctx, router, kind, req, err)
	if rerr != nil {
		w.notify(ctx, rerr, req)
		return nil, rerr
	}
	out.View = view
	out.HTML = html
	return out, nil
}

// renderRoute runs the fetch, the handler and the page render.
func (w *ServerWorkflow) renderRoute(ctx context.Context, rec *Bootstrap, router Router, h Handler, kind *LayoutKind, req *Request, res *Response, args []string) (string, View, error) {
	layout, err := newLayout(kind)
	if err != nil {
		return "", nil, err
	}
	closeLayout := true
	defer func() {
		if closeLayout {
			layout.Close()
		}
	}()

	layout.SetEnvironmentConfig(req.EnvironmentConfig)
	w.guard(ctx, req, func() {
		router.OnRouteStart(layout, req, res)
	})

	w.opts.metrics.LayoutFetch(kind.Name())
	data, err := fetchLayoutData(ctx, layout)
	if err != nil {
		return "", nil, err
	}
	layout.HydrateData(data)

	delegate := newLayoutDelegate(layout)
	view, err := callHandler(ctx, h, &Navigation{
		Args:     args,
		Layout:   delegate,
		Request:  req,
		Response: res,
		Router:   router,
	})
	if err != nil {
		delegate.Discard()
		return "", nil, err
	}
	delegate.ReplayInstructions()
	delegate.StopRecording()

	if err := validateView(view); err != nil {
		return "", nil, err
	}

	state, err := w.encodeState(rec)
	if err != nil {
		return "", nil, err
	}

	w.guard(ctx, req, func() {
		router.OnRouteComplete(layout, req, res)
	})
	req.Complete()

	// The renderer closes the layout.
	closeLayout = false
	html, err := w.renderer.Render(ctx, layout, view, ServerRenderOptions{
		EnvironmentConfig: req.EnvironmentConfig,
		ClientAppURL:      w.clientAppURL,
		Request:           req,
		State:             state,
		OnRender:          w.opts.onRender,
	})
	if err != nil {
		return "", nil, err
	}
	return html, view, nil
}

// renderError renders the router's error view for err into a fresh layout.
func (w *ServerWorkflow) renderError(ctx context.Context, router Router, kind *LayoutKind, req *Request, err error) (View, string, error) {
	rctx := context.WithoutCancel(ctx)

	layout, lerr := newLayout(kind)
	if lerr != nil {
		return nil, "", lerr
	}
	view := router.ErrorViews().ViewForError(err)()
	if verr := validateView(view); verr != nil {
		layout.Close()
		return nil, "", verr
	}

	html, rerr := w.renderer.Render(rctx, layout, view, ServerRenderOptions{
		EnvironmentConfig: req.EnvironmentConfig,
		ClientAppURL:      w.clientAppURL,
		Request:           req,
		OnRender:          w.opts.onRender,
	})
	if rerr != nil {
		return nil, "", rerr
	}
	return view, html, nil
}

func (w *ServerWorkflow) encodeState(rec *Bootstrap) (string, error) {
	if rec == nil {
		return "", nil
	}
	return encodeState(w.encoder, rec.All(), w.opts.sealState)
}

func (w *ServerWorkflow) guard(ctx context.Context, req *Request, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.notify(ctx, newPanicError(r), req)
		}
	}()
	fn()
}

func (w *ServerWorkflow) closeRouter(ctx context.Context, router Router, req *Request) {
	var err error
	w.guard(ctx, req, func() {
		err = router.Close()
	})
	if err != nil {
		w.notify(ctx, err, req)
	}
}

func newLayout(kind *LayoutKind) (l Layout, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return kind.New(), nil
}

func fetchLayoutData(ctx context.Context, layout Layout) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return layout.FetchData(ctx)
}

func (w *ServerWorkflow) notify(ctx context.Context, err error, req *Request) {
	notifySafely(ctx, w.opts.logger, w.opts.notifier, err, req)
}
