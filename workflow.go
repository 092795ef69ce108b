package hxnav

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pthm/hxnav/lib/dom"
)

// RouteHandler runs one client navigation for router. It returns an error
// only when rendering the failure view itself failed; handler failures are
// reported through the Outcome.
type RouteHandler func(ctx context.Context, router Router, args ...string) (*Outcome, error)

// Outcome describes how a navigation ended.
type Outcome struct {
	RequestID int
	// View is the view that was rendered: the handler's view, or the error
	// view when the handler failed.
	View View
	// Status is the response status for a rendered view, or the failure
	// status for an error view.
	Status int

	Redirect       string
	RedirectStatus int

	// Superseded is set when a newer navigation started before this one
	// could render.
	Superseded bool
	// Canceled is set when the navigation failed because an operation was
	// abandoned. Nothing is rendered.
	Canceled bool

	// Err is the error that stopped the handler, if any.
	Err error
}

// Result labels the outcome for metrics and logs.
func (o *Outcome) Result() string {
	switch {
	case o.Redirect != "":
		return OutcomeInterrupted
	case o.Superseded:
		return OutcomeSuperseded
	case o.Canceled:
		return OutcomeCanceled
	case o.Err != nil && o.View != nil:
		return OutcomeErrorView
	case o.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeRendered
	}
}

// workflowState is everything shared between navigations of one session.
type workflowState struct {
	currentRequestID  int
	currentLayout     Layout
	pendingFetch      *layoutFetch
	environmentConfig EnvironmentConfig
	previousRequest   *Request
}

// layoutFetch is a layout data fetch shared by every navigation that targets
// the same layout kind while it is in flight or after it succeeded.
type layoutFetch struct {
	kind *LayoutKind
	done chan struct{}
	data any
	err  error
}

// reusableFor reports whether a navigation to kind can wait on f instead of
// fetching again.
func (f *layoutFetch) reusableFor(kind *LayoutKind) bool {
	if f == nil || f.kind != kind {
		return false
	}
	select {
	case <-f.done:
		return f.err == nil
	default:
		return true
	}
}

// Workflow runs client navigations against a live document.
//
// Navigations may overlap: each RouteHandler call runs its data fetch and
// handler concurrently with others, but only the most recently started
// navigation changes the document. Router hooks, request completion
// callbacks and Close run while the workflow holds its lock and must not
// call back into the Workflow.
type Workflow struct {
	doc  *dom.Document
	win  *Window
	opts *options

	mu    sync.Mutex
	state workflowState
}

// NewWorkflow creates a workflow rendering into doc, with win as the
// browser environment.
func NewWorkflow(doc *dom.Document, win *Window, opts ...Option) *Workflow {
	return &Workflow{
		doc:  doc,
		win:  win,
		opts: buildOptions(opts),
	}
}

// navigation is one in-progress RouteHandler call.
type navigation struct {
	router   Router
	args     []string
	req      *Request
	res      *Response
	layout   Layout
	delegate *LayoutDelegate
	fetch    *layoutFetch
	first    bool
}

// CreateHandlerFrom wraps h into a RouteHandler that runs the full
// navigation pipeline.
func (w *Workflow) CreateHandlerFrom(h Handler) RouteHandler {
	return func(ctx context.Context, router Router, args ...string) (*Outcome, error) {
		return w.navigate(ctx, router, h, args)
	}
}

func (w *Workflow) navigate(ctx context.Context, router Router, h Handler, args []string) (*Outcome, error) {
	started := time.Now()
	ctx, span := w.opts.tracer.Start(ctx, "hxnav.navigate",
		trace.WithAttributes(attribute.String("hxnav.layout", layoutKindOf(router).Name())),
	)
	defer span.End()

	n, err := w.begin(ctx, router, args)
	if err != nil {
		w.notify(ctx, err, nil)
		w.closeRouter(ctx, router, nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.opts.metrics.ObserveNavigation(SideClient, OutcomeFailed, time.Since(started))
		return nil, err
	}
	span.SetAttributes(attribute.Int("hxnav.request_id", n.req.RequestID))

	out := &Outcome{RequestID: n.req.RequestID}
	var recoverErr error
	if err := w.run(ctx, n, h, out); err != nil {
		recoverErr = w.handleFailure(ctx, n, out, err)
	}
	w.cleanup(ctx, n)

	result := out.Result()
	switch {
	case recoverErr != nil:
		span.RecordError(recoverErr)
		span.SetStatus(codes.Error, recoverErr.Error())
	case out.Err != nil && !IsInterrupted(out.Err):
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("hxnav.outcome", result))
	w.opts.metrics.ObserveNavigation(SideClient, result, time.Since(started))
	w.opts.logger.Debug("navigation finished",
		slog.Int("request_id", n.req.RequestID),
		slog.String("path", n.req.Path),
		slog.String("layout", n.layout.Kind().Name()),
		slog.String("outcome", result),
	)
	return out, recoverErr
}

// begin allocates the request, resolves the layout and starts or joins the
// layout data fetch.
func (w *Workflow) begin(ctx context.Context, router Router, args []string) (*navigation, error) {
	var n *navigation
	err := w.locked(func() error {
		s := &w.state
		s.currentRequestID++

		kind := layoutKindOf(router)
		nav := &navigation{
			router: router,
			args:   args,
			req:    NewClientRequest(w.win, s.currentRequestID, s.environmentConfig, s.previousRequest),
			res:    NewClientResponse(w.win),
			first:  s.currentLayout == nil,
		}
		if !nav.first && s.currentLayout.IsSameTypeAs(kind) {
			nav.layout = s.currentLayout
		} else {
			nav.layout = kind.New()
		}
		nav.layout.SetEnvironmentConfig(s.environmentConfig)
		if nav.first {
			s.currentLayout = nav.layout
		}
		nav.delegate = newLayoutDelegate(nav.layout)

		w.guard(ctx, nav.req, func() {
			router.OnRouteStart(nav.layout, nav.req, nav.res)
		})
		nav.fetch = w.fetchFor(ctx, nav.layout)
		n = nav
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// fetchFor joins the pending fetch for the layout's kind or starts a new
// one. Callers hold w.mu.
func (w *Workflow) fetchFor(ctx context.Context, layout Layout) *layoutFetch {
	kind := layout.Kind()
	if w.state.pendingFetch.reusableFor(kind) {
		return w.state.pendingFetch
	}

	f := &layoutFetch{kind: kind, done: make(chan struct{})}
	w.state.pendingFetch = f
	w.opts.metrics.LayoutFetch(kind.Name())

	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = newPanicError(r)
			}
		}()
		f.data, f.err = layout.FetchData(fetchCtx)
	}()
	return f
}

// run executes the happy path: wait for layout data, initialize the layout,
// call the handler and, if the navigation is still current, render.
func (w *Workflow) run(ctx context.Context, n *navigation, h Handler, out *Outcome) error {
	select {
	case <-n.fetch.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if n.fetch.err != nil {
		return n.fetch.err
	}

	if err := w.locked(func() error {
		n.layout.HydrateData(n.fetch.data)
		return w.initializeLayout(ctx, n.layout)
	}); err != nil {
		return err
	}

	view, err := callHandler(ctx, h, &Navigation{
		Args:     n.args,
		Layout:   n.delegate,
		Request:  n.req,
		Response: n.res,
		Router:   n.router,
	})
	if err != nil {
		return err
	}

	return w.locked(func() error {
		if !w.isCurrent(n) {
			n.delegate.Discard()
			out.Superseded = true
			return nil
		}

		if !n.first {
			n.layout.BackToNormal()
		}
		n.delegate.ReplayInstructions()
		n.delegate.StopRecording()

		if err := validateView(view); err != nil {
			return err
		}
		if err := w.opts.renderer.Render(ctx, n.layout, view, n.req.RequestID); err != nil {
			return err
		}
		out.View = view
		out.Status = n.res.Status()

		if n.first || n.layout != w.state.currentLayout {
			n.layout.EnterDOM()
		}
		return nil
	})
}

// initializeLayout binds a layout that has not rendered yet to the document.
// Callers hold w.mu.
func (w *Workflow) initializeLayout(ctx context.Context, layout Layout) error {
	if layout.HasBeenRendered() {
		return nil
	}
	layout.Reattach(w.doc)
	return layout.Render(ctx)
}

// handleFailure records a redirect, or reports err and renders the router's
// error view if the navigation is still current and was not canceled. The
// returned error comes from rendering the error view.
func (w *Workflow) handleFailure(ctx context.Context, n *navigation, out *Outcome, err error) error {
	n.delegate.Discard()
	out.Err = err

	if IsInterrupted(err) {
		out.Redirect, out.RedirectStatus = n.res.RedirectLocation()
		return nil
	}

	w.notify(ctx, err, n.req)

	renderErr := w.locked(func() error {
		switch {
		case !w.isCurrent(n):
			out.Superseded = true
			return nil
		case IsCanceled(err):
			out.Canceled = true
			return nil
		}

		rctx := context.WithoutCancel(ctx)
		view := n.router.ErrorViews().ViewForError(err)()
		if err := w.initializeLayout(rctx, n.layout); err != nil {
			return err
		}
		n.layout.BackToNormal()
		n.layout.ClearContent()

		if err := validateView(view); err != nil {
			return err
		}
		if err := w.opts.renderer.Render(rctx, n.layout, view, n.req.RequestID); err != nil {
			return err
		}
		out.View = view
		out.Status = statusOf(err)
		return nil
	})
	if renderErr != nil {
		w.notify(ctx, renderErr, n.req)
	}
	return renderErr
}

// cleanup completes the current navigation, closes the router and settles
// which layout instance stays current.
func (w *Workflow) cleanup(ctx context.Context, n *navigation) {
	err := w.locked(func() error {
		s := &w.state
		current := w.isCurrent(n)

		if current {
			w.guard(ctx, n.req, func() {
				n.router.OnRouteComplete(n.layout, n.req, n.res)
			})
			w.guard(ctx, n.req, n.req.Complete)
			s.previousRequest = n.req
		}

		if !current && n.layout != s.currentLayout {
			w.guard(ctx, n.req, n.layout.Close)
			w.closeRouter(ctx, n.router, n.req)
			return nil
		}

		w.closeRouter(ctx, n.router, n.req)

		if n.layout == s.currentLayout {
			return nil
		}
		if s.currentLayout != nil {
			w.guard(ctx, n.req, s.currentLayout.Close)
		}
		s.currentLayout = n.layout
		return nil
	})
	if err != nil {
		w.notify(ctx, err, n.req)
	}
}

func (w *Workflow) isCurrent(n *navigation) bool {
	return n.req.RequestID == w.state.currentRequestID
}

// locked runs fn while holding w.mu and converts a panic into a
// *PanicError.
func (w *Workflow) locked(fn func() error) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn()
}

// guard runs a user hook, reporting a panic instead of propagating it.
func (w *Workflow) guard(ctx context.Context, req *Request, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.notify(ctx, newPanicError(r), req)
		}
	}()
	fn()
}

func (w *Workflow) closeRouter(ctx context.Context, router Router, req *Request) {
	var err error
	w.guard(ctx, req, func() {
		err = router.Close()
	})
	if err != nil {
		w.notify(ctx, err, req)
	}
}

func callHandler(ctx context.Context, h Handler, nav *Navigation) (v View, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return h(ctx, nav)
}

// validateView rejects a missing or closed view.
func validateView(v View) error {
	if v == nil {
		return ErrInvalidView
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ErrInvalidView
	}
	if v.IsClosed() {
		return ErrInvalidView
	}
	return nil
}

// SetEnvironmentConfig sets the config given to every later request and
// layout.
func (w *Workflow) SetEnvironmentConfig(cfg EnvironmentConfig) {
	w.mu.Lock()
	w.state.environmentConfig = cfg
	w.mu.Unlock()
}

// EnvironmentConfig returns the config set with SetEnvironmentConfig.
func (w *Workflow) EnvironmentConfig() EnvironmentConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.environmentConfig
}

// Reset forgets all session state. The current layout is not closed.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.state = workflowState{}
	w.mu.Unlock()
}

// CurrentRequestID returns the id of the most recently started navigation.
func (w *Workflow) CurrentRequestID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.currentRequestID
}

// CurrentLayout returns the layout currently in the document.
func (w *Workflow) CurrentLayout() Layout {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.currentLayout
}

// PreviousRequest returns the last navigation that completed as current.
func (w *Workflow) PreviousRequest() *Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.previousRequest
}

func (w *Workflow) notify(ctx context.Context, err error, req *Request) {
	notifySafely(ctx, w.opts.logger, w.opts.notifier, err, req)
}
