package hxnav

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pthm/hxnav/internal/logging"
)

const (
	tracerName = "github.com/pthm/hxnav"

	// defaultStateKey signs bootstrap state when no key is configured. The
	// key ships with the client app, so the signature guards integrity, not
	// secrecy.
	defaultStateKey = "hxnav"
)

// Option configures a Workflow, ServerWorkflow, Server or ClientApp.
// Options that do not apply to a component are ignored by it.
type Option func(*options)

type options struct {
	renderer       Renderer
	notifier       Notifier
	logger         *slog.Logger
	metrics        *Metrics
	tracer         trace.Tracer
	stateKey       string
	sealState      bool
	onRender       func(Layout)
	onRouteHandled func(RouteHandled)
}

func buildOptions(opts []Option) *options {
	o := &options{stateKey: defaultStateKey}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = ClientRenderer{}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.notifier == nil {
		o.notifier = NewErrorHub(o.logger)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

// WithRenderer replaces the client renderer.
func WithRenderer(r Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithNotifier sets the error notifier. The default is an ErrorHub logging
// to the configured logger.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer for navigation spans. The default is the
// global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithStateKey sets the key signing the bootstrap state. Server and client
// must agree.
func WithStateKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.stateKey = key
		}
	}
}

// WithSealedState encrypts the bootstrap state instead of only signing it,
// so recorded values are unreadable in the page source. Server and client
// must agree.
func WithSealedState() Option {
	return func(o *options) {
		o.sealState = true
	}
}

// WithOnRender runs fn against every server-rendered layout after its
// template renders.
func WithOnRender(fn func(Layout)) Option {
	return func(o *options) {
		o.onRender = fn
	}
}

// WithOnRouteHandled is called after the server answers a route.
func WithOnRouteHandled(fn func(RouteHandled)) Option {
	return func(o *options) {
		o.onRouteHandled = fn
	}
}
