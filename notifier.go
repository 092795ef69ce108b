package hxnav

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/pthm/hxnav/internal/logging"
)

// Notifier receives navigation failures. Notify is fire-and-forget and must
// not block for long.
type Notifier interface {
	Notify(ctx context.Context, err error, req *Request)
}

// ErrorHub is the default Notifier. It logs every error and fans out to
// subscribers; a panicking subscriber is logged and skipped.
type ErrorHub struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	subscribers []func(context.Context, error, *Request)
}

// NewErrorHub creates a hub logging to logger (nil discards).
func NewErrorHub(logger *slog.Logger) *ErrorHub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ErrorHub{logger: logger}
}

// OnError subscribes fn to every notified error. Use it to forward errors
// to an error tracker:
//
//	hub.OnError(func(ctx context.Context, err error, req *hxnav.Request) {
//	    sentry.CaptureException(err)
//	})
func (h *ErrorHub) OnError(fn func(ctx context.Context, err error, req *Request)) {
	h.mu.Lock()
	h.subscribers = append(h.subscribers, fn)
	h.mu.Unlock()
}

// Notify logs err and calls subscribers.
func (h *ErrorHub) Notify(ctx context.Context, err error, req *Request) {
	if err == nil {
		return
	}

	attrs := []any{"error", err}
	if req != nil {
		attrs = append(attrs, "request_id", req.RequestID, "path", req.Path)
	}
	if IsCanceled(err) {
		h.logger.Info("navigation canceled", attrs...)
	} else {
		h.logger.Error("navigation failed", attrs...)
	}

	h.mu.RLock()
	subs := slices.Clone(h.subscribers)
	h.mu.RUnlock()

	for _, fn := range subs {
		h.call(ctx, fn, err, req)
	}
}

func (h *ErrorHub) call(ctx context.Context, fn func(context.Context, error, *Request), err error, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("error subscriber panicked", "panic", r)
		}
	}()
	fn(ctx, err, req)
}

// notifySafely hands err to n. A panicking notifier is logged and never
// reaches the navigation.
func notifySafely(ctx context.Context, logger *slog.Logger, n Notifier, err error, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notifier panicked", "panic", r, "error", err)
		}
	}()
	n.Notify(ctx, err, req)
}
