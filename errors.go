package hxnav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Sentinel errors for navigation and configuration.
var (
	// ErrInterrupted stops a handler after it issued a redirect. Handlers
	// return it as-is; the workflow treats it as a normal exit.
	ErrInterrupted      = errors.New("hxnav: rendering interrupted")
	ErrInvalidView      = errors.New("hxnav: handler did not produce a view")
	ErrInvalidConfig    = errors.New("hxnav: invalid configuration")
	ErrNoRoute          = errors.New("hxnav: no route matches path")
	ErrNoSlot           = errors.New("hxnav: slot not found")
	ErrTooManyRedirects = errors.New("hxnav: too many redirects")
	// ErrInvalidState means the bootstrap state embedded in a page could
	// not be verified or decoded, usually because the state keys differ.
	ErrInvalidState = errors.New("hxnav: invalid bootstrap state")
)

// IsInterrupted checks if err is the redirect interrupt.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// IsCanceled reports whether err describes an operation that was abandoned
// rather than one that failed: a context cancellation, a transport with a
// zero ready state, or a zero status.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.ReadyState == 0 || te.Status == 0
	}
	var sc interface{ StatusCode() int }
	return errors.As(err, &sc) && sc.StatusCode() == 0
}

// StatusCode extracts an HTTP-like status from err.
func StatusCode(err error) (int, bool) {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

// statusOf is StatusCode with 500 for errors that carry no usable status.
func statusOf(err error) int {
	if code, ok := StatusCode(err); ok && code != 0 {
		return code
	}
	return http.StatusInternalServerError
}

// StatusError is a failure carrying a status code, such as a 404 raised by a
// handler that could not find its resource.
type StatusError struct {
	Code int
	Err  error
}

// NewStatusError returns a *StatusError for code.
func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hxnav: status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("hxnav: status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode returns the carried status.
func (e *StatusError) StatusCode() int { return e.Code }

// TransportError describes a failed data request. A zero ReadyState or Status
// means the request was abandoned before it completed.
type TransportError struct {
	ReadyState int
	Status     int
	Err        error
}

// readyStateDone is the ready state of a request that received a response.
const readyStateDone = 4

// NewTransportError returns a *TransportError for a request that completed
// with status.
func NewTransportError(status int, err error) *TransportError {
	return &TransportError{ReadyState: readyStateDone, Status: status, Err: err}
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hxnav: transport (ready state %d, status %d): %v", e.ReadyState, e.Status, e.Err)
	}
	return fmt.Sprintf("hxnav: transport (ready state %d, status %d)", e.ReadyState, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode returns the response status.
func (e *TransportError) StatusCode() int { return e.Status }

// PanicError is a recovered panic from user code.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("hxnav: panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
