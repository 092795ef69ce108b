package hxnav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrInterrupted,
		ErrInvalidView,
		ErrInvalidConfig,
		ErrNoRoute,
		ErrNoSlot,
		ErrTooManyRedirects,
		ErrInvalidState,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorMessages(t *testing.T) {
	errs := []error{
		ErrInterrupted,
		ErrInvalidView,
		ErrInvalidConfig,
		ErrNoRoute,
		ErrNoSlot,
		ErrTooManyRedirects,
		ErrInvalidState,
	}

	for _, err := range errs {
		if !strings.HasPrefix(err.Error(), "hxnav:") {
			t.Errorf("Error %q should start with 'hxnav:'", err.Error())
		}
	}
}

func TestIsInterrupted(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrInterrupted", ErrInterrupted, true},
		{"wrapped ErrInterrupted", fmt.Errorf("wrapped: %w", ErrInterrupted), true},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsInterrupted(tt.err)
			if result != tt.expect {
				t.Errorf("IsInterrupted(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, true},
		{"wrapped context canceled", fmt.Errorf("fetch: %w", context.Canceled), true},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"ready state 0", &TransportError{ReadyState: 0, Status: 200}, true},
		{"status 0", &TransportError{ReadyState: 4, Status: 0}, true},
		{"completed transport", NewTransportError(http.StatusNotFound, nil), false},
		{"status error 0", NewStatusError(0, nil), true},
		{"status error 404", NewStatusError(http.StatusNotFound, nil), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsCanceled(tt.err)
			if result != tt.expect {
				t.Errorf("IsCanceled(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{"nil error", nil, 0, false},
		{"plain error", errors.New("boom"), 0, false},
		{"status error", NewStatusError(http.StatusNotFound, nil), http.StatusNotFound, true},
		{"wrapped status error", fmt.Errorf("load: %w", NewStatusError(http.StatusGone, nil)), http.StatusGone, true},
		{"transport error", NewTransportError(http.StatusServiceUnavailable, nil), http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := StatusCode(tt.err)
			if code != tt.wantCode || ok != tt.wantOK {
				t.Errorf("StatusCode(%v) = (%v, %v), want (%v, %v)", tt.err, code, ok, tt.wantCode, tt.wantOK)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect int
	}{
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"zero status", NewStatusError(0, nil), http.StatusInternalServerError},
		{"not found", NewStatusError(http.StatusNotFound, nil), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := statusOf(tt.err)
			if result != tt.expect {
				t.Errorf("statusOf(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")

	pe := newPanicError(inner)
	if !errors.Is(pe, inner) {
		t.Errorf("errors.Is(PanicError, inner) = false, want true")
	}
	if len(pe.Stack) == 0 {
		t.Errorf("PanicError.Stack is empty")
	}

	if got := newPanicError("text").Unwrap(); got != nil {
		t.Errorf("PanicError.Unwrap() = %v, want nil", got)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect string
	}{
		{"bare", NewStatusError(404, nil), "hxnav: status 404"},
		{"wrapped", NewStatusError(500, errors.New("db down")), "hxnav: status 500: db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expect {
				t.Errorf("Error() = %q, want %q", got, tt.expect)
			}
		})
	}
}
