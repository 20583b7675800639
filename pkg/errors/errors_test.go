package errors_test

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/NamanBalaji/repstream/pkg/errors"
)

func TestStreamErrorError(t *testing.T) {
	se := &errors.StreamError{
		Err:       stdErrors.New("disk full"),
		Category:  errors.CategoryStore,
		Timestamp: time.Now(),
		Resource:  "stream-buffer-1",
	}
	expected := "[STORE] stream-buffer-1: disk full"
	if se.Error() != expected {
		t.Errorf("expected %q, got %q", expected, se.Error())
	}
}

func TestStreamErrorUnwrap(t *testing.T) {
	baseErr := stdErrors.New("base error")
	se := errors.NewSourceReadError(baseErr, "buffer")
	if !errors.Is(se, baseErr) {
		t.Errorf("expected %v to wrap %v", se, baseErr)
	}
	if stdErrors.Unwrap(se) != baseErr {
		t.Errorf("expected underlying error %v, got %v", baseErr, stdErrors.Unwrap(se))
	}
}

func TestConstructors(t *testing.T) {
	base := stdErrors.New("boom")

	tests := []struct {
		name     string
		err      *errors.StreamError
		category errors.ErrorCategory
		check    func(error) bool
	}{
		{"closed", errors.NewClosedError("cursor"), errors.CategoryClosed, errors.IsClosed},
		{"source", errors.NewSourceReadError(base, "buffer"), errors.CategorySource, errors.IsSourceError},
		{"store", errors.NewStoreIOError(base, "buffer"), errors.CategoryStore, errors.IsStoreError},
		{"resource", errors.NewResourceCreationError(base, "buffer"), errors.CategoryResource, errors.IsResourceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, tt.err.Category)
			}
			if tt.err.Retryable {
				t.Error("expected error to be non-retryable")
			}
			if tt.err.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
			if !tt.check(tt.err) {
				t.Error("predicate did not match its own category")
			}
			if !tt.check(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Error("predicate did not match through wrapping")
			}
		})
	}
}

func TestClosedErrorMatchesSentinel(t *testing.T) {
	err := errors.NewClosedError("buffer")
	if !errors.Is(err, errors.ErrClosed) {
		t.Error("expected closed error to match ErrClosed")
	}
	if errors.IsStoreError(err) {
		t.Error("closed error must not be classified as a store error")
	}
}

func TestPredicatesOnForeignErrors(t *testing.T) {
	other := stdErrors.New("plain")
	if errors.IsClosed(other) || errors.IsSourceError(other) || errors.IsStoreError(other) || errors.IsResourceError(other) {
		t.Error("plain errors must not match any category")
	}
	if errors.IsRetryable(nil) || errors.IsRetryable(other) {
		t.Error("nil and plain errors are never retryable")
	}
}

func TestWithDetails(t *testing.T) {
	se := errors.NewStoreIOError(stdErrors.New("short write"), "store")
	details := map[string]any{
		"offset": int64(4096),
		"length": 12,
	}
	got := errors.WithDetails(se, details)
	if !errors.Is(got, se) {
		t.Error("WithDetails should return the original error instance")
	}
	for k, v := range details {
		if se.Details[k] != v {
			t.Errorf("expected Details[%q] = %v, got %v", k, v, se.Details[k])
		}
	}

	otherErr := stdErrors.New("not a StreamError")
	if !errors.Is(errors.WithDetails(otherErr, details), otherErr) {
		t.Error("WithDetails should return the original error when not a StreamError")
	}
}
