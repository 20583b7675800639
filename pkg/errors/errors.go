package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
)

type ErrorCategory string

const (
	CategoryClosed   ErrorCategory = "CLOSED"   // Buffer or cursor already released
	CategorySource   ErrorCategory = "SOURCE"   // Forward-only source failed
	CategoryStore    ErrorCategory = "STORE"    // Backing store read/write failed
	CategoryResource ErrorCategory = "RESOURCE" // Backing store could not be provisioned
	CategoryInvalid  ErrorCategory = "INVALID"  // Caller passed an unusable argument
)

// StreamError represents a failure while buffering or traversing a stream.
type StreamError struct {
	Err       error         // Original error
	Category  ErrorCategory // General category
	Retryable bool          // Whether a caller-side retry makes sense
	Timestamp time.Time     // When the error occurred
	Resource  string        // Buffer, cursor or store the error relates to
	Details   map[string]any
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Resource, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

var (
	ErrClosed            = New("resource is closed")
	ErrInvalidRange      = New("invalid range")
	ErrInvalidCapacity   = New("buffer capacity must be positive")
	ErrUnsupportedWhence = New("unsupported seek whence")
)

// NewClosedError reports an operation attempted on a released buffer or cursor.
func NewClosedError(resource string) *StreamError {
	return newError(ErrClosed, CategoryClosed, resource)
}

// NewSourceReadError wraps a failure of the underlying source stream.
func NewSourceReadError(err error, resource string) *StreamError {
	return newError(err, CategorySource, resource)
}

// NewStoreIOError wraps a failure of the backing store.
func NewStoreIOError(err error, resource string) *StreamError {
	return newError(err, CategoryStore, resource)
}

// NewResourceCreationError wraps a failure to provision a backing store.
func NewResourceCreationError(err error, resource string) *StreamError {
	return newError(err, CategoryResource, resource)
}

// NewInvalidError wraps an argument the caller should not have passed.
func NewInvalidError(err error, resource string) *StreamError {
	return newError(err, CategoryInvalid, resource)
}

// None of the buffering layer's errors are retried internally, and none are
// marked retryable: once the forward-only source has failed the bytes it
// would have produced are gone.
func newError(err error, category ErrorCategory, resource string) *StreamError {
	return &StreamError{
		Err:       err,
		Category:  category,
		Retryable: false,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var streamErr *StreamError
	if As(err, &streamErr) {
		return streamErr.Retryable
	}

	return false
}

func IsClosed(err error) bool {
	return hasCategory(err, CategoryClosed)
}

func IsSourceError(err error) bool {
	return hasCategory(err, CategorySource)
}

func IsStoreError(err error) bool {
	return hasCategory(err, CategoryStore)
}

func IsResourceError(err error) bool {
	return hasCategory(err, CategoryResource)
}

func hasCategory(err error, category ErrorCategory) bool {
	var streamErr *StreamError
	return As(err, &streamErr) && streamErr.Category == category
}

// WithDetails adds additional context to a StreamError
func WithDetails(err error, details map[string]any) error {
	var streamErr *StreamError
	if !As(err, &streamErr) {
		return err
	}

	if streamErr.Details == nil {
		streamErr.Details = make(map[string]any)
	}

	for k, v := range details {
		streamErr.Details[k] = v
	}

	return streamErr
}
