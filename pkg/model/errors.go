package model

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnsafeFieldID is returned when a field identifier fails the safe
	// character check. This aborts query compilation; it is a security
	// boundary, not a recoverable condition.
	ErrUnsafeFieldID = errors.New("unsafe field identifier")
	// ErrNotFound is returned when a response is not found
	ErrNotFound = errors.New("response not found")
	// ErrExists is returned when trying to create a response that already exists
	ErrExists = errors.New("response already exists")
	// ErrCanceled is returned when the operation is canceled by the client
	ErrCanceled = errors.New("operation canceled")
)

// WrapError wraps storage errors to model errors.
// It converts context.Canceled and context.DeadlineExceeded to ErrCanceled;
// everything else propagates unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or
// deadline exceeded. It checks both direct context errors and wrapped
// errors (e.g., from the MongoDB driver).
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
