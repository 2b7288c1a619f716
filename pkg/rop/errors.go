package rop

import (
	"context"
	"errors"
	"fmt"
)

// ErrItemTimeout marks a unit of work that outlived its per-item deadline.
var ErrItemTimeout = errors.New("item deadline exceeded")

// IsCancellationError reports a context deadline or cancellation anywhere in
// err's chain.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// PanicError wraps a value recovered from a panicking unit of work.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the recovered value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
