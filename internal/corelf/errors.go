package corelf

import "github.com/pkg/errors"

// AllocError reports that the configured Allocator rejected a block
// allocation request. It is the only failure a Pool or RaceFree can ever
// surface, since every node inside a block is zero-value constructed and
// that cannot fail in Go.
type AllocError struct {
	cause error
}

// NewAllocError wraps cause, recording a stack trace at the allocation
// site via github.com/pkg/errors.
func NewAllocError(cause error) *AllocError {
	return &AllocError{cause: errors.WithStack(cause)}
}

func (e *AllocError) Error() string {
	return "corelf: block allocation failed: " + e.cause.Error()
}

func (e *AllocError) Unwrap() error { return e.cause }

// ConstructError reports that a caller-supplied value constructor (the
// threadlocal.Local initializer, presently the only such constructor in
// this module) returned an error or panicked. The partially constructed
// Node is discarded; no structural change to the container occurs.
type ConstructError struct {
	cause error
}

// NewConstructError wraps cause, recording a stack trace at the
// construction site via github.com/pkg/errors.
func NewConstructError(cause error) *ConstructError {
	return &ConstructError{cause: errors.WithStack(cause)}
}

func (e *ConstructError) Error() string {
	return "corelf: value construction failed: " + e.cause.Error()
}

func (e *ConstructError) Unwrap() error { return e.cause }
