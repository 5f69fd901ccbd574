package usage

import "errors"

var (
	// ErrNoCounter is returned when no counter is registered for a resource.
	ErrNoCounter = errors.New("usage: no counter registered for resource")

	// ErrCountFailed wraps failures of the underlying usage source.
	ErrCountFailed = errors.New("usage: failed to count resource usage")
)
