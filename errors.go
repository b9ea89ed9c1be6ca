package stockfighter

import (
	"errors"
	"fmt"
)

// ErrNoResponse is returned when a request completes successfully but the
// transport never delivered a response body.
var ErrNoResponse = errors.New("stockfighter: request completed without a response")

// TransportError wraps an underlying network failure. The cause passes
// through unchanged and is reachable with errors.Is / errors.As.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "stockfighter: transport failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned when the transport completed without a
// network-level failure but the server reported a non-2xx status.
type UnexpectedStatusError struct {
	Status int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("stockfighter: unexpected status %d", e.Status)
}

// ContractViolationError marks a broken internal invariant, such as a
// duplicate body delivery for one request id. These are programming errors:
// they are raised by panicking, never returned, and must not be swallowed.
type ContractViolationError struct {
	Reason string
}

func (e *ContractViolationError) Error() string {
	return "stockfighter: contract violation: " + e.Reason
}
