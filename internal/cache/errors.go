package cache

import (
	"errors"
	"fmt"
)

// Error taxonomy for cache operations. Stores classify transport failures
// into one of these kinds before returning them; the client converts every
// kind into a fail-open outcome, so callers only ever see them through
// observer notifications.
var (
	// ErrConnectionUnavailable indicates no live connection to the store
	ErrConnectionUnavailable = errors.New("cache connection unavailable")

	// ErrOperationTimeout indicates a round trip exceeded its time budget
	ErrOperationTimeout = errors.New("cache operation timeout")

	// ErrProtocol indicates an unexpected or error reply from the store
	ErrProtocol = errors.New("cache protocol error")

	// ErrSerialization indicates a payload could not be encoded or decoded
	ErrSerialization = errors.New("cache serialization error")
)

// Error pairs a taxonomy kind with its underlying cause. errors.Is matches
// the kind; the cause is carried for observer logging.
type Error struct {
	Kind  error
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Cause.Error())
	}
	return e.Kind.Error()
}

// Unwrap returns the taxonomy kind for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Kind
}

// wrapError attaches a cause to a taxonomy kind
func wrapError(kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
