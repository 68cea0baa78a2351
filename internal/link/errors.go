package link

import (
	"errors"
	"fmt"
)

// Sentinel errors for link-level failures.
var (
	// ErrServiceNotFound indicates the connected peripheral does not expose
	// the ring's UART service, i.e. it is not a supported ring.
	ErrServiceNotFound = errors.New("ring UART service not found")

	// ErrCharacteristicNotFound indicates the UART service is present but a
	// required characteristic (write or notify) is missing.
	ErrCharacteristicNotFound = errors.New("ring UART characteristic not found")

	// ErrClosed indicates an operation on a transport that was already closed.
	ErrClosed = errors.New("link closed")
)

// ConnectionError reports that the retry budget for establishing a link was
// exhausted. It aborts only the current metric's session, never the whole
// collection round.
type ConnectionError struct {
	Address  string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s after %d attempts: %v", e.Address, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, &ConnectionError{}) regardless of address/attempts.
func (e *ConnectionError) Is(target error) bool {
	_, ok := target.(*ConnectionError)
	return ok
}

// WriteError reports a failed transport-level write acknowledgment, e.g. the
// link dropping mid-write. It aborts only the current session.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	_, ok := target.(*WriteError)
	return ok
}
