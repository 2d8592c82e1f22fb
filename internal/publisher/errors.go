package publisher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument matches every InvalidArgumentError via errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransportFailure matches every TransportError via errors.Is.
	ErrTransportFailure = errors.New("transport failure")
)

// InvalidArgumentError is returned when a caller passes an event name or
// payload that can never be published. It is not retryable.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// TransportError is returned when the transport rejects a message.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("publishing to channel %q: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransportFailure.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}
