package event

import (
	"errors"
	"fmt"
)

// DecodeError a message body is not a valid envelope.
// Poison messages: never retried.
type DecodeError struct {
	BodySize int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event envelope (%d bytes): %v", e.BodySize, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HandlerError a handler failed to apply an event
type HandlerError struct {
	Event  EventType
	UserID string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handle %s for user %s: %v", e.Event, e.UserID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is a DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
