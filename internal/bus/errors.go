package bus

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by every TimeoutError.
	ErrTimeout = errors.New("bus request timed out")

	// ErrClosed is returned by Call on a closed bus and by calls that were
	// pending when the bus closed.
	ErrClosed = errors.New("bus closed")
)

// TimeoutError reports a request that no listener answered in time.
type TimeoutError struct {
	Topic   string
	Payload any
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %q timed out after %s (payload: %+v)", e.Topic, e.After, e.Payload)
}

// Is makes errors.Is(err, ErrTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// TypeError reports a response whose type is not what CallAs expected.
type TypeError struct {
	Topic string
	Got   any
	Want  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("request %q: response of type %T, want %T", e.Topic, e.Got, e.Want)
}
