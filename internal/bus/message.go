package bus

import (
	"context"

	"github.com/nnoitra/terminal/internal/shared/id"
)

// Handler receives messages for one topic. ctx ends when the bus closes.
type Handler func(ctx context.Context, msg *Message)

// Message is one delivery. Broadcasts and requests share the type; only
// requests carry a correlation id and a working Respond.
type Message struct {
	Topic         string
	Payload       any
	CorrelationID id.CorrelationID

	respond func(result any) bool
}

// IsRequest reports whether the sender is waiting for a response.
func (m *Message) IsRequest() bool {
	return m.respond != nil
}

// Respond completes the request with result. Only the first call across
// all listeners takes effect; it returns false when the request was
// already answered, timed out, or was never a request. Responding with an
// error value fails the caller's Call with that error.
func (m *Message) Respond(result any) bool {
	if m.respond == nil {
		return false
	}
	return m.respond(result)
}

// PayloadAs returns the payload as T.
func PayloadAs[T any](msg *Message) (T, bool) {
	v, ok := msg.Payload.(T)
	return v, ok
}
