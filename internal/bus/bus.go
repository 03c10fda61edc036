package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/utils"
)

// Call outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeClosed   = "closed"
	OutcomeError    = "error"
)

// Observer receives bus activity for metrics.
type Observer interface {
	ObservePublish(topic string, listeners int)
	ObserveCall(topic, outcome string, elapsed time.Duration)
	ObservePanic(topic string)
}

type listener struct {
	name    string
	handler Handler
}

type pending struct {
	result chan any
}

// Bus is an in-process publish/subscribe bus with correlated
// request/response. Listeners live as long as the bus.
type Bus struct {
	log      *zap.Logger
	observer Observer

	mu        sync.RWMutex
	listeners map[string][]listener

	pendingMu sync.Mutex
	pending   map[id.CorrelationID]*pending

	sched  *scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the bus logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(b *Bus) {
		b.observer = o
	}
}

// New creates a bus and starts its scheduler.
func New(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		log:       zap.NewNop(),
		listeners: make(map[string][]listener),
		pending:   make(map[id.CorrelationID]*pending),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.sched = newScheduler()
	return b
}

// Listen registers handler for topic. name shows up in logs and panic
// reports. Handlers for a topic are scheduled in registration order.
func (b *Bus) Listen(topic, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[topic] = append(b.listeners[topic], listener{name: name, handler: handler})
	b.log.Debug("listener registered", zap.String("topic", topic), zap.String("listener", name))
}

// Listeners returns the number of handlers registered for topic.
func (b *Bus) Listeners(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[topic])
}

// Publish delivers payload to every listener of topic without waiting for
// any of them. A topic with no listeners is a no-op.
func (b *Bus) Publish(topic string, payload any) {
	b.dispatch(&Message{Topic: topic, Payload: payload})
}

func (b *Bus) dispatch(msg *Message) {
	b.mu.RLock()
	ls := b.listeners[msg.Topic]
	b.mu.RUnlock()

	if b.observer != nil {
		b.observer.ObservePublish(msg.Topic, len(ls))
	}
	if len(ls) == 0 {
		b.log.Debug("no listeners", zap.String("topic", msg.Topic))
		return
	}

	for _, l := range ls {
		if !b.sched.submit(func() { b.invoke(l, msg) }) {
			b.log.Debug("publish on closed bus", zap.String("topic", msg.Topic))
			return
		}
	}
}

func (b *Bus) invoke(l listener, msg *Message) {
	defer func() {
		if err := utils.PanicError(b.log, l.name, recover()); err != nil {
			if b.observer != nil {
				b.observer.ObservePanic(msg.Topic)
			}
		}
	}()
	l.handler(b.ctx, msg)
}

// Call sends payload as a request on topic and waits for the first
// response. A timeout <= 0 waits until a response arrives, ctx ends, or
// the bus closes. On timeout the error is a *TimeoutError naming the topic
// and payload. A handler that responds with an error value fails the call
// with that error.
func (b *Bus) Call(ctx context.Context, topic string, payload any, timeout time.Duration) (any, error) {
	if b.ctx.Err() != nil {
		return nil, ErrClosed
	}

	start := time.Now()
	cid := id.NewCorrelationID()
	p := &pending{result: make(chan any, 1)}

	b.pendingMu.Lock()
	b.pending[cid] = p
	b.pendingMu.Unlock()

	b.dispatch(&Message{
		Topic:         topic,
		Payload:       payload,
		CorrelationID: cid,
		respond:       func(result any) bool { return b.resolve(cid, result) },
	})

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var (
		result  any
		err     error
		outcome = OutcomeOK
	)

	select {
	case result = <-p.result:
	case <-expired:
		if b.take(cid) {
			err = &TimeoutError{Topic: topic, Payload: payload, After: timeout}
			outcome = OutcomeTimeout
		} else {
			result = <-p.result
		}
	case <-ctx.Done():
		if b.take(cid) {
			err = ctx.Err()
			outcome = OutcomeCanceled
		} else {
			result = <-p.result
		}
	case <-b.ctx.Done():
		if b.take(cid) {
			err = ErrClosed
			outcome = OutcomeClosed
		} else {
			result = <-p.result
		}
	}

	if err == nil {
		if rerr, ok := result.(error); ok {
			result, err, outcome = nil, rerr, OutcomeError
		}
	}

	if b.observer != nil {
		b.observer.ObserveCall(topic, outcome, time.Since(start))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		b.log.Debug("request failed", zap.String("topic", topic), zap.String("correlation_id", cid.String()), zap.Error(err))
	}
	return result, err
}

// CallAs is Call with the result asserted to T. A nil result yields the
// zero T.
func CallAs[T any](ctx context.Context, b *Bus, topic string, payload any, timeout time.Duration) (T, error) {
	var zero T
	result, err := b.Call(ctx, topic, payload, timeout)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	v, ok := result.(T)
	if !ok {
		return zero, &TypeError{Topic: topic, Got: result, Want: zero}
	}
	return v, nil
}

// take removes the pending entry, reporting whether this caller did so.
func (b *Bus) take(cid id.CorrelationID) bool {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	if _, ok := b.pending[cid]; !ok {
		return false
	}
	delete(b.pending, cid)
	return true
}

func (b *Bus) resolve(cid id.CorrelationID, result any) bool {
	b.pendingMu.Lock()
	p, ok := b.pending[cid]
	if ok {
		delete(b.pending, cid)
	}
	b.pendingMu.Unlock()

	if !ok {
		return false
	}
	p.result <- result
	return true
}

// Pending returns the number of requests waiting for a response.
func (b *Bus) Pending() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return len(b.pending)
}

// Close stops delivery and fails every waiting Call with ErrClosed.
// Listener goroutines already running see their context cancelled.
func (b *Bus) Close() {
	b.cancel()
	b.sched.stop()
}

// Done is closed when the bus closes.
func (b *Bus) Done() <-chan struct{} {
	return b.ctx.Done()
}
