package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/shared/id"
)

// TraceID identifies one request flow.
type TraceID string

// SpanID identifies one operation within a trace.
type SpanID string

// Span is a timed operation. Spans are not safe for concurrent use; the
// goroutine that starts a span ends it.
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error

	fields []zap.Field
	tracer *Tracer
	ended  bool
}

// SetTag attaches a string attribute.
func (s *Span) SetTag(key, value string) {
	s.fields = append(s.fields, zap.String(key, value))
}

// SetStatus records an HTTP status code.
func (s *Span) SetStatus(code int) { s.Status = code }

// SetError marks the span failed.
func (s *Span) SetError(err error) { s.Err = err }

// End stops the clock and hands the span to the collector. Later calls
// do nothing.
func (s *Span) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.Duration = time.Since(s.Start)
	s.tracer.submit(s)
}

// Tracer collects ended spans on a background goroutine and logs them.
type Tracer struct {
	service string
	log     *zap.Logger
	queue   chan *Span

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts a tracer that logs through log.
func New(service string, log *zap.Logger) *Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		log:     log.Named("trace"),
		queue:   make(chan *Span, 1024),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// StartSpan opens a span. It joins the trace carried by ctx, or starts a
// new one, and returns a context carrying the new span.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := TraceIDFrom(ctx)
	if traceID == "" {
		traceID = TraceID(id.NewCorrelationID())
	}
	s := &Span{
		TraceID:  traceID,
		SpanID:   SpanID(id.NewCorrelationID()),
		ParentID: SpanIDFrom(ctx),
		Name:     name,
		Start:    time.Now(),
		tracer:   t,
	}
	return s, withSpan(ctx, traceID, s.SpanID)
}

// Close logs the spans still queued and stops the collector. Spans ended
// afterwards are dropped.
func (t *Tracer) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracer) submit(s *Span) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- s:
	default:
		t.log.Warn("span queue full, dropping span",
			zap.String("trace_id", string(s.TraceID)),
			zap.String("operation", s.Name))
	}
}

func (t *Tracer) collect() {
	defer close(t.done)
	for s := range t.queue {
		fields := append([]zap.Field{
			zap.String("service", t.service),
			zap.String("trace_id", string(s.TraceID)),
			zap.String("span_id", string(s.SpanID)),
			zap.String("operation", s.Name),
			zap.Duration("duration", s.Duration),
		}, s.fields...)
		if s.ParentID != "" {
			fields = append(fields, zap.String("parent_id", string(s.ParentID)))
		}
		if s.Status != 0 {
			fields = append(fields, zap.Int("status", s.Status))
		}
		if s.Err != nil {
			t.log.Warn("span failed", append(fields, zap.Error(s.Err))...)
			continue
		}
		t.log.Debug("span completed", fields...)
	}
}

type ctxKey int

const (
	traceKey ctxKey = iota
	spanKey
)

func withSpan(ctx context.Context, traceID TraceID, spanID SpanID) context.Context {
	ctx = context.WithValue(ctx, traceKey, traceID)
	if spanID != "" {
		ctx = context.WithValue(ctx, spanKey, spanID)
	}
	return ctx
}

// TraceIDFrom returns the trace carried by ctx, if any.
func TraceIDFrom(ctx context.Context) TraceID {
	v, _ := ctx.Value(traceKey).(TraceID)
	return v
}

// SpanIDFrom returns the current span carried by ctx, if any.
func SpanIDFrom(ctx context.Context) SpanID {
	v, _ := ctx.Value(spanKey).(SpanID)
	return v
}
