// Package input parks input requests until the front end submits a line.
package input

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

type waiting struct {
	msg *bus.Message
	req types.InputRequest
}

// Provider answers input-request with the next submitted line, in request
// order.
type Provider struct {
	bus *bus.Bus
	log *zap.Logger

	mu      sync.Mutex
	waiting []waiting
}

// NewProvider creates an input provider.
func NewProvider(b *bus.Bus, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{bus: b, log: log.With(zap.String("provider", "input"))}
}

// Listen registers the provider's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicInputRequest, "input.request", func(_ context.Context, msg *bus.Message) {
		req, _ := bus.PayloadAs[types.InputRequest](msg)
		if !msg.IsRequest() {
			return
		}
		p.mu.Lock()
		p.waiting = append(p.waiting, waiting{msg: msg, req: req})
		p.mu.Unlock()
		p.bus.Publish(types.TopicInputReady, req)
	})
	p.bus.Listen(types.TopicInputSubmit, "input.submit", func(_ context.Context, msg *bus.Message) {
		resp, ok := bus.PayloadAs[types.InputResponse](msg)
		if !ok {
			return
		}
		if !p.Submit(resp.Value) {
			p.log.Debug("input submitted with no pending request")
		}
	})
}

// Pending returns the oldest waiting request, if any.
func (p *Provider) Pending() (types.InputRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.waiting) == 0 {
		return types.InputRequest{}, false
	}
	return p.waiting[0].req, true
}

// Submit answers the oldest waiting request whose caller is still
// waiting. It reports whether one was answered.
func (p *Provider) Submit(value string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.waiting) > 0 {
		w := p.waiting[0]
		p.waiting = p.waiting[1:]
		if w.msg.Respond(types.InputResponse{Value: value}) {
			return true
		}
	}
	return false
}
