package terminal

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// DefaultPath is the PWD default.
const DefaultPath = "~"

// Config configures a terminal.
type Config struct {
	// Host is the HOST default. Empty uses os.Hostname.
	Host string
	// Timeout bounds variable lookups.
	Timeout time.Duration
	// RetryDelay is the pause after a failed input request.
	RetryDelay time.Duration
	// Policy sanitizes HTML output. Nil uses the UGC policy.
	Policy *bluemonday.Policy
}

// Provider runs the read-execute loop.
type Provider struct {
	bus    *bus.Bus
	log    *zap.Logger
	cfg    Config
	now    func() time.Time
	policy *bluemonday.Policy

	finished chan struct{}

	mu     sync.Mutex
	nextID int
}

// NewProvider creates a terminal on b.
func NewProvider(b *bus.Bus, cfg Config, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host, _ = os.Hostname()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	policy := cfg.Policy
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return &Provider{
		bus:      b,
		log:      log.With(zap.String("provider", "terminal")),
		cfg:      cfg,
		now:      time.Now,
		policy:   policy,
		finished: make(chan struct{}, 1),
		nextID:   1,
	}
}

// Listen registers the terminal's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicVarDefault, "terminal.default", p.handleDefault)
	p.bus.Listen(types.TopicCommandExecutionFinished, "terminal.finished", func(context.Context, *bus.Message) {
		select {
		case p.finished <- struct{}{}:
		default:
		}
	})
	p.bus.Listen(types.TopicClearScreen, "terminal.clear", func(context.Context, *bus.Message) {
		p.mu.Lock()
		p.nextID = 1
		p.mu.Unlock()
	})
}

// Run loops until ctx ends or the bus closes.
func (p *Provider) Run(ctx context.Context) error {
	for {
		err := p.Step(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, bus.ErrClosed):
			return err
		default:
			p.log.Warn("terminal step failed", zap.Error(err))
			select {
			case <-time.After(p.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			case <-p.bus.Done():
				return bus.ErrClosed
			}
		}
	}
}

// Step runs one prompt, input and execute turn.
func (p *Provider) Step(ctx context.Context) error {
	prompt := p.Prompt(ctx)
	p.bus.Publish(types.TopicPromptRender, types.PromptRender{Prompt: prompt})

	input, err := bus.CallAs[types.InputResponse](ctx, p.bus, types.TopicInputRequest,
		types.InputRequest{AllowHistory: true, AllowAutocomplete: true}, 0)
	if err != nil {
		return err
	}

	select {
	case <-p.finished:
	default:
	}

	block := NewBlock(p.policy)
	p.bus.Publish(types.TopicCommandExecute, types.CommandExecute{CommandString: input.Value, Output: block})

	select {
	case <-p.finished:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.bus.Done():
		return bus.ErrClosed
	}

	p.bus.Publish(types.TopicOutput, types.Output{
		ID:      p.takeID(),
		Prompt:  prompt,
		Command: input.Value,
		Chunks:  block.Chunks(),
	})
	if strings.TrimSpace(input.Value) != "" {
		p.bus.Publish(types.TopicHistoryPersist, types.HistoryPersist{Command: input.Value})
	}
	return nil
}

// Prompt renders PS1 with the current user, host and path.
func (p *Provider) Prompt(ctx context.Context) string {
	ps1 := p.variable(ctx, types.CategoryUserspace, types.VarPS1, DefaultPS1)
	return RenderPrompt(ps1, PromptVars{
		User: p.variable(ctx, types.CategoryLocal, types.VarUser, ""),
		Host: p.variable(ctx, types.CategoryTemp, types.VarHost, p.cfg.Host),
		Path: p.variable(ctx, types.CategoryTemp, types.VarPWD, DefaultPath),
	}, p.now())
}

func (p *Provider) variable(ctx context.Context, category, key, fallback string) string {
	resp, err := bus.CallAs[types.VarResponse](ctx, p.bus, types.TopicVarGet,
		types.VarRequest{Key: key, Category: category}, p.cfg.Timeout)
	if err != nil {
		p.log.Debug("variable unavailable", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if !resp.Found {
		return fallback
	}
	return resp.Value
}

func (p *Provider) takeID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	return id
}

func (p *Provider) handleDefault(_ context.Context, msg *bus.Message) {
	req, _ := bus.PayloadAs[types.VarRequest](msg)
	switch strings.ToUpper(req.Key) {
	case types.VarPS1:
		msg.Respond(types.VarResponse{Value: DefaultPS1, Found: true})
	case types.VarHost:
		msg.Respond(types.VarResponse{Value: p.cfg.Host, Found: true})
	case types.VarPWD:
		msg.Respond(types.VarResponse{Value: DefaultPath, Found: true})
	}
}
