// Package history records executed command lines.
//
// The in-memory list is newest first and backs the cursor used for
// up/down navigation. Every recorded line is also appended to the stored
// copy under a storage lock, so two terminals sharing a storage instance
// never lose each other's lines.
package history

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/storage"
)

// DefaultSize is the HISTSIZE default.
const DefaultSize = 1000

const storageKey = "history"

// Provider owns one terminal's history.
type Provider struct {
	bus     *bus.Bus
	store   *storage.Client
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries []string // newest first
	cursor  int
	maxSize int
}

// NewProvider creates a history provider persisting through store.
func NewProvider(b *bus.Bus, store *storage.Client, log *zap.Logger, timeout time.Duration) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		bus:     b,
		store:   store,
		log:     log.With(zap.String("provider", "history")),
		timeout: timeout,
		maxSize: DefaultSize,
	}
}

// Listen registers the provider's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicHistoryPersist, "history.persist", func(ctx context.Context, msg *bus.Message) {
		req, ok := bus.PayloadAs[types.HistoryPersist](msg)
		if !ok {
			return
		}
		if err := p.Add(ctx, req.Command); err != nil {
			msg.Respond(err)
			return
		}
		msg.Respond(p.All())
	})
	p.bus.Listen(types.TopicHistoryGetAll, "history.all", func(_ context.Context, msg *bus.Message) {
		msg.Respond(p.All())
	})
	p.bus.Listen(types.TopicHistoryPrevious, "history.previous", func(_ context.Context, msg *bus.Message) {
		msg.Respond(p.Previous())
	})
	p.bus.Listen(types.TopicHistoryNext, "history.next", func(_ context.Context, msg *bus.Message) {
		msg.Respond(p.Next())
	})
	p.bus.Listen(types.TopicVarDefault, "history.default", func(_ context.Context, msg *bus.Message) {
		req, _ := bus.PayloadAs[types.VarRequest](msg)
		if strings.EqualFold(req.Key, types.VarHistSize) {
			msg.Respond(types.VarResponse{Value: strconv.Itoa(DefaultSize), Found: true})
		}
	})
	p.bus.Listen(types.TopicUserChanged, "history.reload", func(ctx context.Context, _ *bus.Message) {
		if err := p.Load(ctx); err != nil {
			p.log.Warn("reloading history failed", zap.Error(err))
		}
	})
}

// Load replaces the in-memory history with the stored copy.
func (p *Provider) Load(ctx context.Context) error {
	stored, _, err := storage.Load[[]string](ctx, p.store, storageKey, "")
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = p.entries[:0]
	for i := len(stored) - 1; i >= 0; i-- {
		p.entries = append(p.entries, stored[i])
	}
	p.cursor = 0
	p.log.Debug("history loaded", zap.Int("entries", len(p.entries)))
	return nil
}

// Add records a line. Blank lines and repeats of the newest line are
// ignored. The cursor is reset either way.
func (p *Provider) Add(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	size := p.size(ctx)

	p.mu.Lock()
	p.cursor = 0
	if command == "" || (len(p.entries) > 0 && p.entries[0] == command) {
		p.mu.Unlock()
		return nil
	}
	p.maxSize = size
	p.entries = append([]string{command}, p.entries...)
	if len(p.entries) > p.maxSize {
		p.entries = p.entries[:p.maxSize]
	}
	p.mu.Unlock()

	return p.persist(ctx, command, size)
}

func (p *Provider) persist(ctx context.Context, command string, size int) error {
	return p.store.WithLock(ctx, storageKey, func(lockID id.LockID) error {
		stored, _, err := storage.Load[[]string](ctx, p.store, storageKey, lockID)
		if err != nil {
			return err
		}
		stored = append(stored, command)
		if len(stored) > size {
			stored = stored[len(stored)-size:]
		}
		return storage.Store(ctx, p.store, storageKey, stored, lockID)
	})
}

// size reads HISTSIZE, keeping the previous bound when it is unset or not
// a non-negative integer.
func (p *Provider) size(ctx context.Context) int {
	p.mu.Lock()
	current := p.maxSize
	p.mu.Unlock()

	resp, err := bus.CallAs[types.VarResponse](ctx, p.bus, types.TopicVarGet,
		types.VarRequest{Key: types.VarHistSize, Category: types.CategoryUserspace}, p.timeout)
	if err != nil || !resp.Found {
		return current
	}
	n, err := strconv.Atoi(strings.TrimSpace(resp.Value))
	if err != nil || n < 0 {
		p.log.Warn("invalid HISTSIZE, using default", zap.String("value", resp.Value))
		return DefaultSize
	}
	return n
}

// All returns the history oldest first.
func (p *Provider) All() types.HistoryEntries {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[len(out)-1-i] = e
	}
	return types.HistoryEntries{Entries: out}
}

// Previous moves the cursor one entry back in time.
func (p *Provider) Previous() types.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor < len(p.entries) {
		p.cursor++
	}
	return p.current()
}

// Next moves the cursor one entry forward; index 0 is the empty line.
func (p *Provider) Next() types.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor > 0 {
		p.cursor--
	}
	return p.current()
}

func (p *Provider) current() types.HistoryEntry {
	if p.cursor == 0 {
		return types.HistoryEntry{Index: 0}
	}
	return types.HistoryEntry{Command: p.entries[p.cursor-1], Index: p.cursor}
}
