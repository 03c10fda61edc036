// Package environment stores terminal variables by category.
//
// Each category lives in its own storage backend: TEMP in SESSION storage,
// LOCAL in LOCAL storage, SYSTEM and USERSPACE in the user-scoped storage
// (REMOTE when configured, LOCAL otherwise). Names are upper-cased. A
// lookup that misses asks the owning service for a default through
// variable-update-default-request and persists the answer.
package environment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/storage"
)

const keyPrefix = "var/"

// Provider answers variable requests on one bus.
type Provider struct {
	bus            *bus.Bus
	log            *zap.Logger
	stores         map[string]*storage.Client
	defaults       map[string]string
	defaultTimeout time.Duration
}

// Config wires a provider.
type Config struct {
	// Stores maps each category to the storage client holding it.
	Stores map[string]*storage.Client
	// Defaults override the defaults of the owning services and are
	// answered to other services asking on TopicVarDefault.
	Defaults map[string]string
	// DefaultTimeout bounds the wait for a default's owner.
	DefaultTimeout time.Duration
}

// NewProvider creates an environment provider.
func NewProvider(b *bus.Bus, cfg Config, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	defaults := make(map[string]string, len(cfg.Defaults))
	for k, v := range cfg.Defaults {
		defaults[strings.ToUpper(k)] = v
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 250 * time.Millisecond
	}
	return &Provider{
		bus:            b,
		log:            log.With(zap.String("provider", "environment")),
		stores:         cfg.Stores,
		defaults:       defaults,
		defaultTimeout: cfg.DefaultTimeout,
	}
}

// Listen registers the provider's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicVarGet, "environment.get", p.handleGet)
	p.bus.Listen(types.TopicVarSet, "environment.set", p.handleSet)
	p.bus.Listen(types.TopicVarDelete, "environment.delete", p.handleDelete)
	p.bus.Listen(types.TopicGetAllCategorizedVar, "environment.all", p.handleGetAll)
	p.bus.Listen(types.TopicVarDefault, "environment.default", p.handleDefault)
}

func (p *Provider) store(category string) (*storage.Client, error) {
	s, ok := p.stores[category]
	if !ok {
		return nil, fmt.Errorf("invalid variable category: %s", category)
	}
	return s, nil
}

func varKey(category, name string) string {
	return keyPrefix + category + "/" + strings.ToUpper(name)
}

// Get returns a variable, falling back to its default.
func (p *Provider) Get(ctx context.Context, category, name string) (string, bool, error) {
	s, err := p.store(category)
	if err != nil {
		return "", false, err
	}
	name = strings.ToUpper(name)

	value, found, err := storage.Load[string](ctx, s, varKey(category, name), "")
	if err != nil {
		return "", false, err
	}
	if found {
		return value, true, nil
	}

	def, own := p.defaults[name]
	if !own {
		resp, err := bus.CallAs[types.VarResponse](ctx, p.bus, types.TopicVarDefault,
			types.VarRequest{Key: name, Category: category}, p.defaultTimeout)
		if err != nil || !resp.Found {
			return "", false, nil
		}
		def = resp.Value
	}

	p.log.Debug("persisting default", zap.String("category", category), zap.String("key", name))
	if err := storage.Store(ctx, s, varKey(category, name), def, ""); err != nil {
		p.log.Warn("persisting default failed", zap.String("key", name), zap.Error(err))
	}
	return def, true, nil
}

// Set writes a variable.
func (p *Provider) Set(ctx context.Context, category, name, value string) error {
	if name == "" {
		return fmt.Errorf("variable name required")
	}
	s, err := p.store(category)
	if err != nil {
		return err
	}
	return storage.Store(ctx, s, varKey(category, name), value, "")
}

// Delete removes a variable.
func (p *Provider) Delete(ctx context.Context, category, name string) error {
	s, err := p.store(category)
	if err != nil {
		return err
	}
	return s.Delete(ctx, varKey(category, name), "")
}

// All returns every stored variable by category. A category whose storage
// fails is logged and left empty.
func (p *Provider) All(ctx context.Context) types.CategorizedVars {
	out := make(types.CategorizedVars, len(types.Categories))
	for _, category := range types.Categories {
		vars := map[string]string{}
		out[category] = vars

		s, ok := p.stores[category]
		if !ok {
			continue
		}
		prefix := keyPrefix + category + "/"
		keys, err := s.List(ctx, prefix)
		if err != nil {
			p.log.Warn("listing variables failed", zap.String("category", category), zap.Error(err))
			continue
		}
		for _, key := range keys {
			value, found, err := storage.Load[string](ctx, s, key, "")
			if err != nil || !found {
				continue
			}
			vars[strings.TrimPrefix(key, prefix)] = value
		}
	}
	return out
}

func (p *Provider) handleGet(ctx context.Context, msg *bus.Message) {
	req, ok := bus.PayloadAs[types.VarRequest](msg)
	if !ok {
		msg.Respond(fmt.Errorf("malformed variable request: %T", msg.Payload))
		return
	}
	value, found, err := p.Get(ctx, req.Category, req.Key)
	if err != nil {
		p.log.Error("variable get failed", zap.String("key", req.Key), zap.Error(err))
		msg.Respond(err)
		return
	}
	msg.Respond(types.VarResponse{Value: value, Found: found})
}

func (p *Provider) handleSet(ctx context.Context, msg *bus.Message) {
	req, ok := bus.PayloadAs[types.VarRequest](msg)
	if !ok {
		return
	}
	if err := p.Set(ctx, req.Category, req.Key, req.Value); err != nil {
		p.log.Error("variable set failed", zap.String("key", req.Key), zap.Error(err))
		msg.Respond(err)
		return
	}
	msg.Respond(types.VarResponse{Value: req.Value, Found: true})
}

func (p *Provider) handleDelete(ctx context.Context, msg *bus.Message) {
	req, ok := bus.PayloadAs[types.VarRequest](msg)
	if !ok {
		return
	}
	if err := p.Delete(ctx, req.Category, req.Key); err != nil {
		p.log.Error("variable delete failed", zap.String("key", req.Key), zap.Error(err))
		msg.Respond(err)
		return
	}
	msg.Respond(types.VarResponse{})
}

func (p *Provider) handleGetAll(ctx context.Context, msg *bus.Message) {
	msg.Respond(p.All(ctx))
}

func (p *Provider) handleDefault(_ context.Context, msg *bus.Message) {
	req, _ := bus.PayloadAs[types.VarRequest](msg)
	if value, ok := p.defaults[strings.ToUpper(req.Key)]; ok {
		msg.Respond(types.VarResponse{Value: value, Found: true})
	}
}
