// Package alias keeps the alias table in the ALIAS userspace variable.
package alias

import (
	"context"
	"maps"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Provider answers alias requests. The table is a JSON object stored as
// the value of ALIAS.
type Provider struct {
	bus     *bus.Bus
	log     *zap.Logger
	timeout time.Duration
}

// NewProvider creates an alias provider.
func NewProvider(b *bus.Bus, log *zap.Logger, timeout time.Duration) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{bus: b, log: log.With(zap.String("provider", "alias")), timeout: timeout}
}

// Listen registers the provider's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicGetAliases, "alias.get", func(ctx context.Context, msg *bus.Message) {
		msg.Respond(types.AliasesResponse{Aliases: p.Get(ctx)})
	})
	p.bus.Listen(types.TopicSetAliases, "alias.set", func(ctx context.Context, msg *bus.Message) {
		req, ok := bus.PayloadAs[types.SetAliases](msg)
		if !ok {
			return
		}
		if err := p.Set(ctx, req.Aliases); err != nil {
			msg.Respond(err)
			return
		}
		msg.Respond(types.AliasesResponse{Aliases: req.Aliases})
	})
}

// Get returns the alias table. Any failure yields an empty table.
func (p *Provider) Get(ctx context.Context) map[string]string {
	resp, err := bus.CallAs[types.VarResponse](ctx, p.bus, types.TopicVarGet,
		types.VarRequest{Key: types.VarAlias, Category: types.CategoryUserspace}, p.timeout)
	if err != nil {
		p.log.Warn("reading aliases failed", zap.Error(err))
		return map[string]string{}
	}
	if !resp.Found || resp.Value == "" {
		return map[string]string{}
	}

	aliases := map[string]string{}
	if err := sonic.UnmarshalString(resp.Value, &aliases); err != nil {
		p.log.Warn("alias table is not a JSON object", zap.Error(err))
		return map[string]string{}
	}
	return aliases
}

// Set replaces the alias table.
func (p *Provider) Set(ctx context.Context, aliases map[string]string) error {
	if aliases == nil {
		aliases = map[string]string{}
	}
	value, err := sonic.MarshalString(aliases)
	if err != nil {
		return err
	}
	_, err = p.bus.Call(ctx, types.TopicVarSet,
		types.VarRequest{Key: types.VarAlias, Value: value, Category: types.CategoryUserspace}, p.timeout)
	if err != nil {
		p.log.Error("writing aliases failed", zap.Error(err))
	}
	return err
}

// Seed installs defaults when the table is empty, as on first start.
func (p *Provider) Seed(ctx context.Context, defaults map[string]string) error {
	if len(defaults) == 0 || len(p.Get(ctx)) > 0 {
		return nil
	}
	p.log.Info("seeding aliases", zap.Int("count", len(defaults)))
	return p.Set(ctx, maps.Clone(defaults))
}
