package app

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/commands"
	"github.com/nnoitra/terminal/internal/config"
	"github.com/nnoitra/terminal/internal/infrastructure/monitoring"
	"github.com/nnoitra/terminal/internal/infrastructure/resilience"
	"github.com/nnoitra/terminal/internal/profile"
	"github.com/nnoitra/terminal/internal/providers/accounting"
	"github.com/nnoitra/terminal/internal/session"
	"github.com/nnoitra/terminal/internal/storage"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// App holds the process-wide components every front end shares.
type App struct {
	Config   *config.Config
	Profile  *profile.Profile
	Registry *command.Registry
	Metrics  *monitoring.Metrics
	Sessions *session.Manager

	local storage.Backend
	log   *zap.Logger
}

// New loads the profile, registers the built-in commands, opens LOCAL
// storage and creates the session manager. An empty SQLite path keeps
// LOCAL storage in memory.
func New(ctx context.Context, cfg *config.Config, info BuildInfo, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	prof, err := profile.Load(cfg.Shell.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	defs, err := commands.Builtins(commands.Info{
		Version: info.Version,
		Commit:  info.Commit,
		Motd:    prof.Motd,
	})
	if err != nil {
		return nil, fmt.Errorf("loading commands: %w", err)
	}
	registry := command.NewRegistry()
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}

	var local storage.Backend
	if path := cfg.Storage.SQLitePath; path != "" {
		db, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		local = db
		log.Info("Local storage opened", zap.String("path", path))
	} else {
		local = storage.NewMemory()
		log.Info("Local storage in memory")
	}

	metrics := monitoring.NewMetrics()

	var remote *storage.RemoteConfig
	if cfg.Storage.RemoteURL != "" {
		remote = &storage.RemoteConfig{
			BaseURL:   cfg.Storage.RemoteURL,
			Timeout:   cfg.Storage.RemoteTimeout,
			Retries:   cfg.Storage.RemoteRetries,
			RateLimit: cfg.Storage.RemoteRateLimit,
			OnBreakerChange: func(name string, to resilience.State) {
				metrics.ObserveBreaker(name, to)
				log.Warn("Remote storage breaker changed", zap.String("breaker", name), zap.String("state", to.String()))
			},
		}
		log.Info("Remote storage enabled", zap.String("url", cfg.Storage.RemoteURL))
	}

	sessions := session.NewManager(session.Config{
		Registry: registry,
		Profile:  prof,
		Remote:   remote,
		Metrics:  metrics,
		Accounts: accounting.Config{
			TokenTTL:   cfg.Accounts.TokenTTL,
			BcryptCost: cfg.Accounts.BcryptCost,
		},
		Timeout: cfg.Bus.RequestTimeout,
		Host:    cfg.Shell.Hostname,
	}, local, log)

	log.Info("Terminal initialized",
		zap.String("version", info.Version),
		zap.Int("commands", len(defs)),
		zap.Int("aliases", len(prof.Aliases)),
	)

	return &App{
		Config:   cfg,
		Profile:  prof,
		Registry: registry,
		Metrics:  metrics,
		Sessions: sessions,
		local:    local,
		log:      log,
	}, nil
}

// Close shuts every session, then LOCAL storage.
func (a *App) Close(ctx context.Context) error {
	return multierr.Combine(
		a.Sessions.Shutdown(ctx),
		a.local.Close(),
	)
}
