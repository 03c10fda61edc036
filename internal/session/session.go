package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nnoitra/terminal/internal/autocomplete"
	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/infrastructure/monitoring"
	"github.com/nnoitra/terminal/internal/profile"
	"github.com/nnoitra/terminal/internal/providers/accounting"
	"github.com/nnoitra/terminal/internal/providers/alias"
	"github.com/nnoitra/terminal/internal/providers/environment"
	"github.com/nnoitra/terminal/internal/providers/history"
	"github.com/nnoitra/terminal/internal/providers/input"
	"github.com/nnoitra/terminal/internal/providers/terminal"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/storage"
)

// AccountsInstance is the LOCAL storage instance holding users and tokens.
const AccountsInstance = "accounts"

// Config holds what every session of a process shares.
type Config struct {
	Registry *command.Registry
	Profile  *profile.Profile
	// Remote enables REMOTE storage for SYSTEM and USERSPACE variables.
	// Token is filled in per session.
	Remote *storage.RemoteConfig
	// Metrics is optional.
	Metrics  *monitoring.Metrics
	Accounts accounting.Config
	Timeout  time.Duration
	Host     string
	Policy   *bluemonday.Policy
}

// Info describes an open session.
type Info struct {
	ID        string    `json:"id"`
	Instance  string    `json:"instance"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one terminal: a bus and the services answering on it.
type Session struct {
	id        id.SessionID
	instance  string
	createdAt time.Time
	log       *zap.Logger

	bus          *bus.Bus
	private      []*storage.Service
	accounting   *accounting.Provider
	alias        *alias.Provider
	input        *input.Provider
	terminal     *terminal.Provider
	orchestrator *autocomplete.Orchestrator
	resolver     *command.Resolver

	closeOnce sync.Once
	closeErr  error
}

// New assembles a session on the shared LOCAL service. An empty or
// malformed instance gets a fresh UUID.
func New(ctx context.Context, cfg Config, local *storage.Service, instance string, log *zap.Logger) (*Session, error) {
	if cfg.Registry == nil {
		return nil, errors.New("session: command registry is required")
	}
	if local == nil {
		return nil, errors.New("session: local storage is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Profile == nil {
		cfg.Profile = profile.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if _, err := uuid.Parse(instance); err != nil {
		instance = id.NewInstanceID()
	}

	s := &Session{
		id:        id.NewSessionID(),
		instance:  instance,
		createdAt: time.Now(),
	}
	s.log = log.With(zap.String("session_id", s.id.String()), zap.String("instance", instance))

	opts := []bus.Option{bus.WithLogger(s.log.Named("bus"))}
	if cfg.Metrics != nil {
		opts = append(opts, bus.WithObserver(cfg.Metrics))
	}
	s.bus = bus.New(opts...)

	s.wireStorage(cfg, local)
	s.wireServices(cfg)

	s.accounting.Start(ctx)
	if err := s.alias.Seed(ctx, cfg.Profile.Aliases); err != nil {
		s.log.Warn("seeding aliases failed", zap.Error(err))
	}

	s.log.Info("session opened")
	return s, nil
}

func (s *Session) wireStorage(cfg Config, local *storage.Service) {
	mem := storage.NewService(types.StorageSession, storage.NewMemory(), s.log)
	s.private = append(s.private, mem)
	local.Listen(s.bus)

	if cfg.Remote != nil {
		rc := *cfg.Remote
		rc.Token = s.token(cfg.Timeout)
		remote := storage.NewService(types.StorageRemote, storage.NewRemote(rc, s.log), s.log)
		s.private = append(s.private, remote)
	}

	for _, svc := range s.private {
		if cfg.Metrics != nil {
			svc.SetObserver(cfg.Metrics)
		}
		svc.Listen(s.bus)
	}
}

// token reads the session's login token for the remote API.
func (s *Session) token(timeout time.Duration) storage.TokenSource {
	return func(ctx context.Context) (string, error) {
		resp, err := bus.CallAs[types.VarResponse](ctx, s.bus, types.TopicVarGet,
			types.VarRequest{Key: types.VarToken, Category: types.CategoryLocal}, timeout)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return resp.Value, nil
	}
}

func (s *Session) wireServices(cfg Config) {
	b, timeout := s.bus, cfg.Timeout

	temp := storage.NewClient(b, types.StorageSession, s.instance, timeout)
	local := storage.NewClient(b, types.StorageLocal, s.instance, timeout)
	user := local
	if cfg.Remote != nil {
		user = storage.NewClient(b, types.StorageRemote, s.instance, timeout)
	}

	defaults := make(map[string]string, len(cfg.Profile.Env)+1)
	for k, v := range cfg.Profile.Env {
		defaults[k] = v
	}
	defaults[types.VarUUID] = s.instance

	environment.NewProvider(b, environment.Config{
		Stores: map[string]*storage.Client{
			types.CategoryTemp:      temp,
			types.CategoryLocal:     local,
			types.CategorySystem:    user,
			types.CategoryUserspace: user,
		},
		Defaults:       defaults,
		DefaultTimeout: timeout / 4,
	}, s.log).Listen()

	s.alias = alias.NewProvider(b, s.log, timeout)
	s.alias.Listen()

	history.NewProvider(b, local, s.log, timeout).Listen()

	accounts := storage.NewClient(b, types.StorageLocal, AccountsInstance, timeout)
	s.accounting = accounting.NewProvider(b, accounts, cfg.Accounts, s.log, timeout)
	s.accounting.Listen()

	s.input = input.NewProvider(b, s.log)
	s.input.Listen()

	caps := capability.NewProvider(b, s.log, timeout)
	s.resolver = command.NewResolver(cfg.Registry, b, caps, s.log, timeout)
	s.orchestrator = autocomplete.New(b, s.log, timeout)
	if cfg.Metrics != nil {
		s.resolver.SetObserver(cfg.Metrics)
		s.orchestrator.SetObserver(cfg.Metrics)
	}
	s.resolver.Listen()
	s.orchestrator.Listen()

	s.terminal = terminal.NewProvider(b, terminal.Config{
		Host:    cfg.Host,
		Timeout: timeout,
		Policy:  cfg.Policy,
	}, s.log)
	s.terminal.Listen()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id.String() }

// Instance returns the storage instance id shared by the browser's
// sessions.
func (s *Session) Instance() string { return s.instance }

// Bus returns the session bus. Front ends publish input on it and listen
// for output.
func (s *Session) Bus() *bus.Bus { return s.bus }

// Input returns the input service.
func (s *Session) Input() *input.Provider { return s.input }

// Info describes the session.
func (s *Session) Info() Info {
	return Info{ID: s.ID(), Instance: s.instance, CreatedAt: s.createdAt}
}

// Run drives the terminal loop until ctx ends or the session is closed.
// The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.terminal.Run(ctx)
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-s.bus.Done():
		}
		return s.Close()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, bus.ErrClosed) {
		return nil
	}
	return err
}

// Close shuts the bus and the session's private storage. The shared LOCAL
// service stays open. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.bus.Close()
		for _, svc := range s.private {
			s.closeErr = multierr.Append(s.closeErr, svc.Close())
		}
		s.log.Info("session closed", zap.Error(s.closeErr))
	})
	return s.closeErr
}
