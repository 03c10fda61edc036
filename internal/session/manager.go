package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/storage"
)

// ErrShutdown is returned by Open after Shutdown.
var ErrShutdown = errors.New("session manager is shut down")

// Stats summarizes the manager.
type Stats struct {
	Active int   `json:"active"`
	Opened int64 `json:"opened"`
}

// Manager tracks open sessions. Sessions share one LOCAL storage service,
// so locks on LOCAL keys hold across every terminal of the process.
type Manager struct {
	sessions sync.Map
	cfg      Config
	local    *storage.Service
	log      *zap.Logger

	active   atomic.Int64
	opened   atomic.Int64
	shutdown atomic.Bool
}

// NewManager creates a manager over the shared LOCAL backend. The manager
// does not close the backend.
func NewManager(cfg Config, local storage.Backend, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	svc := storage.NewService(types.StorageLocal, local, log)
	if cfg.Metrics != nil {
		svc.SetObserver(cfg.Metrics)
	}
	return &Manager{cfg: cfg, local: svc, log: log.Named("sessions")}
}

// Open creates and registers a session for the given storage instance.
func (m *Manager) Open(ctx context.Context, instance string) (*Session, error) {
	if m.shutdown.Load() {
		return nil, ErrShutdown
	}
	s, err := New(ctx, m.cfg, m.local, instance, m.log)
	if err != nil {
		return nil, err
	}

	m.sessions.Store(s.ID(), s)
	m.active.Add(1)
	m.opened.Add(1)
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionOpened()
	}

	// Drop the session however it ends.
	go func() {
		<-s.Bus().Done()
		m.forget(s.ID())
	}()
	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// List describes the open sessions, oldest first.
func (m *Manager) List() []Info {
	var out []Info
	m.sessions.Range(func(_, v any) bool {
		out = append(out, v.(*Session).Info())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close closes one session. It reports whether the session was open.
func (m *Manager) Close(id string) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	if err := s.Close(); err != nil {
		m.log.Warn("closing session failed", zap.String("session_id", id), zap.Error(err))
	}
	m.forget(id)
	return true
}

func (m *Manager) forget(id string) {
	if _, loaded := m.sessions.LoadAndDelete(id); !loaded {
		return
	}
	m.active.Add(-1)
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionClosed()
	}
}

// Shutdown closes every session and refuses new ones.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdown.Store(true)

	g, _ := errgroup.WithContext(ctx)
	m.sessions.Range(func(k, v any) bool {
		s := v.(*Session)
		g.Go(func() error {
			defer m.forget(k.(string))
			return s.Close()
		})
		return true
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns session counts.
func (m *Manager) Stats() Stats {
	return Stats{Active: int(m.active.Load()), Opened: m.opened.Load()}
}
