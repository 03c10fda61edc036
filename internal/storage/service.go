package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/mutex"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Observer receives storage operations for metrics.
type Observer interface {
	ObserveStorage(backend, api string, err error, elapsed time.Duration)
}

// Service answers storage requests for one named backend.
type Service struct {
	name     string
	backend  Backend
	locks    *mutex.Mutex
	log      *zap.Logger
	observer Observer
}

// NewService creates a service named name (types.StorageSession, ...).
func NewService(name string, backend Backend, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		name:    name,
		backend: backend,
		locks:   mutex.New(),
		log:     log.With(zap.String("storage", name)),
	}
}

// Name returns the storage name the service answers to.
func (s *Service) Name() string { return s.name }

// SetObserver attaches a metrics observer.
func (s *Service) SetObserver(o Observer) { s.observer = o }

// Close closes the backend.
func (s *Service) Close() error { return s.backend.Close() }

// Listen handles storage-api-request messages addressed to this service.
func (s *Service) Listen(b *bus.Bus) {
	b.Listen(types.TopicStorageAPI, "storage."+s.name, func(ctx context.Context, msg *bus.Message) {
		req, ok := bus.PayloadAs[types.StorageRequest](msg)
		if !ok || req.StorageName != s.name {
			return
		}

		resp, err := s.Handle(ctx, req)
		if err != nil {
			s.log.Error("storage api failed",
				zap.String("api", req.API),
				zap.String("key", req.Data.Key),
				zap.Error(err))
			msg.Respond(err)
			return
		}

		// A lock granted after the caller gave up would never be released.
		if !msg.Respond(resp) && req.API == types.APILockNode {
			s.log.Warn("releasing lock for abandoned request", zap.String("key", req.Data.Key))
			_ = s.locks.Release(lockKey(req.Data), resp.LockID)
		}
	})
}

// Handle executes one storage API call.
func (s *Service) Handle(ctx context.Context, req types.StorageRequest) (resp types.StorageResponse, err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveStorage(s.name, req.API, err, time.Since(start))
		}
	}()

	d := req.Data
	switch req.API {
	case types.APIGetNode:
		if err := s.checkLock(ctx, d); err != nil {
			return resp, err
		}
		resp.Node, resp.Found, err = s.backend.Get(ctx, d.ID, d.Key)
	case types.APISetNode:
		if err := s.checkLock(ctx, d); err != nil {
			return resp, err
		}
		err = s.backend.Set(ctx, d.ID, d.Key, d.Node)
	case types.APIDeleteNode:
		if err := s.checkLock(ctx, d); err != nil {
			return resp, err
		}
		err = s.backend.Delete(ctx, d.ID, d.Key)
	case types.APIListKeysWithPrefix:
		resp.Keys, err = s.backend.ListKeys(ctx, d.ID, d.Key)
	case types.APILockNode:
		resp.LockID, err = s.locks.Acquire(ctx, lockKey(d), d.LockID)
	case types.APIUnlockNode:
		err = s.locks.Release(lockKey(d), d.LockID)
	default:
		err = fmt.Errorf("%w: %s does not implement %q", ErrUnknownAPI, s.name, req.API)
	}
	return resp, err
}

// checkLock validates a presented lock id. Requests without one are not
// serialized against lock holders.
func (s *Service) checkLock(ctx context.Context, d types.StorageData) error {
	if d.LockID == "" {
		return nil
	}
	_, err := s.locks.Acquire(ctx, lockKey(d), d.LockID)
	return err
}

func lockKey(d types.StorageData) string {
	return d.ID + ":" + d.Key
}
