package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/mutex"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
)

type recordingObserver struct {
	calls chan string
}

func (o *recordingObserver) ObserveStorage(backend, api string, err error, _ time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.calls <- backend + "/" + api + "/" + outcome
}

func newBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)
	return b
}

func TestServiceRoutesByName(t *testing.T) {
	b := newBus(t)
	session := NewService(types.StorageSession, NewMemory(), nil)
	local := NewService(types.StorageLocal, NewMemory(), nil)
	session.Listen(b)
	local.Listen(b)
	ctx := context.Background()

	sc := NewClient(b, types.StorageSession, "inst", time.Second)
	lc := NewClient(b, types.StorageLocal, "inst", time.Second)

	require.NoError(t, sc.Set(ctx, "k", []byte("session"), ""))
	require.NoError(t, lc.Set(ctx, "k", []byte("local"), ""))

	node, found, err := sc.Get(ctx, "k", "")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "session", string(node))

	node, _, err = lc.Get(ctx, "k", "")
	require.NoError(t, err)
	assert.Equal(t, "local", string(node))
}

func TestServiceUnknownAPI(t *testing.T) {
	svc := NewService(types.StorageLocal, NewMemory(), nil)

	_, err := svc.Handle(context.Background(), types.StorageRequest{StorageName: types.StorageLocal, API: "format"})
	assert.ErrorIs(t, err, ErrUnknownAPI)
}

func TestServiceLocking(t *testing.T) {
	b := newBus(t)
	svc := NewService(types.StorageLocal, NewMemory(), nil)
	svc.Listen(b)
	c := NewClient(b, types.StorageLocal, "inst", time.Second)
	ctx := context.Background()

	lockID, err := c.Lock(ctx, "history")
	require.NoError(t, err)
	assert.True(t, id.IsValidPrefixed(string(lockID), "lock"))

	require.NoError(t, c.Set(ctx, "history", []byte(`["ls"]`), lockID))

	err = c.Set(ctx, "history", []byte(`[]`), id.NewLockID())
	assert.ErrorIs(t, err, mutex.ErrLockViolation)

	// A second locker waits until the first releases.
	acquired := make(chan id.LockID, 1)
	go func() {
		second, err := c.Lock(ctx, "history")
		if assert.NoError(t, err) {
			acquired <- second
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock granted while held")
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, c.Unlock(ctx, "history", lockID))
	second := <-acquired
	assert.NotEqual(t, lockID, second)

	assert.ErrorIs(t, c.Unlock(ctx, "history", lockID), mutex.ErrLockViolation)
	require.NoError(t, c.Unlock(ctx, "history", second))
}

func TestServiceLocksAreScopedByInstance(t *testing.T) {
	b := newBus(t)
	NewService(types.StorageLocal, NewMemory(), nil).Listen(b)
	ctx := context.Background()

	a := NewClient(b, types.StorageLocal, "a", time.Second)
	other := NewClient(b, types.StorageLocal, "b", time.Second)

	_, err := a.Lock(ctx, "history")
	require.NoError(t, err)

	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = other.Lock(lockCtx, "history")
	assert.NoError(t, err)
}

func TestAbandonedLockIsReleased(t *testing.T) {
	b := newBus(t)
	svc := NewService(types.StorageLocal, NewMemory(), nil)
	svc.Listen(b)
	ctx := context.Background()
	c := NewClient(b, types.StorageLocal, "inst", time.Second)

	held, err := c.Lock(ctx, "k")
	require.NoError(t, err)

	impatient := NewClient(b, types.StorageLocal, "inst", 20*time.Millisecond)
	_, err = impatient.Lock(ctx, "k")
	require.ErrorIs(t, err, bus.ErrTimeout)

	require.NoError(t, c.Unlock(ctx, "k", held))

	// The impatient request is granted and dropped; the key frees up again.
	assert.Eventually(t, func() bool {
		_, locked := svc.locks.Holder("inst:k")
		return !locked
	}, time.Second, 5*time.Millisecond)
}

func TestWithLockAndJSONHelpers(t *testing.T) {
	b := newBus(t)
	NewService(types.StorageLocal, NewMemory(), nil).Listen(b)
	c := NewClient(b, types.StorageLocal, "inst", time.Second)
	ctx := context.Background()

	err := c.WithLock(ctx, "history", func(lockID id.LockID) error {
		entries, _, err := Load[[]string](ctx, c, "history", lockID)
		if err != nil {
			return err
		}
		return Store(ctx, c, "history", append(entries, "echo hi"), lockID)
	})
	require.NoError(t, err)

	entries, found, err := Load[[]string](ctx, c, "history", "")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"echo hi"}, entries)
}

func TestServiceObserver(t *testing.T) {
	obs := &recordingObserver{calls: make(chan string, 4)}
	svc := NewService(types.StorageSession, NewMemory(), nil)
	svc.SetObserver(obs)
	ctx := context.Background()

	_, _ = svc.Handle(ctx, types.StorageRequest{StorageName: types.StorageSession, API: types.APIGetNode})
	_, _ = svc.Handle(ctx, types.StorageRequest{StorageName: types.StorageSession, API: types.APIUnlockNode})

	assert.Equal(t, "SESSION/getNode/ok", <-obs.calls)
	assert.Equal(t, "SESSION/unlockNode/error", <-obs.calls)
}
