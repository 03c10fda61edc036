package mutex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/shared/id"
)

func TestAcquireRelease(t *testing.T) {
	m := New()
	ctx := context.Background()

	lockID, err := m.Acquire(ctx, "history", "")
	require.NoError(t, err)
	assert.True(t, id.IsValidPrefixed(lockID.String(), id.LockPrefix))

	holder, ok := m.Holder("history")
	require.True(t, ok)
	assert.Equal(t, lockID, holder)

	require.NoError(t, m.Release("history", lockID))
	_, ok = m.Holder("history")
	assert.False(t, ok)
}

func TestQueuedAcquireIsFIFO(t *testing.T) {
	m := New()
	ctx := context.Background()

	first, err := m.Acquire(ctx, "k", "")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)

	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lockID, err := m.Acquire(ctx, "k", "")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			assert.NoError(t, m.Release("k", lockID))
		}(i)
		// Let goroutine n queue before n+1.
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	assert.Empty(t, order, "waiters must not run while the key is held")
	mu.Unlock()

	require.NoError(t, m.Release("k", first))
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
}

func TestSecondWaiterRunsOnlyAfterRelease(t *testing.T) {
	m := New()
	ctx := context.Background()

	first, err := m.Acquire(ctx, "k", "")
	require.NoError(t, err)

	acquired := make(chan id.LockID, 1)
	go func() {
		lockID, _ := m.Acquire(ctx, "k", "")
		acquired <- lockID
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire resolved before release")
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, m.Release("k", first))

	select {
	case second := <-acquired:
		assert.NotEqual(t, first, second)
	case <-time.After(time.Second):
		t.Fatal("second acquire never resolved")
	}
}

func TestExplicitLockID(t *testing.T) {
	m := New()
	ctx := context.Background()

	lockID, err := m.Acquire(ctx, "k", "")
	require.NoError(t, err)

	t.Run("matching id re-enters without queueing", func(t *testing.T) {
		got, err := m.Acquire(ctx, "k", lockID)
		require.NoError(t, err)
		assert.Equal(t, lockID, got)
	})

	t.Run("foreign id is a violation", func(t *testing.T) {
		_, err := m.Acquire(ctx, "k", id.NewLockID())
		assert.ErrorIs(t, err, ErrLockViolation)
	})

	t.Run("explicit id on unlocked key is a violation", func(t *testing.T) {
		_, err := m.Acquire(ctx, "other", lockID)
		assert.ErrorIs(t, err, ErrLockViolation)
	})

	require.NoError(t, m.Release("k", lockID))
}

func TestReleaseViolations(t *testing.T) {
	m := New()
	ctx := context.Background()

	err := m.Release("never", id.NewLockID())
	var lockErr *LockError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, "release", lockErr.Op)

	lockID, err := m.Acquire(ctx, "k", "")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Release("k", id.NewLockID()), ErrLockViolation)
	require.NoError(t, m.Release("k", lockID))
	assert.ErrorIs(t, m.Release("k", lockID), ErrLockViolation, "double release")
}

func TestCancelledWaiterPassesTurn(t *testing.T) {
	m := New()
	ctx := context.Background()

	first, err := m.Acquire(ctx, "k", "")
	require.NoError(t, err)

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(cctx, "k", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan struct{})
	go func() {
		defer close(done)
		lockID, err := m.Acquire(ctx, "k", "")
		if assert.NoError(t, err) {
			assert.NoError(t, m.Release("k", lockID))
		}
	}()

	require.NoError(t, m.Release("k", first))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter behind a cancelled acquire never ran")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err := m.Acquire(ctx, "a", "")
	require.NoError(t, err)
	b, err := m.Acquire(ctx, "b", "")
	require.NoError(t, err)

	require.NoError(t, m.Release("a", a))
	require.NoError(t, m.Release("b", b))
}

func TestWithLock(t *testing.T) {
	m := New()
	ctx := context.Background()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "counter", "", func() error {
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	_, held := m.Holder("counter")
	assert.False(t, held)
}
