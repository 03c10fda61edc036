package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	panics   int
}

func (o *recordingObserver) ObservePublish(string, int) {}

func (o *recordingObserver) ObserveCall(_ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObservePanic(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.panics++
}

func TestPublishReachesAllListeners(t *testing.T) {
	b := New()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(3)
	var got atomic.Int32
	for i := 0; i < 3; i++ {
		b.Listen("topic", "l", func(_ context.Context, msg *Message) {
			defer wg.Done()
			assert.Equal(t, "hello", msg.Payload)
			assert.False(t, msg.IsRequest())
			got.Add(1)
		})
	}

	b.Publish("topic", "hello")
	waitGroup(t, &wg)
	assert.Equal(t, int32(3), got.Load())
}

func TestPublishDoesNotBlock(t *testing.T) {
	b := New()
	defer b.Close()

	release := make(chan struct{})
	b.Listen("slow", "slow", func(context.Context, *Message) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("slow", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow listener")
	}
	close(release)
}

func TestPublishWithoutListenersIsNoop(t *testing.T) {
	b := New()
	defer b.Close()

	assert.NotPanics(t, func() { b.Publish("nobody", 1) })
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	obs := &recordingObserver{}
	b := New(WithObserver(obs))
	defer b.Close()

	reached := make(chan struct{})
	b.Listen("t", "bad", func(context.Context, *Message) { panic("boom") })
	b.Listen("t", "good", func(context.Context, *Message) { close(reached) })

	b.Publish("t", nil)

	select {
	case <-reached:
	case <-time.After(time.Second):
		t.Fatal("second listener never ran")
	}

	assert.Eventually(t, func() bool {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		return obs.panics == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCallFirstResponseWins(t *testing.T) {
	b := New()
	defer b.Close()

	second := make(chan bool, 1)
	b.Listen("q", "first", func(_ context.Context, msg *Message) {
		assert.True(t, msg.IsRequest())
		assert.True(t, msg.Respond("first"))
		second <- msg.Respond("second")
	})

	result, err := b.Call(context.Background(), "q", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", result)
	assert.False(t, <-second)
	assert.Zero(t, b.Pending())
}

func TestCallTimeoutNamesTopic(t *testing.T) {
	obs := &recordingObserver{}
	b := New(WithObserver(obs))
	defer b.Close()

	start := time.Now()
	_, err := b.Call(context.Background(), "unanswered", map[string]string{"key": "v"}, 10*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "unanswered")
	assert.Contains(t, err.Error(), "key:v")
	assert.Less(t, elapsed, 500*time.Millisecond)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "unanswered", te.Topic)
	assert.Equal(t, []string{OutcomeTimeout}, obs.outcomes)
}

func TestLateRespondAfterTimeout(t *testing.T) {
	b := New()
	defer b.Close()

	late := make(chan bool, 1)
	b.Listen("q", "late", func(_ context.Context, msg *Message) {
		time.Sleep(50 * time.Millisecond)
		late <- msg.Respond("too late")
	})

	_, err := b.Call(context.Background(), "q", nil, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, <-late)
}

func TestCallZeroTimeoutWaits(t *testing.T) {
	b := New()
	defer b.Close()

	b.Listen("input", "input", func(_ context.Context, msg *Message) {
		time.Sleep(30 * time.Millisecond)
		msg.Respond("typed")
	})

	result, err := b.Call(context.Background(), "input", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "typed", result)
}

func TestCallRespondWithError(t *testing.T) {
	b := New()
	defer b.Close()

	want := errors.New("storage failure")
	b.Listen("q", "q", func(_ context.Context, msg *Message) { msg.Respond(want) })

	_, err := b.Call(context.Background(), "q", nil, time.Second)
	assert.ErrorIs(t, err, want)
}

func TestCallContextCancel(t *testing.T) {
	b := New()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := b.Call(ctx, "nobody", nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Pending())
}

func TestCloseFailsPendingCalls(t *testing.T) {
	b := New()

	errc := make(chan error, 1)
	go func() {
		_, err := b.Call(context.Background(), "nobody", nil, 0)
		errc <- err
	}()

	assert.Eventually(t, func() bool { return b.Pending() == 1 }, time.Second, time.Millisecond)
	b.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("pending call survived Close")
	}

	_, err := b.Call(context.Background(), "nobody", nil, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCallAs(t *testing.T) {
	b := New()
	defer b.Close()

	b.Listen("n", "n", func(_ context.Context, msg *Message) { msg.Respond(42) })
	b.Listen("s", "s", func(_ context.Context, msg *Message) { msg.Respond("str") })

	n, err := CallAs[int](context.Background(), b, "n", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = CallAs[int](context.Background(), b, "s", nil, time.Second)
	var te *TypeError
	assert.ErrorAs(t, err, &te)
}

func TestEveryListenerRunsOnce(t *testing.T) {
	b := New()
	defer b.Close()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		n := i
		b.Listen("t", "ordered", func(context.Context, *Message) {
			defer wg.Done()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		})
	}
	assert.Equal(t, 2, b.Listeners("t"))

	b.Publish("t", nil)
	waitGroup(t, &wg)
	assert.ElementsMatch(t, []int{0, 1}, order)
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for listeners")
	}
}

func TestSiblingListenersRunIndependently(t *testing.T) {
	b := New()
	defer b.Close()

	release := make(chan struct{})
	second := make(chan struct{})
	b.Listen("t", "first", func(context.Context, *Message) { <-release })
	b.Listen("t", "second", func(context.Context, *Message) { close(second) })

	b.Publish("t", nil)

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second listener waited on its blocked sibling")
	}
	close(release)
}
