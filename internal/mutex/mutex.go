// Package mutex provides per-key asynchronous locks with FIFO hand-off.
//
// Storage services hold a key across several bus round trips (read the
// history, append, write it back). A plain sync.Mutex cannot express that:
// the holder is identified by a lock id that travels in request payloads,
// and a caller that already owns the key re-enters by presenting its id.
//
// Per key the lock moves Unlocked -> Locked(id) -> Unlocked. Waiters are
// served strictly in call order. There is no hold timeout: a holder that
// never releases blocks that key for the lifetime of the Mutex.
package mutex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nnoitra/terminal/internal/shared/id"
)

// ErrLockViolation is returned when a lock id does not match the holder.
var ErrLockViolation = errors.New("lock violation")

// LockError describes a mismatched or absent lock id.
type LockError struct {
	Op     string
	Key    string
	LockID id.LockID
}

func (e *LockError) Error() string {
	if e.LockID == "" {
		return fmt.Sprintf("%s %q: no lock held", e.Op, e.Key)
	}
	return fmt.Sprintf("%s %q: lock id %s does not hold the key", e.Op, e.Key, e.LockID)
}

// Is reports ErrLockViolation so callers can match with errors.Is.
func (e *LockError) Is(target error) bool {
	return target == ErrLockViolation
}

type entry struct {
	// tail is closed when the most recently queued acquirer releases.
	tail    chan struct{}
	holder  id.LockID
	release chan struct{}
}

// Mutex manages one FIFO lock per key. Entries are created on first use
// and kept for the lifetime of the Mutex.
type Mutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty lock manager
func New() *Mutex {
	return &Mutex{entries: make(map[string]*entry)}
}

func (m *Mutex) entry(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		open := make(chan struct{})
		close(open)
		e = &entry{tail: open}
		m.entries[key] = e
	}
	return e
}

// Acquire locks key and returns the new lock id.
//
// With an explicit lock id the call does not queue: it succeeds at once
// when that id holds the key and fails with ErrLockViolation otherwise.
// Without one the call waits behind every earlier Acquire on the key. If
// ctx ends while waiting, Acquire returns ctx.Err() and its turn passes to
// the next waiter.
func (m *Mutex) Acquire(ctx context.Context, key string, explicit id.LockID) (id.LockID, error) {
	m.mu.Lock()
	e := m.entry(key)

	if explicit != "" {
		holder := e.holder
		m.mu.Unlock()
		if holder != explicit {
			return "", &LockError{Op: "acquire", Key: key, LockID: explicit}
		}
		return explicit, nil
	}

	prev := e.tail
	gate := make(chan struct{})
	e.tail = gate
	m.mu.Unlock()

	select {
	case <-prev:
	case <-ctx.Done():
		go func() {
			<-prev
			close(gate)
		}()
		return "", ctx.Err()
	}

	lockID := id.NewLockID()

	m.mu.Lock()
	e.holder = lockID
	e.release = gate
	m.mu.Unlock()

	return lockID, nil
}

// Release unlocks key. lockID must be the id returned by Acquire; a
// mismatch, or a key that is not locked, is a LockError.
func (m *Mutex) Release(key string, lockID id.LockID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.holder == "" || e.holder != lockID {
		return &LockError{Op: "release", Key: key, LockID: lockID}
	}

	close(e.release)
	e.holder = ""
	e.release = nil
	return nil
}

// Holder returns the id currently holding key, if any.
func (m *Mutex) Holder(key string) (id.LockID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.holder == "" {
		return "", false
	}
	return e.holder, true
}

// WithLock runs fn while holding key. When explicit is set the caller
// already holds the key and fn runs under that lock without releasing it.
func (m *Mutex) WithLock(ctx context.Context, key string, explicit id.LockID, fn func() error) error {
	lockID, err := m.Acquire(ctx, key, explicit)
	if err != nil {
		return err
	}
	if explicit != "" {
		return fn()
	}
	defer func() {
		_ = m.Release(key, lockID)
	}()
	return fn()
}
