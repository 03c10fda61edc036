package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned without running the call while the breaker is open.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeLimit is returned in the half-open state once every probe
	// slot is taken.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero fields take the defaults noted.
type Settings struct {
	// Probes is how many calls the half-open state admits, and how many
	// consecutive successes close the breaker again. Default 1.
	Probes uint32
	// Window is how often the closed state forgets its counts. Default 1m.
	Window time.Duration
	// Cooldown is how long the breaker stays open. Default 30s.
	Cooldown time.Duration
	// ReadyToTrip decides, after a failure in the closed state, whether to
	// open. Default: five consecutive failures.
	ReadyToTrip func(Counts) bool
	// OnStateChange observes every transition.
	OnStateChange func(name string, from, to State)
}

// Counts are the statistics of the current window.
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.Successes++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.Failures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker is safe for concurrent use.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	deadline   time.Time
}

// New creates a closed breaker.
func New(name string, settings Settings) *Breaker {
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.Window <= 0 {
		settings.Window = time.Minute
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}

	b := &Breaker{name: name, settings: settings, now: time.Now}
	b.deadline = b.now().Add(settings.Window)
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, applying any pending time-based
// transition first.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.now())
	return b.state
}

// Counts returns a copy of the current window's counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Execute runs fn unless the breaker rejects it. A panic in fn counts as
// a failure and is re-raised.
func (b *Breaker) Execute(fn func() error) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if !completed {
			b.record(generation, false)
		}
	}()

	err = fn()
	completed = true
	b.record(generation, err == nil)
	return err
}

// Run is Execute for calls that produce a value.
func Run[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.now())
	switch {
	case b.state == StateOpen:
		return 0, ErrOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.settings.Probes:
		return 0, ErrProbeLimit
	}
	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) record(generation uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.advance(now)
	if generation != b.generation {
		return
	}

	if ok {
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.failure()
	switch b.state {
	case StateClosed:
		if b.settings.ReadyToTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// advance applies deadline-driven changes: the closed window rolls over,
// the open cooldown ends.
func (b *Breaker) advance(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.counts = Counts{}
			b.generation++
			b.deadline = now.Add(b.settings.Window)
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.counts = Counts{}
	b.generation++

	switch to {
	case StateClosed:
		b.deadline = now.Add(b.settings.Window)
	case StateOpen:
		b.deadline = now.Add(b.settings.Cooldown)
	case StateHalfOpen:
		b.deadline = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
