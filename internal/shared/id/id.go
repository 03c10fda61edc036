// Package id provides centralized ID generation for the terminal backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: correlation ids sort in request order in logs
//   - Prefixed types: type-specific prefixes for debugging (sess_*, req_*, lock_*)
//   - Type safety: separate types prevent passing a lock id where a session id is due
//
// Storage instance ids (the UUID variable of a terminal) are plain RFC 4122
// UUIDs so that they stay stable across backends that key on them.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionID identifies a terminal session (one bus and its services)
type SessionID string

// CorrelationID pairs a bus request with its response
type CorrelationID string

// LockID identifies one holder of a per-key lock
type LockID string

// ConnectionID identifies a WebSocket connection
type ConnectionID string

const (
	SessionPrefix     = "sess"
	CorrelationPrefix = "req"
	LockPrefix        = "lock"
	ConnectionPrefix  = "conn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
// Entropy is monotonic so ids minted within one millisecond still sort.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewCorrelationID generates a new request correlation ID
func NewCorrelationID() CorrelationID {
	return CorrelationID(Default().GenerateWithPrefix(CorrelationPrefix))
}

// NewLockID generates a new lock ID
func NewLockID() LockID {
	return LockID(Default().GenerateWithPrefix(LockPrefix))
}

// NewConnectionID generates a new connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(ConnectionPrefix))
}

// NewInstanceID returns a random UUID identifying one storage owner
func NewInstanceID() string {
	return uuid.NewString()
}

func (id SessionID) String() string     { return string(id) }
func (id CorrelationID) String() string { return string(id) }
func (id LockID) String() string        { return string(id) }
func (id ConnectionID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks that id has the form prefix_ULID
func IsValidPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID, with or without a prefix
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
