package id

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{SessionPrefix, CorrelationPrefix, LockPrefix, ConnectionPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}
		if !IsValidPrefixed(id, prefix) {
			t.Errorf("ID should validate against its prefix: %s", id)
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	tests := map[string]string{
		"sess": NewSessionID().String(),
		"req":  NewCorrelationID().String(),
		"lock": NewLockID().String(),
		"conn": NewConnectionID().String(),
	}

	for prefix, id := range tests {
		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("ID should have format 'prefix_ulid', got: %s", id)
		}
		if parts[0] != prefix {
			t.Errorf("Expected prefix '%s', got '%s'", prefix, parts[0])
		}
		if len(parts[1]) != 26 {
			t.Errorf("ULID should be 26 characters, got %d in ID: %s", len(parts[1]), id)
		}
	}
}

func TestIsValidPrefixedRejectsForeignPrefix(t *testing.T) {
	lock := NewLockID().String()

	if IsValidPrefixed(lock, SessionPrefix) {
		t.Errorf("lock id should not validate as a session id: %s", lock)
	}
	if IsValidPrefixed("lock_nonsense", LockPrefix) {
		t.Error("malformed ULID part should not validate")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(NewGenerator().GenerateString()) {
		t.Error("Generated ULID should be valid")
	}

	for _, id := range []string{"", "invalid", "1234567890", "zzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestampOfPrefixedID(t *testing.T) {
	before := time.Now().UnixMilli()
	id := NewCorrelationID().String()
	after := time.Now().UnixMilli()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}
	if ms := ts.UnixMilli(); ms < before || ms > after {
		t.Errorf("Timestamp should be between %d and %d ms, got %d ms", before, after, ms)
	}
}

func TestInstanceIDIsUUID(t *testing.T) {
	if _, err := uuid.Parse(NewInstanceID()); err != nil {
		t.Errorf("instance id should be a UUID: %v", err)
	}
}

func TestConcurrentGenerationIsSorted(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []string
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perGoroutine)
			for j := 0; j < perGoroutine; j++ {
				local = append(local, gen.GenerateString())
			}
			if !sort.StringsAreSorted(local) {
				t.Error("IDs from one goroutine should be monotonic")
			}
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, len(all))
	for _, id := range all {
		if seen[id] {
			t.Errorf("Duplicate ID found in concurrent generation: %s", id)
		}
		seen[id] = true
	}
}

func TestDefaultGenerator(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same instance")
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(CorrelationPrefix)
	}
}
