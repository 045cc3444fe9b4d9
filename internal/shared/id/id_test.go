package id

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	if gen.Generate().String() == gen.Generate().String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{RequestPrefix, RunPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}
		if !IsValidULID(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestSessionIDIsUUIDv4(t *testing.T) {
	sid := NewSessionID()

	parsed, err := uuid.Parse(sid.String())
	if err != nil {
		t.Fatalf("session id should parse as UUID: %v", err)
	}
	if parsed.Version() != 4 {
		t.Errorf("expected UUID version 4, got %d", parsed.Version())
	}
	if !IsValidSessionID(sid.String()) {
		t.Error("IsValidSessionID rejected a generated id")
	}
	if IsValidSessionID("not-a-session") {
		t.Error("IsValidSessionID accepted garbage")
	}
}

func TestTypedIDPrefixes(t *testing.T) {
	if !strings.HasPrefix(NewRequestID().String(), "req_") {
		t.Error("RequestID should start with 'req_'")
	}
	if !strings.HasPrefix(NewRunID().String(), "run_") {
		t.Error("RunID should start with 'run_'")
	}
}

func TestDeterministicEntropy(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 64)
	a := NewGeneratorWithEntropy(bytes.NewReader(seed)).Generate()
	b := NewGeneratorWithEntropy(bytes.NewReader(seed)).Generate()

	if a.Entropy()[0] != b.Entropy()[0] {
		t.Error("same entropy source should yield the same random component")
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	s := NewGenerator().Generate().String()

	ts, err := Timestamp(s)
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v is earlier than %v", ts, before)
	}

	if _, err := Timestamp("bogus"); err == nil {
		t.Error("expected error for invalid ULID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const n = 200

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := gen.Generate().String()
			mu.Lock()
			seen[s] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(seen))
	}
}
