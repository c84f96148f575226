package window

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps window state in a mutex-guarded map. Process-local; the
// low-stakes default when neither Redis nor a file directory is configured,
// and the substrate for tests.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
	now    func() time.Time
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// NewMemoryStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		states: make(map[string]State),
		now:    now,
	}
}

// Admit describes the admit operation and its observable behavior.
//
// Admit may return an error when input validation, dependency calls, or security checks fail.
// Admit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) Admit(_ context.Context, key string, maxAttempts int, decay time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, result := step(s.states[key], s.now(), maxAttempts, decay)
	s.states[key] = next
	return result, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}
