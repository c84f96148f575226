package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is an exported constant or variable used by the gating engine.
var ErrNotFound = errors.New("session not found")

// Manager defines a public type used by goGate APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryManager keeps live sessions in process memory with a fixed TTL.
// Expiry is enforced lazily on Load; there is no background reaper.
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration

	now func() time.Time
}

// NewMemoryManager describes the newmemorymanager operation and its observable behavior.
//
// NewMemoryManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryManager{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *MemoryManager) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.session, nil
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *MemoryManager) Save(_ context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Destroyed() {
		delete(m.sessions, s.ID)
		return nil
	}
	m.sessions[s.ID] = &memoryEntry{
		session:   s,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// Destroy describes the destroy operation and its observable behavior.
//
// Destroy may return an error when input validation, dependency calls, or security checks fail.
// Destroy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *MemoryManager) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.sessions[id]; ok {
		entry.session.Destroy()
		delete(m.sessions, id)
	}
	return nil
}
