package session

import (
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
)

// Session defines a public type used by goGate APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	ID string

	mu          sync.RWMutex
	userID      string
	cachedRole  string
	csrfSecret  string
	intendedURL string
	flashes     map[string][]string
	values      map[string][]byte
	destroyed   bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Session {
	return &Session{
		ID:         uuid.NewString(),
		csrfSecret: uuid.NewString(),
		flashes:    make(map[string][]string),
		values:     make(map[string][]byte),
	}
}

// HasUser reports whether the session carries an authenticated identity.
func (s *Session) HasUser() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.destroyed && s.userID != ""
}

// UserID describes the userid operation and its observable behavior.
//
// UserID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.destroyed {
		return ""
	}
	return s.userID
}

// Authenticate binds a user identity and its role name to the session.
// The cached role is advisory (used for guest-gate redirect targets);
// authoritative role checks re-resolve the user record.
func (s *Session) Authenticate(userID, roleName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.cachedRole = roleName
}

// CachedRole describes the cachedrole operation and its observable behavior.
//
// CachedRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) CachedRole() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cachedRole
}

// CSRFToken returns the session-bound secret the server embeds into forms.
func (s *Session) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrfSecret
}

// RotateCSRFToken replaces the CSRF secret, invalidating outstanding forms.
func (s *Session) RotateCSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrfSecret = uuid.NewString()
	return s.csrfSecret
}

// VerifyCSRFToken compares the presented token against the stored secret in
// constant time. An empty presented token never verifies.
func (s *Session) VerifyCSRFToken(token string) bool {
	s.mu.RLock()
	secret := s.csrfSecret
	destroyed := s.destroyed
	s.mu.RUnlock()

	if destroyed || token == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// RememberURL stores the originally-requested URL for post-login redirect.
func (s *Session) RememberURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intendedURL = u
}

// ConsumeIntendedURL returns and clears the remembered URL, if any.
func (s *Session) ConsumeIntendedURL() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.intendedURL
	s.intendedURL = ""
	return u, u != ""
}

// Flash appends a one-shot message under the given key.
func (s *Session) Flash(key, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flashes == nil {
		s.flashes = make(map[string][]string)
	}
	s.flashes[key] = append(s.flashes[key], message)
}

// ConsumeFlashes returns and clears all flash messages.
func (s *Session) ConsumeFlashes() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = make(map[string][]string)
	return out
}

// Has describes the has operation and its observable behavior.
//
// Has does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Get describes the get operation and its observable behavior.
//
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set describes the set operation and its observable behavior.
//
// Set does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = value
}

// Delete describes the delete operation and its observable behavior.
//
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Destroy wipes identity, secrets, flashes, and values. A destroyed session
// reports no user and verifies no token; managers drop it on next save.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.cachedRole = ""
	s.csrfSecret = ""
	s.intendedURL = ""
	s.flashes = make(map[string][]string)
	s.values = make(map[string][]byte)
	s.destroyed = true
}

// Destroyed describes the destroyed operation and its observable behavior.
//
// Destroyed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}
