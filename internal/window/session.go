package window

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrEthical07/goGate/session"
)

// SessionStore scopes window state to one browser session, storing records
// in the session's key-value area. There is no cross-request locking: a
// session is not expected to be accessed concurrently by the same user in
// this design. That is an accepted limitation, not a guarantee.
type SessionStore struct {
	sess *session.Session
	now  func() time.Time
}

// ForSession describes the forsession operation and its observable behavior.
//
// ForSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ForSession(sess *session.Session, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sess: sess, now: now}
}

// Admit describes the admit operation and its observable behavior.
//
// Admit may return an error when input validation, dependency calls, or security checks fail.
// Admit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) Admit(_ context.Context, key string, maxAttempts int, decay time.Duration) (Result, error) {
	if s.sess == nil {
		return Result{}, fmt.Errorf("%w: no session bound", ErrUnavailable)
	}

	var state State
	if blob, ok := s.sess.Get(key); ok {
		if err := json.Unmarshal(blob, &state); err != nil {
			state = State{}
		}
	}

	next, result := step(state, s.now(), maxAttempts, decay)

	blob, err := json.Marshal(next)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	s.sess.Set(key, blob)

	return result, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) Clear(_ context.Context, key string) error {
	if s.sess != nil {
		s.sess.Delete(key)
	}
	return nil
}
