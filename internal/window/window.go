package window

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is an exported constant or variable used by the gating engine.
	ErrUnavailable = errors.New("window store unavailable")
	// ErrCorrupt is an exported constant or variable used by the gating engine.
	ErrCorrupt = errors.New("window state corrupt")
)

// State is the persisted per-key window record.
type State struct {
	Attempts int   `json:"attempts"`
	ResetAt  int64 `json:"reset_at"`
}

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store is the backend contract. Admit atomically applies the fixed-window
// step for one key; Clear removes a key's state immediately.
type Store interface {
	Admit(ctx context.Context, key string, maxAttempts int, decay time.Duration) (Result, error)
	Clear(ctx context.Context, key string) error
}

// step applies the fixed-window transition to a loaded state. It returns the
// state to persist (unchanged on rejection) and the admission result. now is
// truncated to whole seconds so reset_at round-trips through storage.
func step(state State, now time.Time, maxAttempts int, decay time.Duration) (State, Result) {
	nowUnix := now.Unix()

	if state.ResetAt <= nowUnix {
		// Stale window: discard, never merge.
		state.Attempts = 0
		state.ResetAt = nowUnix + int64(decay/time.Second)
	}

	resetAt := time.Unix(state.ResetAt, 0)

	if state.Attempts >= maxAttempts {
		return state, Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	state.Attempts++
	return state, Result{
		Allowed:   true,
		Remaining: maxAttempts - state.Attempts,
		ResetAt:   resetAt,
	}
}
