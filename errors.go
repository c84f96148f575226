package goGate

import "errors"

var (
	// ErrUserNotFound is an exported constant or variable used by the gating engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrCsrfMismatch is an exported constant or variable used by the gating engine.
	ErrCsrfMismatch = errors.New("csrf token mismatch")
	// ErrStoreUnavailable is an exported constant or variable used by the gating engine.
	ErrStoreUnavailable = errors.New("window store unavailable")
	// ErrUnknownPolicy is an exported constant or variable used by the gating engine.
	ErrUnknownPolicy = errors.New("unknown rate limit policy")
	// ErrBearerInvalid is an exported constant or variable used by the gating engine.
	ErrBearerInvalid = errors.New("invalid bearer token")
	// ErrEngineNotReady is an exported constant or variable used by the gating engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserProviderRequired is an exported constant or variable used by the gating engine.
	ErrUserProviderRequired = errors.New("user provider required")
)
