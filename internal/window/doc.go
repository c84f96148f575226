// Package window provides internal fixed-window counter stores used by the
// rate limiter.
//
// # Window semantics
//
// One record per client key: {attempts, reset_at}. A record whose reset_at
// has passed is discarded and replaced with a fresh window (never merged),
// so bursts straddling a window boundary can admit up to twice the budget.
// That behavior is preserved deliberately for compatibility with the
// storefront's observed limiter. Admission is check-then-increment: a
// rejected request does not advance the counter.
//
// Every backend serializes the read-check-increment-write sequence per key:
// the file store with an exclusive flock, the Redis store with a Lua script,
// the memory store with a mutex. The session store is exempt by design (one
// session is not accessed concurrently by the same user in this system).
//
// # What this package must NOT do
//
//   - Implement policy (limits and decay come from the caller).
//   - Be imported outside the goGate module.
package window
