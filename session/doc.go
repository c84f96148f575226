// Package session holds the authentication identity, CSRF secret, flash
// messages, and scratch key-value state for one browser session.
//
// A [Session] is owned by a single request at a time in this design; the
// same user re-entering concurrently is an accepted limitation, not a
// guarantee (callers that need stronger discipline must serialize at the
// transport layer). Managers persist sessions either in process memory or
// in Redis under a configurable key prefix.
//
// # What this package must NOT do
//
//   - Decide access; gates in the root package interpret session state.
//   - Compare CSRF tokens non-constant-time; VerifyCSRFToken is the only
//     comparison path.
package session
