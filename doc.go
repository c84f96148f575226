// Package goGate provides a request-gating engine for web storefronts: a
// short-circuiting middleware pipeline combining fixed-window rate limiting,
// CSRF defense, session-based authentication and role-hierarchy checks, with
// centralized translation of failures into correctly-shaped HTTP responses.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goGate is the public surface. It exposes [Engine], [Builder], [Config], the
// gate types, and value types (Decision, Response, Failure, MetricsSnapshot).
// Window-store backends live under internal/ and are selected by
// configuration, never constructed by callers.
//
// # What this package must NOT do
//
//   - Render application templates or touch the data-access layer beyond the
//     injected [UserProvider].
//   - Expose store handles, file descriptors, or Redis clients in its public
//     API.
//   - Use panics for routine gate outcomes; expected denials are values,
//     recovery is reserved for truly unanticipated failures.
//
// # Performance contract
//
// Gate checks are the hot path. A pass through AuthGate and CsrfGuard must
// not allocate beyond the returned Decision and must perform no I/O; only
// RateLimiter and RoleGate may touch their backing store, at most once per
// request.
package goGate
