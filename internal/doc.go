// Package internal holds implementation packages that are intentionally
// private to goGate.
//
// # Sub-packages
//
//   - window — fixed-window counter stores (memory, file, redis, session)
//     selected by policy configuration
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGate API.
//   - Be imported by any package outside the goGate module.
package internal
