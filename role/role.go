package role

import (
	"errors"
	"fmt"
)

// Role defines a public type used by goGate APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role uint8

const (
	// Guest is an exported constant or variable used by the gating engine.
	Guest Role = iota
	// Customer is an exported constant or variable used by the gating engine.
	Customer
	// Staff is an exported constant or variable used by the gating engine.
	Staff
	// Manager is an exported constant or variable used by the gating engine.
	Manager
	// Admin is an exported constant or variable used by the gating engine.
	Admin
)

// ErrUnknownRole is an exported constant or variable used by the gating engine.
var ErrUnknownRole = errors.New("unknown role")

var names = map[Role]string{
	Guest:    "guest",
	Customer: "customer",
	Staff:    "staff",
	Manager:  "manager",
	Admin:    "admin",
}

var byName = map[string]Role{
	"guest":    Guest,
	"customer": Customer,
	"staff":    Staff,
	"manager":  Manager,
	"admin":    Admin,
}

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

// Rank returns the ordinal position of r in the hierarchy. Unknown roles
// rank below Guest so they can never satisfy any requirement.
func (r Role) Rank() int {
	if !r.Valid() {
		return -1
	}
	return int(r)
}

// CanAccess reports whether a holder of r may access a resource requiring
// the given role. The relation is reflexive and monotonic in rank. An
// invalid held role never passes, regardless of the requirement.
func (r Role) CanAccess(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

// Parse describes the parse operation and its observable behavior.
//
// Parse may return an error when input validation, dependency calls, or security checks fail.
// Parse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Parse(name string) (Role, error) {
	if r, ok := byName[name]; ok {
		return r, nil
	}
	return Guest, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}
