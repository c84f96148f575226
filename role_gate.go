package goGate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGate/role"
)

// RoleGate returns the gate requiring the given minimum role. Unlike
// AuthGate it re-resolves the user record on every check: a deleted or
// deactivated account loses access mid-session, and its session is
// destroyed on the spot.
func (e *Engine) RoleGate(required role.Role) Gate {
	return &roleGate{engine: e, required: required}
}

// RequireStaff describes the requirestaff operation and its observable behavior.
//
// RequireStaff may return an error when input validation, dependency calls, or security checks fail.
// RequireStaff does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequireStaff() Gate {
	return e.presetGate("staff")
}

// RequireManager describes the requiremanager operation and its observable behavior.
//
// RequireManager may return an error when input validation, dependency calls, or security checks fail.
// RequireManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequireManager() Gate {
	return e.presetGate("manager")
}

// RequireAdmin describes the requireadmin operation and its observable behavior.
//
// RequireAdmin may return an error when input validation, dependency calls, or security checks fail.
// RequireAdmin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequireAdmin() Gate {
	return e.presetGate("admin")
}

// RequireDefaultRole returns the gate for the configured default preset.
func (e *Engine) RequireDefaultRole() Gate {
	return e.presetGate(e.cfg.Roles.DefaultPreset)
}

func (e *Engine) presetGate(preset string) Gate {
	name, ok := e.cfg.Roles.Presets[preset]
	if !ok {
		name = preset
	}
	r, err := role.Parse(name)
	if err != nil {
		// Misconfigured presets surface at check time as an impossible
		// requirement rather than at construction.
		return &roleGate{engine: e, required: r, parseErr: fmt.Errorf("preset %q: %w", preset, err)}
	}
	return &roleGate{engine: e, required: r}
}

type roleGate struct {
	engine   *Engine
	required role.Role
	parseErr error
}

// Name describes the name operation and its observable behavior.
//
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *roleGate) Name() string {
	return "role:" + g.required.String()
}

// Check describes the check operation and its observable behavior.
//
// Check may return an error when input validation, dependency calls, or security checks fail.
// Check does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *roleGate) Check(ctx context.Context, req *Request) (Decision, error) {
	if g.parseErr != nil {
		return Decision{}, WrapFailure(KindInternal, "role gate misconfigured", g.parseErr)
	}

	userID := req.AuthUserID
	if userID == "" && req.Session != nil {
		userID = req.Session.UserID()
	}
	if userID == "" {
		g.engine.metrics.Inc(MetricAuthDenied)
		return Deny(g.engine.unauthenticated(req)), nil
	}

	rec, err := g.engine.users.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		// Stale identity: the account is gone, so the session goes too.
		g.destroySession(ctx, req)
		return Deny(g.engine.unauthenticated(req)), nil
	}
	if err != nil {
		return Decision{}, WrapFailure(KindDatabase, "user lookup failed", err)
	}

	if !rec.Active {
		g.destroySession(ctx, req)
		g.engine.audit(ctx, req, AuditEvent{
			EventType: "role.inactive_account",
			UserID:    userID,
			Status:    http.StatusForbidden,
		})
		if req.WantsJSON() {
			return Deny(&Response{
				Status: http.StatusForbidden,
				Envelope: &Envelope{
					Success: false,
					Message: "Account is inactive.",
					Code:    http.StatusForbidden,
				},
			}), nil
		}
		return Deny(&Response{
			Status:      http.StatusFound,
			RedirectURL: g.engine.cfg.Auth.LoginURL,
		}), nil
	}

	held, parseErr := role.Parse(rec.Role)
	if rec.Role == "" || parseErr != nil || !held.CanAccess(g.required) {
		g.engine.metrics.Inc(MetricRoleDenied)
		g.engine.audit(ctx, req, AuditEvent{
			EventType: "role.denied",
			UserID:    userID,
			Status:    http.StatusForbidden,
			Metadata: map[string]string{
				"held":     rec.Role,
				"required": g.required.String(),
			},
		})

		if req.WantsJSON() {
			return Deny(&Response{
				Status: http.StatusForbidden,
				Envelope: &Envelope{
					Success: false,
					Message: "You do not have permission to access this resource.",
					Code:    http.StatusForbidden,
				},
			}), nil
		}

		if req.Session != nil {
			req.Session.Flash("error", "You do not have permission to access that page.")
		}
		return Deny(&Response{
			Status:      http.StatusFound,
			RedirectURL: g.engine.cfg.Auth.HomeURL,
		}), nil
	}

	return Allow(), nil
}

func (g *roleGate) destroySession(ctx context.Context, req *Request) {
	if req.Session == nil {
		return
	}
	req.Session.Destroy()
	g.engine.metrics.Inc(MetricSessionDestroyed)
	if g.engine.sessions != nil {
		_ = g.engine.sessions.Destroy(ctx, req.Session.ID)
	}
}
