package goGate

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goGate/role"
)

// AuthGate returns the gate requiring an authenticated identity. A session
// carrying a user id passes; when bearer mode is enabled, a valid bearer
// token passes too. The gate trusts the session between login and logout
// and does not re-verify the user record on every request; RoleGate does
// that where it matters.
func (e *Engine) AuthGate() Gate {
	return &authGate{engine: e}
}

type authGate struct {
	engine *Engine
}

// Name describes the name operation and its observable behavior.
//
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *authGate) Name() string {
	return "auth"
}

// Check describes the check operation and its observable behavior.
//
// Check may return an error when input validation, dependency calls, or security checks fail.
// Check does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *authGate) Check(ctx context.Context, req *Request) (Decision, error) {
	if req.Session != nil && req.Session.HasUser() {
		req.AuthUserID = req.Session.UserID()
		return Allow(), nil
	}

	if g.engine.bearer != nil {
		if token, ok := bearerToken(req.Header.Get("Authorization")); ok {
			userID, err := g.engine.bearer.Verify(token)
			if err == nil && userID != "" {
				g.engine.metrics.Inc(MetricBearerAccepted)
				req.AuthUserID = userID
				return Allow(), nil
			}
			g.engine.metrics.Inc(MetricBearerRejected)
		}
	}

	g.engine.metrics.Inc(MetricAuthDenied)
	g.engine.audit(ctx, req, AuditEvent{
		EventType: "auth.denied",
		Status:    http.StatusUnauthorized,
	})

	return Deny(g.engine.unauthenticated(req)), nil
}

// unauthenticated builds the standard denial for missing identity: 401
// envelope for JSON clients, remember-then-redirect for browsers.
func (e *Engine) unauthenticated(req *Request) *Response {
	if req.WantsJSON() {
		return &Response{
			Status: http.StatusUnauthorized,
			Envelope: &Envelope{
				Success: false,
				Message: "Authentication required.",
				Code:    http.StatusUnauthorized,
			},
		}
	}

	if req.Session != nil && req.Method == http.MethodGet {
		req.Session.RememberURL(req.Path)
	}
	return &Response{
		Status:      http.StatusFound,
		RedirectURL: e.cfg.Auth.LoginURL,
	}
}

// GuestGate returns the inverse gate protecting guest-only pages (login,
// register). Authenticated browsers are redirected away — to the admin
// dashboard when the cached session role is staff or above, else home. JSON
// clients receive a 302-coded envelope carrying the target URL so they can
// follow it themselves.
func (e *Engine) GuestGate() Gate {
	return &guestGate{engine: e}
}

type guestGate struct {
	engine *Engine
}

// Name describes the name operation and its observable behavior.
//
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *guestGate) Name() string {
	return "guest"
}

// Check describes the check operation and its observable behavior.
//
// Check may return an error when input validation, dependency calls, or security checks fail.
// Check does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *guestGate) Check(ctx context.Context, req *Request) (Decision, error) {
	if req.Session == nil || !req.Session.HasUser() {
		return Allow(), nil
	}

	target := g.engine.cfg.Auth.HomeURL
	if cached, err := role.Parse(req.Session.CachedRole()); err == nil && cached.CanAccess(role.Staff) {
		target = g.engine.cfg.Auth.AdminHomeURL
	}

	g.engine.metrics.Inc(MetricGuestRedirected)
	g.engine.audit(ctx, req, AuditEvent{
		EventType: "guest.redirected",
		Status:    http.StatusFound,
		Metadata:  map[string]string{"target": target},
	})

	if req.WantsJSON() {
		return Deny(&Response{
			Status: http.StatusOK,
			Envelope: &Envelope{
				Success:  true,
				Message:  "Already authenticated.",
				Code:     http.StatusFound,
				Redirect: target,
			},
		}), nil
	}

	return Deny(&Response{
		Status:      http.StatusFound,
		RedirectURL: target,
	}), nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) <= len(bearer) || value[:len(bearer)] != bearer {
		return "", false
	}
	return value[len(bearer):], true
}
