package goGate

import (
	"context"
	"net/http"
	"strings"
)

// CsrfGate returns the gate validating tokens on state-changing requests.
// Safe methods and excluded paths pass without touching the token. Under
// HTML negotiation a mismatch raises a validation Failure (422, field-keyed)
// so form rendering can show a targeted message; under JSON negotiation the
// gate short-circuits with a terminal 419.
func (e *Engine) CsrfGate() Gate {
	return &csrfGate{engine: e}
}

type csrfGate struct {
	engine *Engine
}

// Name describes the name operation and its observable behavior.
//
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *csrfGate) Name() string {
	return "csrf"
}

var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Check describes the check operation and its observable behavior.
//
// Check may return an error when input validation, dependency calls, or security checks fail.
// Check does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *csrfGate) Check(ctx context.Context, req *Request) (Decision, error) {
	cfg := g.engine.cfg.CSRF
	if !cfg.Enabled {
		return Allow(), nil
	}
	if safeMethods[req.Method] {
		return Allow(), nil
	}
	if pathExcluded(cfg.ExcludedPaths, req.Path) {
		return Allow(), nil
	}

	token := g.presentedToken(req)
	if req.Session != nil && req.Session.VerifyCSRFToken(token) {
		return Allow(), nil
	}

	// A missing token is the same failure as a mismatched one; telling them
	// apart would leak whether a session secret exists.
	g.engine.metrics.Inc(MetricCsrfRejected)

	if req.WantsJSON() {
		g.engine.audit(ctx, req, AuditEvent{
			EventType: "csrf.rejected",
			Status:    419,
		})
		return Deny(&Response{
			Status: 419,
			Envelope: &Envelope{
				Success: false,
				Message: "CSRF token mismatch.",
				Code:    419,
			},
		}), nil
	}

	g.engine.audit(ctx, req, AuditEvent{
		EventType: "csrf.rejected",
		Status:    http.StatusUnprocessableEntity,
	})
	return Decision{}, ValidationFailure("The page expired, please try again.", map[string][]string{
		cfg.FormField: {"The form session has expired. Refresh and try again."},
	}).WithStatus(http.StatusUnprocessableEntity).WithCause(ErrCsrfMismatch)
}

func (g *csrfGate) presentedToken(req *Request) string {
	cfg := g.engine.cfg.CSRF
	if req.FormToken != "" {
		return req.FormToken
	}
	if req.Header == nil {
		return ""
	}
	if token := req.Header.Get(cfg.PrimaryHeader); token != "" {
		return token
	}
	return req.Header.Get(cfg.SecondaryHeader)
}

// pathExcluded matches exact patterns or trailing-wildcard prefixes such as
// "/api/webhook/*".
func pathExcluded(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if pattern == path {
			return true
		}
		if strings.HasSuffix(pattern, "*") &&
			strings.HasPrefix(path, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}
