package middleware

import (
	"net"
	"net/http"
	"strings"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/session"
)

// SessionResolver locates the caller's session for one request, typically
// from a cookie against the engine's session manager. Returning nil means
// the request is anonymous.
type SessionResolver func(r *http.Request) *session.Session

// Adapter binds an engine and a session resolver to net/http.
type Adapter struct {
	engine  *goGate.Engine
	resolve SessionResolver
}

// NewAdapter describes the newadapter operation and its observable behavior.
//
// NewAdapter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAdapter(engine *goGate.Engine, resolve SessionResolver) *Adapter {
	return &Adapter{
		engine:  engine,
		resolve: resolve,
	}
}

// Pipeline wraps next with the given gate chain. Denials and failures are
// written immediately; on pass, accumulated gate headers are attached and
// the gate-visible request travels down via context.
func (a *Adapter) Pipeline(p *goGate.Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := a.buildRequest(r)

			defer func() {
				if rec := recover(); rec != nil {
					a.engine.Metrics().Inc(goGate.MetricPanicRecovered)
					failure := goGate.NewFailure(goGate.KindInternal, "panic in pipeline")
					WriteResponse(w, a.engine.Translator().Translate(req, failure))
				}
			}()

			decision, err := p.Run(r.Context(), req)
			if err != nil {
				WriteResponse(w, a.engine.Translator().Translate(req, err))
				return
			}

			if !decision.Allowed() {
				WriteResponse(w, decision.Response())
				return
			}

			for key, values := range decision.PassHeaders() {
				for _, v := range values {
					w.Header().Set(key, v)
				}
			}
			a.engine.Metrics().Inc(goGate.MetricRequestAllowed)

			ctx := goGate.ContextWithRequest(r.Context(), req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit describes the ratelimit operation and its observable behavior.
//
// RateLimit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RateLimit(policy string) func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.RateLimitGate(policy)))
}

// RequireAuth describes the requireauth operation and its observable behavior.
//
// RequireAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RequireAuth() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.AuthGate()))
}

// RequireGuest describes the requireguest operation and its observable behavior.
//
// RequireGuest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RequireGuest() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.GuestGate()))
}

// RequireStaff describes the requirestaff operation and its observable behavior.
//
// RequireStaff does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RequireStaff() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.AuthGate(), a.engine.RequireStaff()))
}

// RequireManager describes the requiremanager operation and its observable behavior.
//
// RequireManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RequireManager() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.AuthGate(), a.engine.RequireManager()))
}

// RequireAdmin describes the requireadmin operation and its observable behavior.
//
// RequireAdmin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) RequireAdmin() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.AuthGate(), a.engine.RequireAdmin()))
}

// CSRF describes the csrf operation and its observable behavior.
//
// CSRF does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Adapter) CSRF() func(http.Handler) http.Handler {
	return a.Pipeline(goGate.NewPipeline(a.engine.CsrfGate()))
}

// ProtectAdmin composes the standard admin ordering for the given rate
// policy and role gate: RateLimit -> Auth -> Role -> CSRF.
func (a *Adapter) ProtectAdmin(policy string, required goGate.Gate) func(http.Handler) http.Handler {
	return a.Pipeline(a.engine.AdminChain(policy, required))
}

// buildRequest projects *http.Request into the gate-visible view. The form
// token is only parsed for mutating form submissions so safe requests never
// touch the body.
func (a *Adapter) buildRequest(r *http.Request) *goGate.Request {
	req := &goGate.Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		ClientIP: clientIP(r),
		Header:   r.Header,
	}

	if a.resolve != nil {
		req.Session = a.resolve(r)
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		ct := r.Header.Get("Content-Type")
		if strings.Contains(ct, "application/x-www-form-urlencoded") ||
			strings.Contains(ct, "multipart/form-data") {
			req.FormToken = r.PostFormValue(a.engine.Config().CSRF.FormField)
		}
	}

	return req
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
