package goGate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/goGate/internal/window"
	"github.com/MrEthical07/goGate/session"
)

// RateLimitResult defines a public type used by goGate APIs.
//
// RateLimitResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// ClientKey derives the opaque storage key for one client+route pair. The
// digest is never reversed; it only namespaces window state.
func ClientKey(prefix, clientIP, routePath string) string {
	sum := sha256.Sum256([]byte(clientIP + "|" + routePath))
	return prefix + hex.EncodeToString(sum[:])
}

// limiter resolves named policies to their backends. Stores are shared and
// concurrency-safe except the session backend, which is bound per request.
type limiter struct {
	policies map[string]PolicyConfig
	stores   map[string]window.Store
	now      func() time.Time
}

func (l *limiter) policy(name string) (PolicyConfig, error) {
	p, ok := l.policies[name]
	if !ok {
		return PolicyConfig{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return p, nil
}

func (l *limiter) storeFor(p PolicyConfig, sess *session.Session) (window.Store, error) {
	if p.Backend == BackendSession {
		if sess == nil {
			// Guest traffic on a session policy falls back to the shared
			// memory store so throttling still applies.
			return l.stores[BackendMemory], nil
		}
		return window.ForSession(sess, l.now), nil
	}

	store, ok := l.stores[p.Backend]
	if !ok || store == nil {
		return nil, fmt.Errorf("%w: backend %q not configured", ErrStoreUnavailable, p.Backend)
	}
	return store, nil
}

// Admit applies the named policy's fixed-window counter to one client+route
// pair. Rejections do not advance the counter.
func (e *Engine) Admit(ctx context.Context, req *Request, policyName string) (RateLimitResult, error) {
	if e == nil || e.limiter == nil {
		return RateLimitResult{}, ErrEngineNotReady
	}

	p, err := e.limiter.policy(policyName)
	if err != nil {
		return RateLimitResult{}, err
	}

	store, err := e.limiter.storeFor(p, req.Session)
	if err != nil {
		return RateLimitResult{}, err
	}

	key := ClientKey(p.KeyPrefix, req.ClientIP, req.Path)
	res, err := store.Admit(ctx, key, p.MaxAttempts, time.Duration(p.DecaySeconds)*time.Second)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return RateLimitResult{
		Allowed:   res.Allowed,
		Limit:     p.MaxAttempts,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}, nil
}

// ClearRateLimit removes one client+route window immediately, the
// administrative unblock operation. Session-backed policies cannot be
// cleared from outside the session and return nil without effect.
func (e *Engine) ClearRateLimit(ctx context.Context, policyName, identity, routePath string) error {
	if e == nil || e.limiter == nil {
		return ErrEngineNotReady
	}

	p, err := e.limiter.policy(policyName)
	if err != nil {
		return err
	}
	if p.Backend == BackendSession {
		return nil
	}

	store, err := e.limiter.storeFor(p, nil)
	if err != nil {
		return err
	}

	if err := store.Clear(ctx, ClientKey(p.KeyPrefix, identity, routePath)); err != nil {
		return err
	}
	e.metrics.Inc(MetricRateLimitCleared)
	return nil
}

// RateLimitGate returns the pipeline gate enforcing the named policy. On
// admission it passes with X-RateLimit-* headers; on rejection it returns a
// terminal 429 with Retry-After. Store breakage raises a Failure for the
// translator rather than failing open.
func (e *Engine) RateLimitGate(policyName string) Gate {
	return &rateLimitGate{engine: e, policyName: policyName}
}

type rateLimitGate struct {
	engine     *Engine
	policyName string
}

// Name describes the name operation and its observable behavior.
//
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *rateLimitGate) Name() string {
	return "rate_limit:" + g.policyName
}

// Check describes the check operation and its observable behavior.
//
// Check may return an error when input validation, dependency calls, or security checks fail.
// Check does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *rateLimitGate) Check(ctx context.Context, req *Request) (Decision, error) {
	res, err := g.engine.Admit(ctx, req, g.policyName)
	if err != nil {
		return Decision{}, WrapFailure(KindInternal, "rate limit store failure", err)
	}

	if !res.Allowed {
		g.engine.metrics.Inc(MetricRateLimitHit)
		g.engine.audit(ctx, req, AuditEvent{
			EventType: "rate_limit.rejected",
			Status:    http.StatusTooManyRequests,
			Metadata:  map[string]string{"policy": g.policyName},
		})
		return Deny(g.rejection(req, res)), nil
	}

	headers := make(http.Header)
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	return AllowWithHeaders(headers), nil
}

func (g *rateLimitGate) rejection(req *Request, res RateLimitResult) *Response {
	retryAfter := res.ResetAt.Unix() - g.engine.now().Unix()
	if retryAfter < 0 {
		retryAfter = 0
	}

	resp := &Response{Status: http.StatusTooManyRequests}
	resp.SetHeader("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	resp.SetHeader("X-RateLimit-Remaining", "0")
	resp.SetHeader("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	resp.SetHeader("Retry-After", strconv.FormatInt(retryAfter, 10))

	if req.WantsJSON() {
		resp.Envelope = &Envelope{
			Success: false,
			Message: "Too many requests. Please slow down.",
			Code:    http.StatusTooManyRequests,
		}
	} else {
		resp.Text = fmt.Sprintf("Too many requests. Retry after %d seconds.", retryAfter)
	}
	return resp
}
