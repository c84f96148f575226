package goGate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestClientKey(t *testing.T) {
	key := ClientKey("rate_limit:api:", "203.0.113.10", "/api/products")

	if !strings.HasPrefix(key, "rate_limit:api:") {
		t.Fatalf("key lost its prefix: %q", key)
	}
	if strings.Contains(key, "203.0.113.10") || strings.Contains(key, "/api/products") {
		t.Fatal("key must not embed the raw identity or path")
	}

	if key != ClientKey("rate_limit:api:", "203.0.113.10", "/api/products") {
		t.Fatal("key derivation must be deterministic")
	}
	if key == ClientKey("rate_limit:api:", "203.0.113.11", "/api/products") {
		t.Fatal("different clients must not share a key")
	}
	if key == ClientKey("rate_limit:api:", "203.0.113.10", "/api/orders") {
		t.Fatal("different routes must not share a key")
	}
}

func TestEngineAdmit(t *testing.T) {
	engine, clock := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["api"] = PolicyConfig{
			MaxAttempts: 3, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendMemory,
		}
	})
	ctx := context.Background()
	req := jsonRequest("GET", "/api/products")

	for i := 1; i <= 3; i++ {
		res, err := engine.Admit(ctx, req, "api")
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !res.Allowed || res.Remaining != 3-i || res.Limit != 3 {
			t.Fatalf("admit %d: %+v", i, res)
		}
	}

	res, err := engine.Admit(ctx, req, "api")
	if err != nil {
		t.Fatalf("admit over limit: %v", err)
	}
	if res.Allowed {
		t.Fatal("over-budget request admitted")
	}

	clock.Advance(61 * time.Second)
	if res, _ := engine.Admit(ctx, req, "api"); !res.Allowed {
		t.Fatal("fresh window should admit")
	}
}

func TestAdmitUnknownPolicy(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	_, err := engine.Admit(context.Background(), jsonRequest("GET", "/x"), "nope")
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("unknown policy error = %v", err)
	}
}

func TestRateLimitGateAllowHeaders(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["api"] = PolicyConfig{
			MaxAttempts: 10, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendMemory,
		}
	})
	gate := engine.RateLimitGate("api")

	decision, err := gate.Check(context.Background(), jsonRequest("GET", "/api/products"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !decision.Allowed() {
		t.Fatal("first request must pass")
	}

	h := decision.PassHeaders()
	if h.Get("X-RateLimit-Limit") != "10" {
		t.Fatalf("limit header = %q", h.Get("X-RateLimit-Limit"))
	}
	if h.Get("X-RateLimit-Remaining") != "9" {
		t.Fatalf("remaining header = %q", h.Get("X-RateLimit-Remaining"))
	}
	if h.Get("X-RateLimit-Reset") == "" {
		t.Fatal("reset header missing")
	}
}

func TestRateLimitGateDeny(t *testing.T) {
	engine, clock := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["api"] = PolicyConfig{
			MaxAttempts: 1, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendMemory,
		}
	})
	gate := engine.RateLimitGate("api")
	ctx := context.Background()

	if d, err := gate.Check(ctx, jsonRequest("POST", "/api/orders")); err != nil || !d.Allowed() {
		t.Fatalf("first request: decision=%+v err=%v", d, err)
	}

	decision, err := gate.Check(ctx, jsonRequest("POST", "/api/orders"))
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if decision.Allowed() {
		t.Fatal("second request must be denied")
	}

	resp := decision.Response()
	if resp.Status != 429 {
		t.Fatalf("status = %d, want 429", resp.Status)
	}
	if resp.Envelope == nil || resp.Envelope.Success || resp.Envelope.Code != 429 {
		t.Fatalf("envelope = %+v", resp.Envelope)
	}
	if resp.Headers.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining header = %q", resp.Headers.Get("X-RateLimit-Remaining"))
	}
	if resp.Headers.Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q at %d", resp.Headers.Get("Retry-After"), clock.Now().Unix())
	}

	if engine.Metrics().Value(MetricRateLimitHit) != 1 {
		t.Fatalf("rate limit hit metric = %d", engine.Metrics().Value(MetricRateLimitHit))
	}
}

func TestRateLimitGateDenyHTML(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["form"] = PolicyConfig{
			MaxAttempts: 1, DecaySeconds: 30, KeyPrefix: "rate_limit:form:", Backend: BackendMemory,
		}
	})
	gate := engine.RateLimitGate("form")
	ctx := context.Background()

	if _, err := gate.Check(ctx, htmlRequest("POST", "/contact")); err != nil {
		t.Fatal(err)
	}
	decision, err := gate.Check(ctx, htmlRequest("POST", "/contact"))
	if err != nil {
		t.Fatal(err)
	}

	resp := decision.Response()
	if resp.Envelope != nil {
		t.Fatal("HTML clients must not receive a JSON envelope")
	}
	if !strings.Contains(resp.Text, "Retry after 30 seconds") {
		t.Fatalf("text body = %q", resp.Text)
	}
}

func TestClearRateLimit(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["login"] = PolicyConfig{
			MaxAttempts: 1, DecaySeconds: 300, KeyPrefix: "rate_limit:login:", Backend: BackendMemory,
		}
	})
	ctx := context.Background()
	req := jsonRequest("POST", "/login")

	if _, err := engine.Admit(ctx, req, "login"); err != nil {
		t.Fatal(err)
	}
	if res, _ := engine.Admit(ctx, req, "login"); res.Allowed {
		t.Fatal("expected exhaustion")
	}

	if err := engine.ClearRateLimit(ctx, "login", req.ClientIP, req.Path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if res, _ := engine.Admit(ctx, req, "login"); !res.Allowed {
		t.Fatal("cleared window must admit again")
	}
	if engine.Metrics().Value(MetricRateLimitCleared) != 1 {
		t.Fatal("clear metric not counted")
	}
}

func TestClearRateLimitSessionBackendIsNoOp(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["form"] = PolicyConfig{
			MaxAttempts: 2, DecaySeconds: 60, KeyPrefix: "rate_limit:form:", Backend: BackendSession,
		}
	})

	if err := engine.ClearRateLimit(context.Background(), "form", "203.0.113.10", "/contact"); err != nil {
		t.Fatalf("session-backed clear must be a silent no-op: %v", err)
	}
}

func TestClearRateLimitStoreFailureNotCounted(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := defaultConfig()
	for name, p := range cfg.RateLimit.Policies {
		p.Backend = BackendMemory
		cfg.RateLimit.Policies[name] = p
	}
	cfg.RateLimit.Policies["api"] = PolicyConfig{
		MaxAttempts: 60, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendRedis,
	}
	cfg.Metrics.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(&stubUsers{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	mr.Close()

	if err := engine.ClearRateLimit(context.Background(), "api", "203.0.113.10", "/api/products"); err == nil {
		t.Fatal("clear against a dead store must fail")
	}
	if got := engine.Metrics().Value(MetricRateLimitCleared); got != 0 {
		t.Fatalf("failed clear counted as cleared: metric = %d", got)
	}
}

func TestSessionPolicyScopesPerSession(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["form"] = PolicyConfig{
			MaxAttempts: 1, DecaySeconds: 60, KeyPrefix: "rate_limit:form:", Backend: BackendSession,
		}
	})
	ctx := context.Background()

	reqA := htmlRequest("POST", "/contact")
	reqA.Session = session.New()
	reqB := htmlRequest("POST", "/contact")
	reqB.Session = session.New()

	if res, _ := engine.Admit(ctx, reqA, "form"); !res.Allowed {
		t.Fatal("first session should admit")
	}
	if res, _ := engine.Admit(ctx, reqA, "form"); res.Allowed {
		t.Fatal("first session should be exhausted")
	}
	if res, _ := engine.Admit(ctx, reqB, "form"); !res.Allowed {
		t.Fatal("second session must not share the first session's budget")
	}
}

func TestSessionPolicyGuestFallback(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(c *Config) {
		c.RateLimit.Policies["form"] = PolicyConfig{
			MaxAttempts: 1, DecaySeconds: 60, KeyPrefix: "rate_limit:form:", Backend: BackendSession,
		}
	})
	ctx := context.Background()

	// No session bound: throttling still applies through the shared memory
	// store keyed by client+route.
	req := htmlRequest("POST", "/contact")
	if res, _ := engine.Admit(ctx, req, "form"); !res.Allowed {
		t.Fatal("guest request should admit")
	}
	if res, _ := engine.Admit(ctx, req, "form"); res.Allowed {
		t.Fatal("guest fallback must still throttle")
	}
}
