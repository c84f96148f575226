package goGate

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"
)

/*
====================================
SHARED TEST FIXTURES
====================================
*/

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubUsers struct {
	mu    sync.Mutex
	users map[string]UserRecord
	err   error
}

func (s *stubUsers) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return UserRecord{}, s.err
	}
	rec, ok := s.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return rec, nil
}

// newTestEngine builds an engine with all rate policies on the memory
// backend, metrics on, and an injected clock so window tests never sleep.
func newTestEngine(t *testing.T, users UserProvider, mutate func(*Config)) (*Engine, *testClock) {
	t.Helper()

	clock := newTestClock()

	cfg := defaultConfig()
	for name, p := range cfg.RateLimit.Policies {
		p.Backend = BackendMemory
		cfg.RateLimit.Policies[name] = p
	}
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	if users == nil {
		users = &stubUsers{}
	}

	engine, err := New().
		WithConfig(cfg).
		WithUserProvider(users).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, clock
}

func jsonRequest(method, path string) *Request {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	return &Request{Method: method, Path: path, ClientIP: "203.0.113.10", Header: h}
}

func htmlRequest(method, path string) *Request {
	h := make(http.Header)
	h.Set("Accept", "text/html")
	return &Request{Method: method, Path: path, ClientIP: "203.0.113.10", Header: h}
}

/*
====================================
BUILDER / ENGINE
====================================
*/

func TestBuildRequiresUserProvider(t *testing.T) {
	_, err := New().Build()
	if err != ErrUserProviderRequired {
		t.Fatalf("Build without provider = %v, want ErrUserProviderRequired", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithUserProvider(&stubUsers{})
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build on the same builder must fail")
	}
}

func TestBuildRedisPolicyWithoutClient(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimit.Policies["api"] = PolicyConfig{
		MaxAttempts: 10, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendRedis,
	}

	_, err := New().WithConfig(cfg).WithUserProvider(&stubUsers{}).Build()
	if err == nil {
		t.Fatal("redis policy without a client must fail at build")
	}
}

func TestEngineConfigIsACopy(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	got := engine.Config()
	got.Auth.LoginURL = "/mutated"
	got.RateLimit.Policies["api"] = PolicyConfig{}

	again := engine.Config()
	if again.Auth.LoginURL != "/login" {
		t.Fatal("caller mutation leaked into the engine config")
	}
	if again.RateLimit.Policies["api"].MaxAttempts != 60 {
		t.Fatal("caller map mutation leaked into the engine config")
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		want        bool
	}{
		{name: "accept json", accept: "application/json", want: true},
		{name: "accept list", accept: "text/html, application/json;q=0.9", want: true},
		{name: "content type json", contentType: "application/json; charset=utf-8", want: true},
		{name: "html only", accept: "text/html", want: false},
		{name: "no headers", want: false},
	}

	for _, tc := range tests {
		h := make(http.Header)
		if tc.accept != "" {
			h.Set("Accept", tc.accept)
		}
		if tc.contentType != "" {
			h.Set("Content-Type", tc.contentType)
		}
		req := &Request{Header: h}
		if got := req.WantsJSON(); got != tc.want {
			t.Errorf("%s: WantsJSON = %v, want %v", tc.name, got, tc.want)
		}
	}

	var nilReq *Request
	if nilReq.WantsJSON() {
		t.Error("nil request must not want JSON")
	}
}

func TestMetricsCounting(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricRateLimitHit)
	m.Inc(MetricRateLimitHit)
	if m.Value(MetricRateLimitHit) != 2 {
		t.Fatalf("counter = %d, want 2", m.Value(MetricRateLimitHit))
	}

	snap := m.Snapshot()
	if snap.Counters[MetricRateLimitHit] != 2 {
		t.Fatalf("snapshot = %d, want 2", snap.Counters[MetricRateLimitHit])
	}

	disabled := NewMetrics(MetricsConfig{})
	disabled.Inc(MetricRateLimitHit)
	if disabled.Value(MetricRateLimitHit) != 0 {
		t.Fatal("disabled metrics must not count")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricRateLimitHit)
	if nilMetrics.Value(MetricRateLimitHit) != 0 {
		t.Fatal("nil metrics must be inert")
	}
}
