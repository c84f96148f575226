package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type seededUsers struct{}

func (seededUsers) GetUserByID(_ context.Context, id string) (goGate.UserRecord, error) {
	return goGate.UserRecord{ID: id, Role: "staff", Active: true}, nil
}

func main() {
	var (
		clients     = flag.Int("clients", 100000, "number of distinct client identities to drive")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (admit + pipeline)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goGate.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.RateLimit.Policies["api"] = goGate.PolicyConfig{
		MaxAttempts:  1_000_000,
		DecaySeconds: 3600,
		KeyPrefix:    "rate_limit:api:",
		Backend:      goGate.BackendRedis,
	}

	engine, err := goGate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(seededUsers{}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ips := make([]string, *clients)
	for i := range ips {
		ips[i] = fmt.Sprintf("10.%d.%d.%d", i>>16&0xFF, i>>8&0xFF, i&0xFF)
	}

	admitStats := runAdmitPhase(ctx, engine, ips, *ops, *concurrency)
	pipelineStats := runPipelinePhase(ctx, engine, ips, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("admit", admitStats)
	printStats("pipeline", pipelineStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("allowed=%d rate_limited=%d\n",
		snap.Counters[goGate.MetricRequestAllowed],
		snap.Counters[goGate.MetricRateLimitHit],
	)
}

// runAdmitPhase hammers the redis-backed window store directly, one Admit
// per operation across random client identities.
func runAdmitPhase(ctx context.Context, engine *goGate.Engine, ips []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				req := &goGate.Request{
					Method:   "GET",
					Path:     "/api/products",
					ClientIP: ips[r.Intn(len(ips))],
				}
				t0 := time.Now()
				res, err := engine.Admit(ctx, req, "api")
				d := time.Since(t0)
				if err != nil || !res.Allowed {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runPipelinePhase drives the full admin chain: rate limit, auth, role,
// CSRF-exempt GETs, using pre-authenticated sessions.
func runPipelinePhase(ctx context.Context, engine *goGate.Engine, ips []string, ops, concurrency int) phaseStats {
	sessions := make([]*session.Session, 1024)
	for i := range sessions {
		sess := session.New()
		sess.Authenticate(fmt.Sprintf("u-%d", i), "staff")
		sessions[i] = sess
	}

	pipeline := engine.AdminChain("api", engine.RequireStaff())

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				h := make(http.Header)
				h.Set("Accept", "application/json")
				req := &goGate.Request{
					Method:   "GET",
					Path:     "/admin/orders",
					ClientIP: ips[r.Intn(len(ips))],
					Header:   h,
					Session:  sessions[r.Intn(len(sessions))],
				}
				t0 := time.Now()
				decision, err := pipeline.Run(ctx, req)
				d := time.Since(t0)
				if err != nil || !decision.Allowed() {
					atomic.AddInt64(&failures, 1)
				} else {
					engine.Metrics().Inc(goGate.MetricRequestAllowed)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
