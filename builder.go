package goGate

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGate/internal/window"
	"github.com/MrEthical07/goGate/session"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goGate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users    UserProvider
	sessions session.Manager

	auditSink AuditSink
	registry  StatusRegistry
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.users = up
	return b
}

// WithSessionManager describes the withsessionmanager operation and its observable behavior.
//
// WithSessionManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionManager(m session.Manager) *Builder {
	b.sessions = m
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithStatusRegistry describes the withstatusregistry operation and its observable behavior.
//
// WithStatusRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStatusRegistry(registry StatusRegistry) *Builder {
	b.registry = registry
	return b
}

// WithClock overrides the engine's time source. Tests use it to step
// windows past their reset instant without sleeping.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithDebugMode describes the withdebugmode operation and its observable behavior.
//
// WithDebugMode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDebugMode(enabled bool) *Builder {
	b.config.Security.DebugMode = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, ErrUserProviderRequired
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	stores, err := b.buildStores(cfg, now)
	if err != nil {
		return nil, err
	}

	sessions := b.sessions
	if sessions == nil {
		sessions = session.NewMemoryManager(0)
	}

	metrics := NewMetrics(cfg.Metrics)
	dispatcher := newAuditDispatcher(cfg.Audit, b.auditSink, metrics)

	translator := NewTranslator(b.registry, cfg.Security.DebugMode, cfg.Auth.HomeURL)
	translator.dispatcher = dispatcher
	translator.metrics = metrics

	engine := &Engine{
		cfg: cfg,
		limiter: &limiter{
			policies: cfg.RateLimit.Policies,
			stores:   stores,
			now:      now,
		},
		users:      b.users,
		sessions:   sessions,
		bearer:     newBearerVerifier(cfg.Bearer),
		metrics:    metrics,
		translator: translator,
		dispatcher: dispatcher,
		now:        now,
	}

	b.built = true
	return engine, nil
}

// buildStores constructs the shared backends the policy table references.
// The memory store always exists (it is also the fallback for session
// policies on guest traffic); file and redis are built on demand.
func (b *Builder) buildStores(cfg Config, now func() time.Time) (map[string]window.Store, error) {
	stores := map[string]window.Store{
		BackendMemory: window.NewMemoryStore(now),
	}

	needFile := false
	needRedis := false
	for _, p := range cfg.RateLimit.Policies {
		switch p.Backend {
		case BackendFile:
			needFile = true
		case BackendRedis:
			needRedis = true
		}
	}

	if needFile {
		fileStore, err := window.NewFileStore(cfg.RateLimit.FileDir, now)
		if err != nil {
			return nil, err
		}
		stores[BackendFile] = fileStore
	}

	if needRedis {
		if b.redis == nil {
			return nil, errors.New("redis-backed policy requires a redis client")
		}
		stores[BackendRedis] = window.NewRedisStore(b.redis, now)
	}

	return stores, nil
}
