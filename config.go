package goGate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines a public type used by goGate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	RateLimit RateLimitConfig
	CSRF      CSRFConfig
	Auth      AuthConfig
	Roles     RolesConfig
	Bearer    BearerConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// Backend names accepted by PolicyConfig.Backend.
const (
	// BackendFile is an exported constant or variable used by the gating engine.
	BackendFile = "file"
	// BackendMemory is an exported constant or variable used by the gating engine.
	BackendMemory = "memory"
	// BackendRedis is an exported constant or variable used by the gating engine.
	BackendRedis = "redis"
	// BackendSession is an exported constant or variable used by the gating engine.
	BackendSession = "session"
)

// PolicyConfig defines a public type used by goGate APIs.
//
// PolicyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PolicyConfig struct {
	MaxAttempts  int
	DecaySeconds int
	KeyPrefix    string
	Backend      string
}

// RateLimitConfig defines a public type used by goGate APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Policies map[string]PolicyConfig

	// FileDir is the directory for the file backend. Empty selects a
	// directory under os.TempDir.
	FileDir string
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig defines a public type used by goGate APIs.
//
// CSRFConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CSRFConfig struct {
	Enabled       bool
	TokenLifetime time.Duration

	// ExcludedPaths lists patterns that bypass the check: exact paths or
	// trailing-wildcard prefixes such as "/api/webhook/*".
	ExcludedPaths []string

	FormField       string
	PrimaryHeader   string
	SecondaryHeader string
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig defines a public type used by goGate APIs.
//
// AuthConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthConfig struct {
	LoginURL     string
	HomeURL      string
	AdminHomeURL string
}

/*
====================================
ROLES CONFIG
====================================
*/

// RolesConfig defines a public type used by goGate APIs.
//
// RolesConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RolesConfig struct {
	// Presets maps preset names (staff, manager, admin) to role names so a
	// deployment can remap its hierarchy without touching call sites.
	Presets map[string]string

	// DefaultPreset is the preset used when a route requires "a role" with
	// no explicit choice.
	DefaultPreset string
}

/*
====================================
BEARER CONFIG
====================================
*/

// BearerConfig defines a public type used by goGate APIs.
//
// BearerConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BearerConfig struct {
	Enabled    bool
	HMACSecret []byte
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goGate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goGate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by goGate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	// DebugMode exposes exception types, file paths, and stack frames in
	// translated responses. Never enable in production.
	DebugMode bool
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the configuration New starts from. Callers mutate
// the copy and hand it back through Builder.WithConfig.
func DefaultConfig() Config {
	return cloneConfig(defaultConfig())
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Policies: map[string]PolicyConfig{
				"api":   {MaxAttempts: 60, DecaySeconds: 60, KeyPrefix: "rate_limit:api:", Backend: BackendFile},
				"login": {MaxAttempts: 5, DecaySeconds: 300, KeyPrefix: "rate_limit:login:", Backend: BackendFile},
				"form":  {MaxAttempts: 10, DecaySeconds: 60, KeyPrefix: "rate_limit:form:", Backend: BackendSession},
			},
		},
		CSRF: CSRFConfig{
			Enabled:         true,
			TokenLifetime:   2 * time.Hour,
			FormField:       "_token",
			PrimaryHeader:   "X-CSRF-TOKEN",
			SecondaryHeader: "X-XSRF-TOKEN",
		},
		Auth: AuthConfig{
			LoginURL:     "/login",
			HomeURL:      "/",
			AdminHomeURL: "/admin",
		},
		Roles: RolesConfig{
			Presets: map[string]string{
				"staff":   "staff",
				"manager": "manager",
				"admin":   "admin",
			},
			DefaultPreset: "staff",
		},
		Bearer: BearerConfig{
			Enabled: false,
			Leeway:  30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Security: SecurityConfig{
			DebugMode: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg

	out.RateLimit.Policies = make(map[string]PolicyConfig, len(cfg.RateLimit.Policies))
	for name, p := range cfg.RateLimit.Policies {
		out.RateLimit.Policies[name] = p
	}

	out.CSRF.ExcludedPaths = append([]string(nil), cfg.CSRF.ExcludedPaths...)

	out.Roles.Presets = make(map[string]string, len(cfg.Roles.Presets))
	for name, r := range cfg.Roles.Presets {
		out.Roles.Presets[name] = r
	}

	out.Bearer.HMACSecret = cloneBytes(cfg.Bearer.HMACSecret)

	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Rate limit
	if len(c.RateLimit.Policies) == 0 {
		return errors.New("RateLimit requires at least one policy")
	}
	for name, p := range c.RateLimit.Policies {
		if name == "" {
			return errors.New("RateLimit policy name must not be empty")
		}
		if p.MaxAttempts < 0 {
			return fmt.Errorf("RateLimit policy %q MaxAttempts must be >= 0", name)
		}
		if p.DecaySeconds <= 0 {
			return fmt.Errorf("RateLimit policy %q DecaySeconds must be > 0", name)
		}
		switch p.Backend {
		case BackendFile, BackendMemory, BackendRedis, BackendSession:
		default:
			return fmt.Errorf("RateLimit policy %q has unsupported backend %q", name, p.Backend)
		}
	}

	// CSRF
	if c.CSRF.Enabled {
		if c.CSRF.TokenLifetime <= 0 {
			return errors.New("CSRF TokenLifetime must be > 0")
		}
		if c.CSRF.FormField == "" {
			return errors.New("CSRF FormField must not be empty")
		}
		if c.CSRF.PrimaryHeader == "" {
			return errors.New("CSRF PrimaryHeader must not be empty")
		}
		for _, pattern := range c.CSRF.ExcludedPaths {
			if pattern == "" {
				return errors.New("CSRF excluded path must not be empty")
			}
			if !strings.HasPrefix(pattern, "/") {
				return fmt.Errorf("CSRF excluded path %q must start with /", pattern)
			}
		}
	}

	// Auth
	if c.Auth.LoginURL == "" {
		return errors.New("Auth LoginURL must not be empty")
	}
	if c.Auth.HomeURL == "" {
		return errors.New("Auth HomeURL must not be empty")
	}
	if c.Auth.AdminHomeURL == "" {
		return errors.New("Auth AdminHomeURL must not be empty")
	}

	// Roles
	if c.Roles.DefaultPreset == "" {
		return errors.New("Roles DefaultPreset must not be empty")
	}
	if _, ok := c.Roles.Presets[c.Roles.DefaultPreset]; !ok {
		return fmt.Errorf("Roles DefaultPreset %q has no preset entry", c.Roles.DefaultPreset)
	}

	// Bearer
	if c.Bearer.Enabled && len(c.Bearer.HMACSecret) == 0 {
		return errors.New("Bearer requires HMACSecret when enabled")
	}
	if c.Bearer.Leeway < 0 {
		return errors.New("Bearer Leeway must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
