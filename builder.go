package gatekeeper

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactkit/gatekeeper/contactcache"
	"github.com/contactkit/gatekeeper/internal/audit"
	"github.com/contactkit/gatekeeper/internal/rate"
	"github.com/contactkit/gatekeeper/password"
	"github.com/contactkit/gatekeeper/token"
)

// Dependencies carries the collaborators an Engine is built around.
type Dependencies struct {
	// Users is the identity backend. Required.
	Users UserProvider

	// Contacts is the contact store. Optional; contact operations return
	// ErrNotConfigured without it.
	Contacts ContactStore

	// Redis backs the cache-aside layer and the rate limiter. Optional;
	// without it caches run permanently degraded and throttling is off.
	Redis redis.UniversalClient

	// AuditSink receives audit events when auditing is enabled.
	AuditSink AuditSink

	// Policy overrides DefaultPolicy when non-nil.
	Policy Policy

	// Clock overrides time.Now for token validation. Test hook.
	Clock func() time.Time
}

// Engine is the authentication and contact-cache core. Safe for
// concurrent use after New returns.
type Engine struct {
	cfg           Config
	tokens        *token.Engine
	hasher        *password.Hasher
	users         UserProvider
	contacts      ContactStore
	contactCache  *contactcache.Cache
	identityCache *contactcache.Cache
	limiter       *rate.Limiter
	auditor       *audit.Dispatcher
	metrics       *Metrics
	policy        Policy
}

// New validates cfg, wires the subsystems, and starts the audit
// dispatcher.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("gatekeeper: %w", err)
	}
	if deps.Users == nil {
		return nil, errors.New("gatekeeper: Users provider is required")
	}

	tokens, err := token.NewEngine(token.Config{
		Secret:          cfg.Token.Secret,
		Issuer:          cfg.Token.Issuer,
		AccessTTL:       cfg.Token.AccessTTL,
		RefreshTTL:      cfg.Token.RefreshTTL,
		EmailConfirmTTL: cfg.Token.EmailConfirmTTL,
		Leeway:          cfg.Token.Leeway,
		Now:             deps.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("gatekeeper: %w", err)
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("gatekeeper: %w", err)
	}

	policy := deps.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Engine{
		cfg:      cfg,
		tokens:   tokens,
		hasher:   hasher,
		users:    deps.Users,
		contacts: deps.Contacts,
		contactCache: contactcache.New(deps.Redis, contactcache.Config{
			Prefix: cfg.Cache.ContactPrefix,
			TTL:    cfg.Cache.ContactTTL,
		}),
		identityCache: contactcache.New(deps.Redis, contactcache.Config{
			Prefix: cfg.Cache.IdentityPrefix,
			TTL:    cfg.Cache.IdentityTTL,
		}),
		limiter: rate.New(deps.Redis, rate.Config{
			EnableIPThrottle:      cfg.RateLimit.EnableIPThrottle,
			EnableRefreshThrottle: cfg.RateLimit.EnableRefreshThrottle,
			MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
			LoginCooldown:         cfg.RateLimit.LoginCooldown,
			MaxRefreshAttempts:    cfg.RateLimit.MaxRefreshAttempts,
			RefreshCooldown:       cfg.RateLimit.RefreshCooldown,
		}),
		auditor: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, deps.AuditSink),
		metrics: NewMetrics(cfg.Metrics),
		policy:  policy,
	}, nil
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	e.auditor.Close()
}

// Metrics exposes the engine's metric registry.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot copies the current metric state for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}
