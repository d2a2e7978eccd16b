package gatekeeper

import (
	"errors"
	"time"
)

// Config assembles the per-subsystem settings for an Engine. Configs are
// built once, validated by New, and treated as immutable afterward.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig holds the signing secret and per-type token lifetimes.
type TokenConfig struct {
	Secret          []byte
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	EmailConfirmTTL time.Duration
	Leeway          time.Duration
}

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// CacheConfig tunes the Redis cache-aside namespaces. TTLs bound staleness
// for their respective entry families.
type CacheConfig struct {
	ContactPrefix  string
	IdentityPrefix string
	ContactTTL     time.Duration
	IdentityTTL    time.Duration
}

// RateLimitConfig tunes the login and refresh throttles.
type RateLimitConfig struct {
	EnableIPThrottle      bool
	EnableRefreshThrottle bool
	MaxLoginAttempts      int
	LoginCooldown         time.Duration
	MaxRefreshAttempts    int
	RefreshCooldown       time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metric registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production-leaning defaults. The token secret is
// the only field without one; New rejects a config that leaves it empty.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:          "gatekeeper",
			AccessTTL:       15 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
			EmailConfirmTTL: 24 * time.Hour,
			Leeway:          30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			ContactPrefix:  "gk:cc",
			IdentityPrefix: "gk:id",
			ContactTTL:     time.Minute,
			IdentityTTL:    15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			EnableIPThrottle:      true,
			EnableRefreshThrottle: true,
			MaxLoginAttempts:      5,
			LoginCooldown:         15 * time.Minute,
			MaxRefreshAttempts:    30,
			RefreshCooldown:       time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.Secret) == 0 {
		return errors.New("token secret is required")
	}
	if cfg.Token.AccessTTL <= 0 || cfg.Token.RefreshTTL <= 0 || cfg.Token.EmailConfirmTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.Cache.ContactTTL <= 0 || cfg.Cache.IdentityTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if cfg.RateLimit.MaxLoginAttempts <= 0 || cfg.RateLimit.LoginCooldown <= 0 {
		return errors.New("login rate limit must be positive")
	}
	if cfg.RateLimit.EnableRefreshThrottle &&
		(cfg.RateLimit.MaxRefreshAttempts <= 0 || cfg.RateLimit.RefreshCooldown <= 0) {
		return errors.New("refresh rate limit must be positive")
	}
	return nil
}
