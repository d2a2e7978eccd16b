package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited signals an exhausted attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures talking to Redis.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds throttle tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	EnableRefreshThrottle bool
	MaxLoginAttempts      int
	LoginCooldown         time.Duration
	MaxRefreshAttempts    int
	RefreshCooldown       time.Duration
}

// Limiter enforces per-email, per-IP and per-subject budgets using Redis
// counters. A nil Redis client disables all throttling.
type Limiter struct {
	redis redis.UniversalClient
	cfg   Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, cfg: cfg}
}

func loginEmailKey(email string) string { return "gk:rl:lu:" + email }
func loginIPKey(ip string) string       { return "gk:rl:li:" + ip }
func refreshKey(subject string) string  { return "gk:rl:rf:" + subject }

// CheckLogin reports whether the email+IP pair still has login budget.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l.redis == nil {
		return nil
	}

	if err := l.checkCounter(ctx, loginEmailKey(email), l.cfg.MaxLoginAttempts); err != nil {
		return err
	}
	if l.cfg.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.cfg.MaxLoginAttempts); err != nil {
			return err
		}
	}
	return nil
}

// RecordLoginFailure burns one attempt for the email+IP pair. Returns
// ErrRateLimited when the failure consumed the last attempt.
func (l *Limiter) RecordLoginFailure(ctx context.Context, email, ip string) error {
	if l.redis == nil {
		return nil
	}

	count, err := l.incrWindow(ctx, loginEmailKey(email), l.cfg.LoginCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.cfg.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.cfg.EnableIPThrottle && ip != "" {
		count, err = l.incrWindow(ctx, loginIPKey(ip), l.cfg.LoginCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.cfg.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// ResetLogin clears the failed-login counters after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	if l.redis == nil {
		return nil
	}

	keys := []string{loginEmailKey(email)}
	if l.cfg.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckRefresh burns one refresh attempt for the subject and reports
// whether the budget is exhausted.
func (l *Limiter) CheckRefresh(ctx context.Context, subject string) error {
	if l.redis == nil || !l.cfg.EnableRefreshThrottle {
		return nil
	}

	count, err := l.incrWindow(ctx, refreshKey(subject), l.cfg.RefreshCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.cfg.MaxRefreshAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, max int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count > int64(max) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// First hit opens the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
