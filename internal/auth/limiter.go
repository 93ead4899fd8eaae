package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable wraps Redis failures inside the login limiter.
var ErrLimiterUnavailable = errors.New("login limiter unavailable")

// LimiterConfig tunes the fixed-window login throttle.
type LimiterConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// LoginLimiter throttles failed logins per email and per client IP using
// fixed-window Redis counters: INCR plus a conditional EXPIRE on the first
// hit of each window.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config LimiterConfig
}

// NewLoginLimiter returns a limiter backed by the given Redis client.
func NewLoginLimiter(client redis.UniversalClient, cfg LimiterConfig) (*LoginLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.MaxAttempts <= 0 || cfg.Cooldown <= 0 {
		return nil, errors.New("limiter attempts and cooldown must be positive")
	}
	return &LoginLimiter{redis: client, config: cfg}, nil
}

func emailKey(email string) string {
	return "ll:" + strings.ToLower(email)
}

func ipKey(ip string) string {
	return "lli:" + ip
}

// Check returns ErrLoginRateLimited when the email or IP has exhausted its
// attempt budget in the current window.
func (l *LoginLimiter) Check(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, emailKey(email)); err != nil {
		return err
	}
	if ip != "" {
		return l.checkCounter(ctx, ipKey(ip))
	}
	return nil
}

// RecordFailure counts one failed attempt against the email and IP.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	if err := l.bumpCounter(ctx, emailKey(email)); err != nil {
		return err
	}
	if ip != "" {
		return l.bumpCounter(ctx, ipKey(ip))
	}
	return nil
}

func (l *LoginLimiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLoginRateLimited
	}
	return nil
}

func (l *LoginLimiter) bumpCounter(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLoginRateLimited
	}
	return nil
}
