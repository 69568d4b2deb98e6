package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the failed-login budget.
type Config struct {
	// MaxAttempts is how many failures a username (or IP) may accumulate
	// within Window before further requests are refused.
	MaxAttempts int
	Window      time.Duration
	// EnableIPThrottle also counts failures per client IP.
	EnableIPThrottle bool
}

// DefaultConfig allows five failures per minute per username.
func DefaultConfig() Config {
	return Config{MaxAttempts: 5, Window: time.Minute}
}

// Limiter enforces per-username and per-IP failure budgets using Redis
// counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) (*Limiter, error) {
	if redisClient == nil {
		return nil, errors.New("rate: redis client is required")
	}
	if cfg.MaxAttempts <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("rate: invalid budget %d per %s", cfg.MaxAttempts, cfg.Window)
	}
	return &Limiter{redis: redisClient, config: cfg}, nil
}

// Check reports ErrRateLimited when the username or IP has used up its
// budget. It does not count the attempt.
func (l *Limiter) Check(ctx context.Context, username, ip string) error {
	if err := l.checkCounter(ctx, userKey(username)); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		return l.checkCounter(ctx, ipKey(ip))
	}
	return nil
}

// Fail records a failed attempt. It returns ErrRateLimited when this
// failure exhausted the budget.
func (l *Limiter) Fail(ctx context.Context, username, ip string) error {
	count, err := l.incrementWithTTL(ctx, userKey(username))
	if err != nil {
		return err
	}
	limited := count >= int64(l.config.MaxAttempts)

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, ipKey(ip))
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxAttempts)
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the username counter after a successful login. The IP
// counter is left to expire.
func (l *Limiter) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, userKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RetryAfter returns how long until the username's window ends. Zero
// means no window is open.
func (l *Limiter) RetryAfter(ctx context.Context, username string) (time.Duration, error) {
	ttl, err := l.redis.PTTL(ctx, userKey(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Failures returns the current failure count for a username.
func (l *Limiter) Failures(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, userKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(max(count, 0)), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// The window opens on the first failure.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func userKey(username string) string { return "lf:" + username }

func ipKey(ip string) string { return "lfi:" + ip }
