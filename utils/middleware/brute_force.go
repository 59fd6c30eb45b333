package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/utils/cache"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// AttemptWindow is how long failed sign-ins are counted before the counter resets
const AttemptWindow = 15 * time.Minute

// BruteForceProtection locks out IPs that keep failing to sign in
type BruteForceProtection struct {
	cache  cache.Store
	logger *zap.Logger
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store cache.Store, logger *zap.Logger) *BruteForceProtection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BruteForceProtection{cache: store, logger: logger}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// LockoutFor returns the lockout earned by the given number of failures
func LockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// CheckAndRecordAttempt middleware rejects requests from locked out IPs
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := lockKey(c.IP())

		locked, err := b.cache.Exists(ctx, key)
		if err != nil {
			// Cache outages must not lock everyone out
			b.logger.Warn("brute force check failed", zap.Error(err))
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		retryAfter := 60
		if ttl, err := b.cache.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailedAttempt counts a failed sign-in and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip, email string) error {
	attempts, err := b.cache.Increment(ctx, attemptKey(ip), AttemptWindow)
	if err != nil {
		b.logger.Warn("failed to record sign-in attempt", zap.String("ip", ip), zap.Error(err))
		return nil
	}

	lock := LockoutFor(attempts)
	if lock == 0 {
		return nil
	}

	b.logger.Warn("locking out ip after failed sign-ins",
		zap.String("ip", ip),
		zap.String("email", email),
		zap.Int64("attempts", attempts),
		zap.Duration("lockout", lock))
	return b.cache.Set(ctx, lockKey(ip), "locked", lock)
}

// RecordSuccessfulAttempt clears failed attempts on successful sign-in
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) error {
	return b.ClearAttempts(ctx, ip)
}

// GetAttemptCount returns the current attempt count for an IP
func (b *BruteForceProtection) GetAttemptCount(ctx context.Context, ip string) (int, error) {
	val, err := b.cache.Get(ctx, attemptKey(ip))
	if errors.Is(err, cache.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}

// IsIPLocked checks if an IP is currently locked
func (b *BruteForceProtection) IsIPLocked(ctx context.Context, ip string) (bool, error) {
	return b.cache.Exists(ctx, lockKey(ip))
}

// ClearAttempts removes the counter and any lock for an IP
func (b *BruteForceProtection) ClearAttempts(ctx context.Context, ip string) error {
	return b.cache.Delete(ctx, attemptKey(ip), lockKey(ip))
}
