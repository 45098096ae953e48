package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/utils/response"
)

// AttemptStore is the slice of cache operations the guard needs. The Redis
// cache satisfies it.
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// BruteForceProtection throttles repeated failed attempts per IP. It guards
// login and invitation-token responses: the invitation token is the sole
// credential for that step, so guessing must be expensive.
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{
		store: store,
	}
}

// CheckAttempt middleware rejects requests from locked-out IPs
func (b *BruteForceProtection) CheckAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		lockKey := fmt.Sprintf("brute_force:lock:%s", ip)

		locked, err := b.store.Exists(c.Context(), lockKey)
		if err != nil {
			// If Redis is down, allow the request rather than block
			// legitimate users.
			return c.Next()
		}

		if locked {
			ttl, _ := b.store.TTL(c.Context(), lockKey)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt records a failed attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) {
	ctx := c.Context()
	attemptKey := fmt.Sprintf("brute_force:attempts:%s", ip)
	lockKey := fmt.Sprintf("brute_force:lock:%s", ip)

	attempts, err := b.store.Increment(ctx, attemptKey)
	if err != nil {
		return
	}

	// 15 minute counting window
	if attempts == 1 {
		b.store.Expire(ctx, attemptKey, 15*time.Minute)
	}

	// Progressive lockouts: 5 attempts -> 1 minute, 10 -> 15 minutes
	switch {
	case attempts >= 10:
		b.store.Set(ctx, lockKey, "1", 15*time.Minute)
	case attempts >= 5:
		b.store.Set(ctx, lockKey, "1", 1*time.Minute)
	}
}

// RecordSuccessfulAttempt clears the failure counter for an IP
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) {
	attemptKey := fmt.Sprintf("brute_force:attempts:%s", ip)
	b.store.Delete(c.Context(), attemptKey)
}
