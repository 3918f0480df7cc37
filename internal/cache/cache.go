package cache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	forgotPasswordPrefix = "forgot-password:"
	revokedTokenPrefix   = "revoked-token:"

	// Reset tokens stay valid for three days.
	resetTokenTTL = 3 * 24 * time.Hour
)

// Cache is the short-lived key-value store backing password-reset tokens
// and the revoked-token denylist. It holds no forum data; everything in it
// expires on its own.
type Cache struct {
	rdb *redis.Client
}

func New() *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return &Cache{rdb: rdb}
}

// SetResetToken stores a single-use password-reset token mapped to the
// user it was issued for.
func (c *Cache) SetResetToken(ctx context.Context, token string, userID int) error {
	return c.rdb.Set(ctx, forgotPasswordPrefix+token, userID, resetTokenTTL).Err()
}

// GetResetToken resolves a reset token to a user id. The second return is
// false when the token is unknown or expired.
func (c *Cache) GetResetToken(ctx context.Context, token string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, forgotPasswordPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// DeleteResetToken consumes a reset token so it cannot be replayed.
func (c *Cache) DeleteResetToken(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, forgotPasswordPrefix+token).Err()
}

// RevokeToken blacklists a JWT id until the token would have expired
// anyway. This is what logout means for bearer tokens.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedTokenPrefix+jti, 1, ttl).Err()
}

// IsTokenRevoked reports whether a JWT id has been logged out.
func (c *Cache) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := c.rdb.Get(ctx, revokedTokenPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Health pings the cache.
func (c *Cache) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}
	stats["status"] = "up"
	return stats
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
