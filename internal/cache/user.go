package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exlog/exlog/internal/model"
)

// Cache key prefixes and TTLs.
const (
	userKeyPrefix     = "user:"
	negCacheKeySuffix = ":neg"

	// DefaultUserTTL is the TTL for cached user data. Users are immutable,
	// so the TTL only bounds memory use.
	DefaultUserTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetUser retrieves a user from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetUser(ctx context.Context, id string) (*model.User, error) {
	result, err := c.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	return userFromFields(id, result)
}

// SetUser stores a user in cache and clears any negative entry for its ID.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	key := userKey(user.ID)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, userFields(user))
	pipe.Expire(ctx, key, c.userTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a user ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, userKey(id)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a user ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	err := c.client.SetEx(ctx, userKey(id)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func userFields(user *model.User) map[string]any {
	return map[string]any{
		"username":   user.Username,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func userFromFields(id string, fields map[string]string) (*model.User, error) {
	username, ok := fields["username"]
	if !ok || username == "" {
		return nil, ErrCacheMiss
	}

	user := &model.User{ID: id, Username: username}
	if raw := fields["created_at"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse cached created_at: %w", err)
		}
		user.CreatedAt = t
	}

	return user, nil
}
