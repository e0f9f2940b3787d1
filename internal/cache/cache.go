package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodgram/internal/microservices/http-api/models"
)

const (
	tagsKey         = "foodgram:tags"
	revokedTokenKey = "foodgram:revoked:%s"
)

// TagCache keeps the tag catalog in Redis. A nil client turns every call
// into a miss so the API keeps working without Redis.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

func (c *TagCache) Get(ctx context.Context) ([]models.Tag, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, tagsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached tags: %w", err)
	}

	var tags []models.Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false, fmt.Errorf("decode cached tags: %w", err)
	}
	return tags, true, nil
}

func (c *TagCache) Set(ctx context.Context, tags []models.Tag) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	return c.client.Set(ctx, tagsKey, raw, c.ttl).Err()
}

// TokenDenylist remembers logged-out token ids until the token would have
// expired anyway.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if d == nil || d.client == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, fmt.Sprintf(revokedTokenKey, jti), 1, ttl).Err()
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.client == nil {
		return false, nil
	}
	n, err := d.client.Exists(ctx, fmt.Sprintf(revokedTokenKey, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
