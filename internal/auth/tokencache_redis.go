package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"
)

// RedisTokenCache shares one IAM-issued token across several driver
// processes behind the same service, so a fleet refreshes the IAM endpoint
// once instead of once per process. Adapted from the platform's generic
// Redis connection wrapper, specialized to the {token, issuedAt} shape
// IAMJWTCredentials needs instead of a bare GET/SET string.
type RedisTokenCache struct {
	client    *redis.Client
	keyPrefix string
}

type cachedToken struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// NewRedisTokenCache wraps an already-connected *redis.Client. Keys are
// namespaced under keyPrefix so a shared Redis instance can host the token
// cache alongside unrelated data.
func NewRedisTokenCache(client *redis.Client, keyPrefix string) *RedisTokenCache {
	return &RedisTokenCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisTokenCache) Load(ctx context.Context, key string) (string, time.Time, bool) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			logx.WithContext(ctx).Errorf("redis token cache: get %s failed: %v", key, err)
		}
		return "", time.Time{}, false
	}

	var ct cachedToken
	if err := json.Unmarshal([]byte(raw), &ct); err != nil {
		logx.WithContext(ctx).Errorf("redis token cache: decode %s failed: %v", key, err)
		return "", time.Time{}, false
	}
	return ct.Token, ct.IssuedAt, true
}

func (c *RedisTokenCache) Store(ctx context.Context, key, token string, issuedAt time.Time, ttl time.Duration) error {
	raw, err := json.Marshal(cachedToken{Token: token, IssuedAt: issuedAt})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err()
}
