package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCache is a Cache shared across processes through Redis.
type RedisCache struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisCache wraps an existing client. Entries expire after ttl; zero
// means no expiry.
func NewRedisCache(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, namespace: namespace, ttl: ttl}
}

// DialRedis connects and pings, closing the client on failure.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return c, nil
}

var _ Cache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key Key, dst any) error {
	res, err := r.client.Get(ctx, r.storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(res, dst)
}

func (r *RedisCache) Set(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.storageKey(key), data, r.ttl).Err()
}

// Invalidate deletes the exact key plus every key below it.
func (r *RedisCache) Invalidate(ctx context.Context, prefix Key) error {
	keys := []string{r.storageKey(prefix)}
	iter := r.client.Scan(ctx, 0, r.prefixPattern(prefix), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) storageKey(key Key) string {
	return r.namespace + ":" + key.String()
}

func (r *RedisCache) prefixPattern(prefix Key) string {
	return globEscaper.Replace(r.storageKey(prefix)) + keySeparator + "*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
