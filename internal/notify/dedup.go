package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper claims a key for ttl. Only the first claim of a live key succeeds.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisDeduper shares claims between API instances.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

// ConnectRedis parses a redis:// URL and verifies the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// MemoryDeduper is the single-instance fallback used when Redis is not configured.
type MemoryDeduper struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{keys: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.keys {
		if now.After(exp) {
			delete(d.keys, k)
		}
	}

	if _, taken := d.keys[key]; taken {
		return false, nil
	}
	d.keys[key] = now.Add(ttl)
	return true, nil
}
