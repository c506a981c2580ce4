package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/internmatch-client/internal/application/service"
)

type redisExistenceCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisExistenceCache(rdb *redis.Client, prefix string, ttl time.Duration) service.ExistenceCache {
	return &redisExistenceCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *redisExistenceCache) key(subject string) string {
	return c.prefix + "profile-exists:" + subject
}

func (c *redisExistenceCache) Get(ctx context.Context, subject string) (bool, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read existence cache: %w", err)
	}
	return v == "1", true, nil
}

func (c *redisExistenceCache) Set(ctx context.Context, subject string, exists bool) error {
	v := "0"
	if exists {
		v = "1"
	}
	if err := c.rdb.Set(ctx, c.key(subject), v, c.ttl).Err(); err != nil {
		return fmt.Errorf("write existence cache: %w", err)
	}
	return nil
}

func (c *redisExistenceCache) Invalidate(ctx context.Context, subject string) error {
	if err := c.rdb.Del(ctx, c.key(subject)).Err(); err != nil {
		return fmt.Errorf("invalidate existence cache: %w", err)
	}
	return nil
}

type memoryEntry struct {
	exists  bool
	expires time.Time
}

type memoryExistenceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryExistenceCache is the process-local cache used when no Redis is
// configured. A zero ttl keeps entries until invalidated.
func NewMemoryExistenceCache(ttl time.Duration) service.ExistenceCache {
	return &memoryExistenceCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *memoryExistenceCache) Get(_ context.Context, subject string) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[subject]
	if !ok {
		return false, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, subject)
		return false, false, nil
	}
	return e.exists, true, nil
}

func (c *memoryExistenceCache) Set(_ context.Context, subject string, exists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{exists: exists}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[subject] = e
	return nil
}

func (c *memoryExistenceCache) Invalidate(_ context.Context, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, subject)
	return nil
}
