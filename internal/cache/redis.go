// Package cache regroupe ce qui vit dans Redis : panier, compteurs de rate limit, cache catalogue.
// Chaque élément a une variante en mémoire utilisée quand REDIS_HOST est vide.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	CartTTL    = 30 * 24 * time.Hour
	CatalogTTL = 10 * time.Minute
)

// --- Rate limiting ---

// Counter incrémente un compteur à fenêtre fixe
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Increment : INCR puis EXPIRE au premier appel de la fenêtre
func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

type memoryWindow struct {
	count   int64
	expires time.Time
}

type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || now.After(w.expires) {
		w = &memoryWindow{expires: now.Add(window)}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// --- Cache JSON générique (catégories, marques) ---

type JSONCache interface {
	// Get renvoie false si la clé est absente ou illisible
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

type RedisJSONCache struct {
	client *redis.Client
}

func NewRedisJSONCache(client *redis.Client) *RedisJSONCache {
	return &RedisJSONCache{client: client}
}

func (c *RedisJSONCache) Get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("⚠️ Lecture cache Redis")
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *RedisJSONCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("⚠️ Sérialisation cache")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("⚠️ Écriture cache Redis")
	}
}

func (c *RedisJSONCache) Delete(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("⚠️ Invalidation cache Redis")
	}
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

type MemoryJSONCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryJSONCache() *MemoryJSONCache {
	return &MemoryJSONCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryJSONCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return false
	}
	return json.Unmarshal(e.data, dst) == nil
}

func (c *MemoryJSONCache) Set(_ context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryJSONCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
