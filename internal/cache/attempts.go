package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Attempts compte des tentatives par sujet (email, IP) et bloque le sujet pendant un cooldown
// une fois le maximum atteint. Clés : <scope>_attempts:<sujet> et <scope>_cooldown:<sujet>.
type Attempts interface {
	// Cooldown renvoie le temps de blocage restant, zéro si le sujet est libre
	Cooldown(ctx context.Context, scope, subject string) (time.Duration, error)
	// Hit enregistre une tentative ; true quand elle déclenche le cooldown
	Hit(ctx context.Context, scope, subject string, max int, cooldown time.Duration) (bool, error)
	Reset(ctx context.Context, scope, subject string) error
}

func attemptsKey(scope, subject string) string {
	return fmt.Sprintf("%s_attempts:%s", scope, subject)
}

func cooldownKey(scope, subject string) string {
	return fmt.Sprintf("%s_cooldown:%s", scope, subject)
}

type RedisAttempts struct {
	client *redis.Client
}

func NewRedisAttempts(client *redis.Client) *RedisAttempts {
	return &RedisAttempts{client: client}
}

func (a *RedisAttempts) Cooldown(ctx context.Context, scope, subject string) (time.Duration, error) {
	ttl, err := a.client.TTL(ctx, cooldownKey(scope, subject)).Result()
	if err != nil {
		return 0, err
	}
	// -2 : clé absente, -1 : pas d'expiration
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (a *RedisAttempts) Hit(ctx context.Context, scope, subject string, max int, cooldown time.Duration) (bool, error) {
	key := attemptsKey(scope, subject)
	pipe := a.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	if incr.Val() < int64(max) {
		return false, nil
	}

	pipe = a.client.TxPipeline()
	pipe.Set(ctx, cooldownKey(scope, subject), "1", cooldown)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (a *RedisAttempts) Reset(ctx context.Context, scope, subject string) error {
	return a.client.Del(ctx, attemptsKey(scope, subject), cooldownKey(scope, subject)).Err()
}

type MemoryAttempts struct {
	mu        sync.Mutex
	counts    map[string]*memoryWindow
	cooldowns map[string]time.Time
	now       func() time.Time
}

func NewMemoryAttempts() *MemoryAttempts {
	return &MemoryAttempts{
		counts:    make(map[string]*memoryWindow),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (a *MemoryAttempts) Cooldown(_ context.Context, scope, subject string) (time.Duration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	until, ok := a.cooldowns[cooldownKey(scope, subject)]
	if !ok {
		return 0, nil
	}
	left := until.Sub(a.now())
	if left <= 0 {
		delete(a.cooldowns, cooldownKey(scope, subject))
		return 0, nil
	}
	return left, nil
}

func (a *MemoryAttempts) Hit(_ context.Context, scope, subject string, max int, cooldown time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	key := attemptsKey(scope, subject)
	w, ok := a.counts[key]
	if !ok || now.After(w.expires) {
		w = &memoryWindow{}
		a.counts[key] = w
	}
	w.count++
	w.expires = now.Add(cooldown)
	if w.count < int64(max) {
		return false, nil
	}
	delete(a.counts, key)
	a.cooldowns[cooldownKey(scope, subject)] = now.Add(cooldown)
	return true, nil
}

func (a *MemoryAttempts) Reset(_ context.Context, scope, subject string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, attemptsKey(scope, subject))
	delete(a.cooldowns, cooldownKey(scope, subject))
	return nil
}
