package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"smartshop_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

// Messages publiés sur le canal cart:<userID>
const (
	CartUpdated = "updated"
	CartCleared = "cleared"
)

// CartStore persiste le panier d'un utilisateur et notifie les onglets ouverts
type CartStore interface {
	Get(ctx context.Context, userID string) ([]models.CartItem, error)
	Save(ctx context.Context, userID string, items []models.CartItem) error
	Clear(ctx context.Context, userID string) error
	// Subscribe reçoit les notifications jusqu'à l'appel de la fonction de fermeture
	Subscribe(ctx context.Context, userID string) (<-chan string, func(), error)
}

type RedisCartStore struct {
	client *redis.Client
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

func (s *RedisCartStore) Get(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("panier illisible: %w", err)
	}
	return items, nil
}

// Save écrit le panier, rafraîchit le TTL et publie "updated"
func (s *RedisCartStore) Save(ctx context.Context, userID string, items []models.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, userID)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, CartTTL)
	pipe.Publish(ctx, key, CartUpdated)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("écriture panier: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Publish(ctx, key, CartCleared)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("vidage panier: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Subscribe(ctx context.Context, userID string) (<-chan string, func(), error) {
	pubsub := s.client.Subscribe(ctx, cartKey(userID))
	// attend la confirmation d'abonnement pour ne rater aucun message
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("abonnement panier: %w", err)
	}

	out := make(chan string, 8)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			default:
			}
		}
	}()
	return out, func() { _ = pubsub.Close() }, nil
}

// MemoryCartStore : même contrat, pour le mode sans Redis
type MemoryCartStore struct {
	mu          sync.Mutex
	carts       map[string][]models.CartItem
	subscribers map[string]map[chan string]struct{}
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts:       make(map[string][]models.CartItem),
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

func (s *MemoryCartStore) Get(_ context.Context, userID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.CartItem, len(s.carts[userID]))
	copy(items, s.carts[userID])
	return items, nil
}

func (s *MemoryCartStore) Save(ctx context.Context, userID string, items []models.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]models.CartItem, len(items))
	copy(stored, items)
	s.carts[userID] = stored
	s.publish(userID, CartUpdated)
	return nil
}

func (s *MemoryCartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	s.publish(userID, CartCleared)
	return nil
}

// publish doit être appelé avec le verrou
func (s *MemoryCartStore) publish(userID, msg string) {
	for ch := range s.subscribers[userID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *MemoryCartStore) Subscribe(_ context.Context, userID string) (<-chan string, func(), error) {
	ch := make(chan string, 8)
	s.mu.Lock()
	if s.subscribers[userID] == nil {
		s.subscribers[userID] = make(map[chan string]struct{})
	}
	s.subscribers[userID][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[userID], ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe, nil
}
