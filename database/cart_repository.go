package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"menu-service/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository persists cart snapshots by session id. GetCart returns
// (nil, nil) when the session has no cart.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}

// MemoryCartRepository keeps carts in process memory. Sessions idle longer
// than ttl are swept.
type MemoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]memoryCart
	ttl   time.Duration
	now   func() time.Time
}

type memoryCart struct {
	data     []byte
	lastSeen time.Time
}

func NewMemoryCartRepository(ttl time.Duration) *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]memoryCart),
		ttl:   ttl,
		now:   time.Now,
	}
}

// StartSweeper evicts idle carts every interval until ctx is done.
func (r *MemoryCartRepository) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Sweep removes carts idle longer than the ttl and returns how many.
func (r *MemoryCartRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, c := range r.carts {
		if r.ttl > 0 && now.Sub(c.lastSeen) > r.ttl {
			delete(r.carts, id)
			removed++
		}
	}
	return removed
}

func (r *MemoryCartRepository) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	r.mu.Lock()
	entry, ok := r.carts[sessionID]
	if ok && r.ttl > 0 && r.now().Sub(entry.lastSeen) > r.ttl {
		delete(r.carts, sessionID)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}

	// Snapshots are stored encoded so callers never share slices with the map.
	var cart models.Cart
	if err := json.Unmarshal(entry.data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *MemoryCartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = r.now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.carts[cart.SessionID] = memoryCart{data: data, lastSeen: cart.UpdatedAt}
	r.mu.Unlock()
	return nil
}

func (r *MemoryCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}

// Len returns the number of live carts.
func (r *MemoryCartRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// RedisCartRepository stores carts as JSON under cart:session:<id>, with the
// ttl refreshed on every save.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartRepository) getKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (r *RedisCartRepository) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(cart.SessionID), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getKey(sessionID)).Err()
}
