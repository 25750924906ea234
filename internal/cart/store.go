package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persiste carritos. Load devuelve ErrorNotFound si no existe o expiró.
type Store interface {
	Load(ctx context.Context, id string) (Cart, error)
	Save(ctx context.Context, cart Cart) error
}

const redisKeyPrefix = "cart:"

// RedisStore guarda cada carrito como JSON con TTL.
// El TTL se renueva en cada Save.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore crea un store sobre go-redis.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (store *RedisStore) Load(ctx context.Context, id string) (Cart, error) {
	payload, err := store.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, ErrorNotFound
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

func (store *RedisStore) Save(ctx context.Context, cart Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := store.client.Set(ctx, redisKeyPrefix+cart.ID, payload, store.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// MemoryStore es el fallback sin Redis (dev y tests). Respeta el TTL.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	cart      Cart
	expiresAt time.Time
}

// NewMemoryStore crea un store en memoria. ttl <= 0 desactiva la expiración.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (store *MemoryStore) Load(ctx context.Context, id string) (Cart, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, ok := store.entries[id]
	if !ok {
		return Cart{}, ErrorNotFound
	}
	if !entry.expiresAt.IsZero() && !store.now().Before(entry.expiresAt) {
		delete(store.entries, id)
		return Cart{}, ErrorNotFound
	}
	return cloneCart(entry.cart), nil
}

func (store *MemoryStore) Save(ctx context.Context, cart Cart) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry := memoryEntry{cart: cloneCart(cart)}
	if store.ttl > 0 {
		entry.expiresAt = store.now().Add(store.ttl)
	}
	store.entries[cart.ID] = entry
	return nil
}

// Copiamos las líneas para que el llamador no comparta el slice guardado.
func cloneCart(cart Cart) Cart {
	lines := make([]Line, len(cart.Lines))
	copy(lines, cart.Lines)
	cart.Lines = lines
	return cart
}
