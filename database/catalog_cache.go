package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"menu-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	RestaurantCachePrefix     = "catalog:v:%d:restaurant:"
	RestaurantListCachePrefix = "catalog:v:%d:restaurants"
	CatalogVersionKey         = "catalog:version"
)

// CatalogCache caches normalized upstream results. Lookups report a miss
// on any failure; the upstream is the source of truth.
type CatalogCache interface {
	GetRestaurant(ctx context.Context, id string) (*models.CombinedRestaurantData, bool)
	SetRestaurant(ctx context.Context, id string, data *models.CombinedRestaurantData)
	GetRestaurants(ctx context.Context) ([]models.RestaurantDetails, bool)
	SetRestaurants(ctx context.Context, list []models.RestaurantDetails)
	Invalidate(ctx context.Context) error
}

// MemoryCatalogCache is a TTL cache in process memory.
type MemoryCatalogCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]catalogEntry
}

type catalogEntry struct {
	restaurant *models.CombinedRestaurantData
	list       []models.RestaurantDetails
	expires    time.Time
}

const listKey = "\x00list"

func NewMemoryCatalogCache(ttl time.Duration) *MemoryCatalogCache {
	return &MemoryCatalogCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]catalogEntry),
	}
}

func (m *MemoryCatalogCache) get(key string) (catalogEntry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return catalogEntry{}, false
	}
	return e, true
}

func (m *MemoryCatalogCache) set(key string, e catalogEntry) {
	if m.ttl <= 0 {
		return
	}
	e.expires = m.now().Add(m.ttl)
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *MemoryCatalogCache) GetRestaurant(ctx context.Context, id string) (*models.CombinedRestaurantData, bool) {
	e, ok := m.get("r:" + id)
	if !ok {
		return nil, false
	}
	return e.restaurant, true
}

func (m *MemoryCatalogCache) SetRestaurant(ctx context.Context, id string, data *models.CombinedRestaurantData) {
	if data == nil {
		return
	}
	m.set("r:"+id, catalogEntry{restaurant: data})
}

func (m *MemoryCatalogCache) GetRestaurants(ctx context.Context) ([]models.RestaurantDetails, bool) {
	e, ok := m.get(listKey)
	if !ok {
		return nil, false
	}
	return e.list, true
}

func (m *MemoryCatalogCache) SetRestaurants(ctx context.Context, list []models.RestaurantDetails) {
	m.set(listKey, catalogEntry{list: list})
}

func (m *MemoryCatalogCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]catalogEntry)
	m.mu.Unlock()
	return nil
}

// RedisCatalogCache stores entries under a version number; Invalidate bumps
// the version so every existing key becomes unreachable at once.
type RedisCatalogCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{
		redis: client,
		ttl:   ttl,
	}
}

func (rc *RedisCatalogCache) GetRestaurant(ctx context.Context, id string) (*models.CombinedRestaurantData, bool) {
	var data models.CombinedRestaurantData
	if !rc.getJSON(ctx, RestaurantCachePrefix, id, &data) {
		return nil, false
	}
	return &data, true
}

func (rc *RedisCatalogCache) SetRestaurant(ctx context.Context, id string, data *models.CombinedRestaurantData) {
	if data == nil {
		return
	}
	rc.setJSONAsync(RestaurantCachePrefix, id, data)
}

func (rc *RedisCatalogCache) GetRestaurants(ctx context.Context) ([]models.RestaurantDetails, bool) {
	var list []models.RestaurantDetails
	if !rc.getJSON(ctx, RestaurantListCachePrefix, "", &list) {
		return nil, false
	}
	return list, true
}

func (rc *RedisCatalogCache) SetRestaurants(ctx context.Context, list []models.RestaurantDetails) {
	rc.setJSONAsync(RestaurantListCachePrefix, "", list)
}

// Invalidate invalidates all catalog caches by bumping the version
func (rc *RedisCatalogCache) Invalidate(ctx context.Context) error {
	newVersion, err := rc.redis.Incr(ctx, CatalogVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	zap.L().Info("Catalog cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (rc *RedisCatalogCache) getJSON(ctx context.Context, prefix, suffix string, out interface{}) bool {
	version, err := rc.getCacheVersion(ctx)
	if err != nil {
		return false
	}

	cached, err := rc.redis.Get(ctx, fmt.Sprintf(prefix, version)+suffix).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(cached, out); err != nil {
		zap.L().Warn("Failed to unmarshal cached catalog entry", zap.Error(err))
		return false
	}
	return true
}

// setJSONAsync writes in the background so a slow cache never delays the
// response.
func (rc *RedisCatalogCache) setJSONAsync(prefix, suffix string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("Failed to marshal catalog entry for cache", zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := rc.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		if err := rc.redis.Set(bgCtx, fmt.Sprintf(prefix, version)+suffix, payload, rc.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache catalog entry", zap.Error(err))
		}
	}()
}

// getCacheVersion reads the current version, initializing it on first use.
func (rc *RedisCatalogCache) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := rc.redis.Get(ctx, CatalogVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err == redis.Nil {
		// SETNX so concurrent first users agree on the initial version.
		if err := rc.redis.SetNX(ctx, CatalogVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return rc.redis.Get(ctx, CatalogVersionKey).Int64()
	}
	if err == nil {
		return 0, fmt.Errorf("invalid cache version %d", ver)
	}
	return 0, err
}
