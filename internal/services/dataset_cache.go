package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// DatasetLoader produces the dataset for a cache key on a miss.
type DatasetLoader func(ctx context.Context) (*domain.Dataset, error)

// DatasetCache holds the current dataset keyed by upload identity.
type DatasetCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.Dataset
	current string
	group   singleflight.Group
	logger  *slog.Logger
}

// NewDatasetCache creates an empty cache.
func NewDatasetCache(logger *slog.Logger) *DatasetCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetCache{
		entries: make(map[string]*domain.Dataset),
		logger:  logger.With(slog.String("component", "dataset_cache")),
	}
}

// DatasetKey returns the hex SHA-256 of a workbook's bytes.
func DatasetKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the dataset stored under key.
func (c *DatasetCache) Get(key string) (*domain.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.entries[key]
	return ds, ok
}

// Current returns the most recently stored dataset, or nil.
func (c *DatasetCache) Current() *domain.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[c.current]
}

// CurrentKey returns the key of the current dataset, or "".
func (c *DatasetCache) CurrentKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Len returns the number of cached datasets.
func (c *DatasetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load returns the dataset for key, calling loader on a miss. Concurrent
// callers with the same key share one loader call, run with the first
// caller's context. A successful load evicts every other key. cached
// reports whether the dataset was already present.
func (c *DatasetCache) Load(ctx context.Context, key string, loader DatasetLoader) (*domain.Dataset, bool, error) {
	if ds, ok := c.Get(key); ok {
		c.promote(key)
		return ds, true, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if ds, ok := c.Get(key); ok {
			return ds, nil
		}
		ds, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, false, err
	}

	if shared {
		c.logger.DebugContext(ctx, "dataset load shared with concurrent caller",
			slog.String("key", shortKey(key)))
	}
	return v.(*domain.Dataset), false, nil
}

// Invalidate drops every cached dataset.
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*domain.Dataset)
	c.current = ""
}

func (c *DatasetCache) store(key string, ds *domain.Dataset) {
	c.mu.Lock()
	evicted := 0
	for k := range c.entries {
		if k != key {
			evicted++
		}
	}
	c.entries = map[string]*domain.Dataset{key: ds}
	c.current = key
	c.mu.Unlock()

	c.logger.Info("dataset cached",
		slog.String("key", shortKey(key)),
		slog.Int("evicted", evicted))
}

func (c *DatasetCache) promote(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.current = key
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
