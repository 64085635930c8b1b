package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ppiankov/inspectra/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey derives the cache key for pages extracted from a document by one adapter.
// Keys depend on content, not location, so a renamed file still hits.
func PageKey(data []byte, adapter string) string {
	h := sha256.New()
	h.Write([]byte(adapter))
	h.Write([]byte{0})
	h.Write(data)
	return "inspectra-pages-v1-" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory only when no directory is set,
// memory over disk otherwise, and a no-op cache when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return ttl
}

// PageStore stores extracted pages as JSON on top of a byte cache
type PageStore struct {
	cache Cache
	ttl   time.Duration
}

// NewPageStore wraps c. A zero ttl uses each layer's default.
func NewPageStore(c Cache, ttl time.Duration) *PageStore {
	if c == nil {
		c = Nop{}
	}
	return &PageStore{cache: c, ttl: ttl}
}

// Get returns cached pages; undecodable entries are dropped and reported as misses
func (s *PageStore) Get(key string) ([]model.Page, bool) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var pages []model.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		_ = s.cache.Delete(key)
		return nil, false
	}
	return pages, true
}

// Put stores pages under key
func (s *PageStore) Put(key string, pages []model.Page) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return err
	}
	return s.cache.Set(key, data, s.ttl)
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error { return nil }
func (Nop) Clear() error { return nil }
