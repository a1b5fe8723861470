package workspace

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
)

// ResultCache reuses analysis results for unchanged file content
type ResultCache struct {
	mu      sync.RWMutex
	entries map[uint64]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result    *wordpress.AnalysisResult
	expiresAt time.Time
}

// NewResultCache creates a new result cache with specified TTL.
// A non-positive TTL disables caching.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[uint64]*cacheEntry),
		ttl:     ttl,
	}
}

// CacheKey hashes the filename together with the content, so the same bytes
// under another name are analyzed again (the result carries the filename).
func CacheKey(filename, content string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(filename)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(content)
	return d.Sum64()
}

// Get retrieves a result from cache
// Returns nil if not found or expired
func (c *ResultCache) Get(filename, content string) *wordpress.AnalysisResult {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	key := CacheKey(filename, content)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.result
}

// Set stores a result in cache
func (c *ResultCache) Set(filename, content string, result *wordpress.AnalysisResult) {
	if c == nil || c.ttl <= 0 || result == nil {
		return
	}
	key := CacheKey(filename, content)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// CleanExpired removes expired entries and returns how many were dropped.
// Scanner.Scan calls it before every scan.
func (c *ResultCache) CleanExpired() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

// Size returns the number of entries in cache
func (c *ResultCache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
