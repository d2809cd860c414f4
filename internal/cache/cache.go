// Package cache holds the process-wide categorization caches. Both caches
// are injected dependencies, not singletons, so tests can run against a
// fresh or pre-seeded instance. Neither cache survives a restart; a cold
// cache only costs extra categorization calls.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// CategoryMappings caches source-provided category strings against the
// taxonomy. Keys are lowercase-normalized. Entries are never evicted within
// a process lifetime.
type CategoryMappings struct {
	mu sync.RWMutex
	m  map[string]domain.Category
}

// NewCategoryMappings creates an empty source-category cache.
func NewCategoryMappings() *CategoryMappings {
	return &CategoryMappings{m: make(map[string]domain.Category)}
}

// Get looks up a source category string. The lookup is case-insensitive.
func (c *CategoryMappings) Get(source string) (domain.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cat, ok := c.m[normalizeKey(source)]
	return cat, ok
}

// Put records a resolved mapping.
func (c *CategoryMappings) Put(source string, cat domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[normalizeKey(source)] = cat
}

// Len returns the number of cached mappings.
func (c *CategoryMappings) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.m)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type merchantEntry struct {
	category domain.Category
	expires  time.Time
}

// MerchantCategories caches merchant signature → category with a TTL, so
// repeated imports of the same merchants (and repeated service failures)
// are not re-asked within the window.
type MerchantCategories struct {
	mu  sync.RWMutex
	m   map[string]merchantEntry
	ttl time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMerchantCategories creates an empty merchant cache with the given TTL.
func NewMerchantCategories(ttl time.Duration) *MerchantCategories {
	return &MerchantCategories{
		m:   make(map[string]merchantEntry),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached category for a signature, treating expired entries
// as misses.
func (c *MerchantCategories) Get(signature string) (domain.Category, bool) {
	c.mu.RLock()
	e, ok := c.m[signature]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.m, signature)
		c.mu.Unlock()
		return "", false
	}
	return e.category, true
}

// Put records a resolved signature with a fresh expiry.
func (c *MerchantCategories) Put(signature string, cat domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[signature] = merchantEntry{category: cat, expires: c.now().Add(c.ttl)}
}

// Len returns the number of cached entries, expired ones included.
func (c *MerchantCategories) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.m)
}
