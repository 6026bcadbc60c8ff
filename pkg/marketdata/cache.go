package marketdata

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// TTLs per response kind. Quotes go stale in minutes; fundamentals barely
// move day to day.
const (
	// TTLQuote keeps prices fresh enough for valuation without burning the
	// provider's per-minute quota.
	TTLQuote = 5 * time.Minute
	// TTLOverview caches fundamentals for a day; sector and name changes are rare.
	TTLOverview = 24 * time.Hour
	// TTLHistory covers intraday re-reads of daily series.
	TTLHistory = time.Hour
	// TTLBenchmarkHistory is longer because benchmark series (SPY, QQQ, DIA)
	// are shared across users and fetched often.
	TTLBenchmarkHistory = 4 * time.Hour
	// TTLNews keeps headlines reasonably current.
	TTLNews = 30 * time.Minute
)

type cacheEntry struct {
	fetchedAt time.Time
	value     any
}

// Cache is a process-local TTL cache for provider responses. Entries are
// evicted when read past their TTL; Put always overwrites. The clock is
// injectable so expiry can be tested without sleeping.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache returns a cache on the real clock.
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock returns a cache using the given clock.
func NewCacheWithClock(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{entries: map[string]cacheEntry{}, now: now}
}

// Get returns the cached value for key if it is younger than ttl. An expired
// entry is removed and reported as a miss.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.Sub(entry.fetchedAt) < ttl {
		return entry.value, true
	}
	c.mu.Lock()
	// Re-check under the write lock; a concurrent Put may have refreshed it.
	if current, ok := c.entries[key]; ok && current.fetchedAt.Equal(entry.fetchedAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil, false
}

// Put stores value under key, replacing any previous entry.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{fetchedAt: c.now(), value: value}
	c.mu.Unlock()
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func quoteKey(symbol string) string {
	return "price:" + symbol
}

func overviewKey(symbol string) string {
	return "overview:" + symbol
}

func historyKey(symbol string, size OutputSize) string {
	return fmt.Sprintf("history:%s:%s", symbol, size)
}

func newsKey(q NewsQuery) string {
	var parts []string
	for _, t := range q.Topics {
		parts = append(parts, strings.ToLower(t))
	}
	sort.Strings(parts)
	var tickers []string
	for _, t := range q.Tickers {
		tickers = append(tickers, strings.ToLower(t))
	}
	sort.Strings(tickers)
	parts = append(parts, tickers...)
	if len(parts) == 0 {
		parts = append(parts, "general_financial_news")
	}
	return fmt.Sprintf("news:%s_limit%d", strings.Join(parts, "_"), q.Limit)
}

func historyTTL(symbol string) time.Duration {
	if IsBenchmark(symbol) {
		return TTLBenchmarkHistory
	}
	return TTLHistory
}
