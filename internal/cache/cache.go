// Package cache implements the in-memory quote cache with TTL-based
// freshness tracking. Entries are immutable once stored; updates replace
// the whole entry so readers never observe a partially written quote.
package cache

import (
	"sync"
	"time"

	"github.com/dpaiva/carteira/internal/models"
)

// State describes the lifecycle of a cached quote.
type State string

const (
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
)

type entry struct {
	quote      models.PriceQuote
	storedAt   time.Time
	refreshing bool
}

// QuoteCache caches resolved price quotes keyed by ticker. Reads never
// block on network I/O; staleness only marks an entry as a refresh
// candidate, it never evicts.
type QuoteCache struct {
	ttl     time.Duration
	entries sync.Map // ticker -> *entry

	// now is swappable in tests
	now func() time.Time
}

// NewQuoteCache creates a cache whose entries turn stale after ttl.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached quote for a ticker regardless of freshness.
// The returned quote's Source is rewritten to "cache" so downstream
// consumers can tell a cached read from a direct resolution.
func (c *QuoteCache) Get(ticker string) (models.PriceQuote, bool) {
	v, ok := c.entries.Load(ticker)
	if !ok {
		return models.PriceQuote{}, false
	}
	e := v.(*entry)
	q := e.quote
	q.Source = models.QuoteSourceCache
	return q, true
}

// Put stores a successfully resolved quote, resetting the entry to fresh
// and clearing any in-flight refresh mark.
func (c *QuoteCache) Put(q models.PriceQuote) {
	c.entries.Store(q.Ticker, &entry{
		quote:    q,
		storedAt: c.now(),
	})
}

// StateOf reports the freshness state for a ticker. The second return is
// false when the ticker has never been cached.
func (c *QuoteCache) StateOf(ticker string) (State, bool) {
	v, ok := c.entries.Load(ticker)
	if !ok {
		return "", false
	}
	e := v.(*entry)
	switch {
	case e.refreshing:
		return StateRefreshing, true
	case c.now().Sub(e.storedAt) > c.ttl:
		return StateStale, true
	default:
		return StateFresh, true
	}
}

// BeginRefresh marks a ticker as having an in-flight refresh so the
// scheduler does not queue it twice. It reports false when the entry is
// unknown or a refresh is already running.
func (c *QuoteCache) BeginRefresh(ticker string) bool {
	v, ok := c.entries.Load(ticker)
	if !ok {
		return false
	}
	e := v.(*entry)
	if e.refreshing {
		return false
	}
	c.entries.Store(ticker, &entry{
		quote:      e.quote,
		storedAt:   e.storedAt,
		refreshing: true,
	})
	return true
}

// FailRefresh clears the refresh mark after a failed resolution. The last
// good value stays served as stale; nothing is evicted.
func (c *QuoteCache) FailRefresh(ticker string) {
	v, ok := c.entries.Load(ticker)
	if !ok {
		return
	}
	e := v.(*entry)
	if !e.refreshing {
		return
	}
	c.entries.Store(ticker, &entry{
		quote:    e.quote,
		storedAt: e.storedAt,
	})
}

// StaleTickers returns the tickers whose entries have aged past the TTL
// and are not already being refreshed.
func (c *QuoteCache) StaleTickers() []string {
	var stale []string
	now := c.now()
	c.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		if !e.refreshing && now.Sub(e.storedAt) > c.ttl {
			stale = append(stale, k.(string))
		}
		return true
	})
	return stale
}

// Tickers returns every cached ticker.
func (c *QuoteCache) Tickers() []string {
	var out []string
	c.entries.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// Len returns the number of cached entries.
func (c *QuoteCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// TTL returns the configured freshness window.
func (c *QuoteCache) TTL() time.Duration {
	return c.ttl
}
