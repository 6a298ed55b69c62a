// Package answercache holds upstream answers in memory for the lifetime of
// their TTL, bounded by an LRU policy.
package answercache

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/haukened/fwd-dns/internal/dns/common/clock"
	"github.com/haukened/fwd-dns/internal/dns/domain"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

var (
	ErrInvalidSize = errors.New("cache size must be positive")
	ErrInvalidTTL  = errors.New("default ttl must be positive")
	ErrNilClock    = errors.New("clock is required")
)

// answerCache is an in-memory TTL-aware cache using an LRU strategy to store
// answers keyed by "name|type|class". Expired entries are evicted on read.
type answerCache struct {
	lru        *lru.Cache[string, domain.CachedAnswer]
	defaultTTL time.Duration
	clock      clock.Clock
}

// New returns an answerCache of the given size. Answers stored with a zero
// TTL live for defaultTTL.
func New(size int, defaultTTL time.Duration, clk clock.Clock) (*answerCache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if defaultTTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if clk == nil {
		return nil, ErrNilClock
	}
	cache, err := lru.New[string, domain.CachedAnswer](size)
	if err != nil {
		return nil, err
	}
	return &answerCache{lru: cache, defaultTTL: defaultTTL, clock: clk}, nil
}

// Get returns a copy of the cached answer with its TTL rewritten to the
// seconds remaining. Expired entries are removed and reported as a miss.
func (c *answerCache) Get(key string) (domain.Answer, bool) {
	entry, found := c.lru.Get(key)
	if !found {
		return domain.Answer{}, false
	}
	now := c.clock.Now()
	if entry.IsExpired(now) {
		c.lru.Remove(key)
		return domain.Answer{}, false
	}
	answer := entry.Answer.Clone()
	answer.TTL = entry.Remaining(now)
	return answer, true
}

// Set stores answer under key, replacing any previous entry. A non-positive
// ttl falls back to the cache default.
func (c *answerCache) Set(key string, answer domain.Answer, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.lru.Add(key, domain.CachedAnswer{
		Key:       key,
		Answer:    answer.Clone(),
		ExpiresAt: c.clock.Now().Add(ttl),
	})
}

// Delete removes the entry for the given key from the cache.
func (c *answerCache) Delete(key string) {
	c.lru.Remove(key)
}

// Len returns the number of entries currently stored, expired or not.
func (c *answerCache) Len() int {
	return c.lru.Len()
}

// Keys returns the current cache keys from oldest to newest.
func (c *answerCache) Keys() []string {
	return c.lru.Keys()
}

// Entries returns every unexpired entry, oldest first. It does not touch
// recency, so it is safe to call while the server is answering.
func (c *answerCache) Entries() []domain.CachedAnswer {
	now := c.clock.Now()
	entries := make([]domain.CachedAnswer, 0, c.lru.Len())
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok || entry.IsExpired(now) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Restore loads previously saved entries, skipping any that have expired.
// It returns the number of entries added.
func (c *answerCache) Restore(entries []domain.CachedAnswer) int {
	now := c.clock.Now()
	n := 0
	for _, entry := range entries {
		if entry.Key == "" || entry.IsExpired(now) {
			continue
		}
		c.lru.Add(entry.Key, entry)
		n++
	}
	return n
}

var _ resolver.AnswerCache = (*answerCache)(nil)
