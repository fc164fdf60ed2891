// Package querycache memoizes the outcome of one answer-generation pass so
// pagination requests for the same question never rerun classification,
// filtering, or generation. Entries are keyed by a deterministic fingerprint
// of (identity, question, filters) and expire lazily after a TTL.
package querycache

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/query"
)

// DefaultTTL matches the service default of 30 minutes.
const DefaultTTL = 30 * time.Minute

// Entry is one cached query resolution. Matching is a snapshot taken at
// store time, detached from the live dataset.
type Entry struct {
	Answer             string
	Mode               query.Mode
	Matching           []domain.Transaction
	FilterDescriptions []string
	Statistics         *domain.Statistics
	CreatedAt          time.Time
}

// Cache is a TTL-bounded in-memory map of query fingerprints to entries.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*Entry
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

// Fingerprint derives the deterministic cache key for one query. The
// identity is folded in first so two identities asking the same question
// never share an entry; the filter set is canonicalized so extraction order
// does not matter.
func Fingerprint(identity, question string, filters query.FilterSet) string {
	scope := "global_"
	if identity != "" {
		scope = "user_" + identity + "_"
	}
	sum := md5.Sum([]byte(scope + question + "_" + filters.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the entry for a fingerprint if present and unexpired.
// Expired entries are removed on the way out, and every lookup sweeps the
// rest of the map to bound memory between requests.
func (c *Cache) Lookup(fingerprint string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.CreatedAt) > c.ttl {
			delete(c.entries, key)
		}
	}

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	return e, true
}

// Store inserts or overwrites the entry for a fingerprint, resetting its
// age. The matching subset is copied so later dataset replacement cannot
// reach a cached pagination view.
func (c *Cache) Store(fingerprint string, e Entry) {
	e.CreatedAt = c.now()
	e.Matching = domain.CloneSlice(e.Matching)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = &e
}

// Len reports the number of live entries, expired ones included until the
// next sweep.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
