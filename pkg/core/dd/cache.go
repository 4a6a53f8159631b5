package dd

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies the set of elements left in a representation.
type Fingerprint struct {
	sum uint64
	key string
}

type cacheEntry struct {
	key     string
	outcome Outcome
}

// Cache remembers the outcome of every configuration that was tested, keyed by
// the elements that remained. It belongs to whoever creates it; engines only
// share one when it is handed to them explicitly.
type Cache struct {
	mu      sync.RWMutex
	ids     map[any]uint64
	entries map[uint64][]cacheEntry
	size    int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{ids: make(map[any]uint64), entries: make(map[uint64][]cacheEntry)}
}

// fingerprint computes the order-independent fingerprint of elements. Every
// distinct element is numbered the first time the cache sees it, so elements
// that print alike still make different keys.
func fingerprint[E comparable](c *Cache, elements []E) Fingerprint {
	ids := make([]uint64, len(elements))
	c.mu.Lock()
	for i, x := range elements {
		id, ok := c.ids[x]
		if !ok {
			id = uint64(len(c.ids))
			c.ids[x] = id
		}
		ids[i] = id
	}
	c.mu.Unlock()

	slices.Sort(ids)
	key := make([]byte, 0, 2*len(ids))
	for _, id := range ids {
		key = binary.AppendUvarint(key, id)
	}
	return Fingerprint{sum: xxhash.Sum64(key), key: string(key)}
}

// Get returns the recorded outcome for fp.
func (c *Cache) Get(fp Fingerprint) (Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries[fp.sum] {
		if e.key == fp.key {
			return e.outcome, true
		}
	}
	return "", false
}

// Put records outcome for fp, replacing an earlier one.
func (c *Cache) Put(fp Fingerprint, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.entries[fp.sum]
	for i := range bucket {
		if bucket[i].key == fp.key {
			bucket[i].outcome = outcome
			return
		}
	}
	c.entries[fp.sum] = append(bucket, cacheEntry{key: fp.key, outcome: outcome})
	c.size++
}

// Len returns the number of recorded configurations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}
