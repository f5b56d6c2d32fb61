// Package store holds the small persistence pieces: update deduplication
// and the delivery cache of already-uploaded files.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// UpdateDedup remembers recently handled update IDs so redelivered
// updates are dropped instead of reprocessed. A bloom filter screens the
// common case (unseen ID) without touching the map; the LRU bounds
// memory by evicting the oldest IDs once capacity is reached.
type UpdateDedup struct {
	seen  map[string]struct{}
	bloom *bloom.BloomFilter
	lru   *lru.Cache[string, struct{}]
	mutex sync.RWMutex
	max   int
}

// NewUpdateDedup creates a dedup store holding at most max IDs, with the
// given bloom false positive rate.
func NewUpdateDedup(max int, falsePositiveRate float64) *UpdateDedup {
	if max <= 0 {
		panic("dedup capacity must be positive")
	}
	cache, _ := lru.New[string, struct{}](max)

	return &UpdateDedup{
		seen:  make(map[string]struct{}),
		bloom: bloom.NewWithEstimates(uint(max), falsePositiveRate),
		lru:   cache,
		max:   max,
	}
}

// Seen reports whether id was marked before.
func (d *UpdateDedup) Seen(id string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if !d.bloom.TestString(id) {
		return false
	}
	_, ok := d.seen[id]
	return ok
}

// Mark records id as handled, evicting the oldest entry at capacity.
func (d *UpdateDedup) Mark(id string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, ok := d.seen[id]; ok {
		return
	}

	d.seen[id] = struct{}{}
	d.bloom.AddString(id)
	d.lru.Add(id, struct{}{})

	// Bloom entries cannot be removed; stale filter hits still fall
	// through to the map, so eviction stays correct.
	for len(d.seen) > d.max {
		oldest, _, ok := d.lru.GetOldest()
		if !ok {
			break
		}
		delete(d.seen, oldest)
		d.lru.Remove(oldest)
	}
}

// Size returns the number of IDs currently held.
func (d *UpdateDedup) Size() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.seen)
}
