// Package dedupe tracks in-flight keys so the same (campaign, talent) pair
// is never queued twice while an earlier job for it is pending.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records keys to ensure at-most-once scheduling.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is held and records it if
	// not. It returns true when the key was already held.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key so it can be scheduled again.
	Unrecord(ctx context.Context, key string)

	// Holds reports whether key is currently recorded.
	Holds(key string) bool

	Size() int64
}

// inMemoryDeduper keeps keys in insertion order. When bounded and full, the
// oldest key is evicted; a stale in-flight key is safe to drop because the
// engine re-checks the ledger under the talent lock before sending.
type inMemoryDeduper struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.keys = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.keys, d.order.Remove(oldest).(string))
		}
	}
	d.keys[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
	}
}

func (d *inMemoryDeduper) Holds(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.keys[key]
	return ok
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.keys))
}
