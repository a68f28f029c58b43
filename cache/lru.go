package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUConfig configures an [LRU] cache.
type LRUConfig struct {
	// MaxSize is the maximum number of entries. Zero means unbounded.
	MaxSize int
	// TTL is the time-to-live of an entry. Zero means entries never expire.
	TTL time.Duration
}

// LRU is a size-bounded cache that evicts the least recently used entry.
// It is safe for concurrent use.
type LRU[V any] struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recent
	config  LRUConfig
	now     func() time.Time
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

// NewLRU returns an empty LRU cache.
func NewLRU[V any](config LRUConfig) *LRU[V] {
	return &LRU[V]{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		config:  config,
		now:     time.Now,
	}
}

// Get implements [Cache].
//
// The computation runs without holding the lock, so concurrent misses for
// the same key may compute it more than once; the last result is kept.
func (c *LRU[V]) Get(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Peek(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	c.Set(key, v)

	return v, nil
}

// Peek returns the cached value for key, marking it recently used.
func (c *LRU[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	e, _ := elem.Value.(*lruEntry[V])

	if c.config.TTL > 0 && c.now().After(e.expiry) {
		c.remove(elem)

		return zero, false
	}

	c.order.MoveToFront(elem)

	return e.value, true
}

// Set adds or replaces the value for key, evicting the least recently used
// entry if the cache is full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiry time.Time
	if c.config.TTL > 0 {
		expiry = c.now().Add(c.config.TTL)
	}

	if elem, ok := c.entries[key]; ok {
		e, _ := elem.Value.(*lruEntry[V])
		e.value, e.expiry = value, expiry
		c.order.MoveToFront(elem)

		return
	}

	if c.config.MaxSize > 0 && c.order.Len() >= c.config.MaxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value, expiry: expiry})
}

// Evict implements [Cache].
func (c *LRU[V]) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

// Clear implements [Cache].
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of cached entries, including expired entries not
// yet removed.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

func (c *LRU[V]) remove(elem *list.Element) {
	if e, ok := elem.Value.(*lruEntry[V]); ok {
		delete(c.entries, e.key)
	}

	c.order.Remove(elem)
}
