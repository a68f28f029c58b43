// Package cache provides compiled-template caches.
//
// Every cache computes a missing entry through the function passed to Get.
// Failed computations are not cached.
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// Cache stores values by key.
type Cache[V any] interface {
	// Get returns the cached value for key, calling compute to produce it if
	// it is absent.
	Get(key string, compute func() (V, error)) (V, error)
	// Evict removes the value for key.
	Evict(key string)
	// Clear removes every value.
	Clear()
}

// ErrPanic is returned by [Concurrent.Get] when the computation panics.
var ErrPanic = errors.New("cache: computation panicked")

// Key hashes the gob encoding of parts into a compact cache key. A part gob
// cannot encode (nil, a func, a channel) contributes its %#v text instead.
func Key(parts ...any) string {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			fmt.Fprintf(&buf, "\x00%T:%#v", p, p)
		}
	}

	return strconv.FormatUint(xxh3.Hash(buf.Bytes()), 36)
}

// Concurrent is an unbounded cache safe for concurrent use.
// Concurrent callers missing the same key share one computation.
type Concurrent[V any] struct {
	entries sync.Map // string -> *entry[V]
}

type entry[V any] struct {
	once  sync.Once
	value V
	err   error
}

// NewConcurrent returns an empty concurrent cache.
func NewConcurrent[V any]() *Concurrent[V] {
	return &Concurrent[V]{}
}

// Get implements [Cache].
func (c *Concurrent[V]) Get(key string, compute func() (V, error)) (V, error) {
	v, _ := c.entries.LoadOrStore(key, new(entry[V]))

	e, _ := v.(*entry[V])

	e.once.Do(func() {
		defer func() {
			if p := recover(); p != nil {
				e.err = fmt.Errorf("%w: %v", ErrPanic, p)
			}
		}()

		e.value, e.err = compute()
	})

	if e.err != nil {
		// Let a later call retry.
		c.entries.CompareAndDelete(key, e)
	}

	return e.value, e.err
}

// Evict implements [Cache].
func (c *Concurrent[V]) Evict(key string) {
	c.entries.Delete(key)
}

// Clear implements [Cache].
func (c *Concurrent[V]) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached entries.
func (c *Concurrent[V]) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Null is a cache that stores nothing.
type Null[V any] struct{}

// Get implements [Cache].
func (Null[V]) Get(_ string, compute func() (V, error)) (V, error) {
	return compute()
}

// Evict implements [Cache].
func (Null[V]) Evict(string) {}

// Clear implements [Cache].
func (Null[V]) Clear() {}
