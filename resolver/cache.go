package resolver

import (
	"reflect"
	"sync"
)

// DefaultMemberCache is the member cache used by [Defaults].
var DefaultMemberCache = NewMemberCache()

// MemberCache caches the struct fields and methods discovered by the
// reflective resolvers, keyed by the declaring type and the requested name.
//
// It is safe for concurrent use. Two goroutines missing the same key at once
// both compute the member and store equal entries.
// A nil *MemberCache disables caching.
type MemberCache struct {
	entries sync.Map // memberKey -> member
}

type memberKind uint8

const (
	fieldMember memberKind = iota
	methodMember
)

type memberKey struct {
	typ  reflect.Type
	kind memberKind
	name string
}

// member is the result of a lookup; found is false for names the type does
// not have, so misses are cached too.
type member struct {
	index  []int // field index path
	method int   // method index
	found  bool
}

// NewMemberCache returns an empty member cache.
func NewMemberCache() *MemberCache {
	return &MemberCache{}
}

// Len returns the number of cached entries, including cached misses.
func (c *MemberCache) Len() int {
	if c == nil {
		return 0
	}

	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear removes every cached entry.
func (c *MemberCache) Clear() {
	if c != nil {
		c.entries.Clear()
	}
}

func (c *MemberCache) load(key memberKey, compute func() member) member {
	if c == nil {
		return compute()
	}

	if v, ok := c.entries.Load(key); ok {
		if m, ok := v.(member); ok {
			return m
		}
	}

	m := compute()
	c.entries.Store(key, m)

	return m
}
