package lang

import (
	"github.com/ardnew/hbs/cache"
)

// TemplateCache stores compiled templates by key.
//
// The [cache] package provides implementations. Get must call compute at
// most once per missing key for a given caller and must not cache failures.
type TemplateCache interface {
	Get(key string, compute func() (*Template, error)) (*Template, error)
	Evict(key string)
	Clear()
}

// DefaultCache returns the cache used by an [Engine] created without
// [WithCache]: an unbounded concurrent cache.
func DefaultCache() TemplateCache {
	return cache.NewConcurrent[*Template]()
}

// cacheKey identifies a compiled template by location and the delimiters it
// was parsed with.
func cacheKey(location, start, end string) string {
	return cache.Key(location, start, end)
}
