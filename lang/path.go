package lang

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Path is a compiled reference such as "a.b", "../x", "this.[weird key]",
// or "@index".
//
// A Path is a chain of segments. Each segment evaluates against the value
// produced by the segments before it and hands its result to the rest of the
// chain.
type Path struct {
	// Original is the path as written.
	Original string
	// Parts are the property names following any prefix.
	Parts []string
	// Depth is the number of "../" segments.
	Depth int
	// Data is set for "@name" paths.
	Data bool
	// This is set for "this", ".", and paths prefixed by "this." or "./".
	This bool

	chain chain
}

// String returns the path as written.
func (p *Path) String() string { return p.Original }

// Simple reports whether the path is a single plain identifier, the only
// form that may name a helper.
func (p *Path) Simple() bool {
	return !p.Data && !p.This && p.Depth == 0 && len(p.Parts) == 1
}

// Local reports whether the path is anchored to a specific scope, which
// disables the lookup in enclosing scopes.
func (p *Path) Local() bool {
	return len(p.chain) > 0 && p.chain[0].local()
}

// segment is one link of a compiled path.
type segment interface {
	// eval resolves the segment against v in scope c and continues with next.
	// The boolean result is false when the reference is unresolved.
	eval(c *Context, v any, next chain) (any, bool, error)
	// local reports whether the segment pins evaluation to one scope.
	local() bool
}

type chain []segment

func (ch chain) eval(c *Context, v any) (any, bool, error) {
	if len(ch) == 0 {
		return v, true, nil
	}

	return ch[0].eval(c, v, ch[1:])
}

// propertySegment resolves a name. The head of a non-local path searches
// the locals and model of each enclosing scope in turn.
type propertySegment struct {
	name string
	head bool
}

func (s propertySegment) eval(c *Context, v any, next chain) (any, bool, error) {
	if !s.head {
		val, ok := c.Resolve(v, s.name)
		if !ok {
			return nil, false, nil
		}

		return next.eval(c, val)
	}

	for scope := c; scope != nil; scope = scope.parent {
		if val, ok := scope.locals[s.name]; ok {
			return next.eval(scope, val)
		}

		if val, ok := scope.Resolve(scope.model, s.name); ok {
			return next.eval(scope, val)
		}
	}

	return nil, false, nil
}

func (s propertySegment) local() bool { return false }

// indexedSegment selects a list element by position, falling back to a
// property lookup for non-list values.
type indexedSegment struct {
	index int
	name  string
}

func (s indexedSegment) eval(c *Context, v any, next chain) (any, bool, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if s.index >= rv.Len() {
			return nil, false, nil
		}

		return next.eval(c, rv.Index(s.index).Interface())
	}

	val, ok := c.Resolve(v, s.name)
	if !ok {
		return nil, false, nil
	}

	return next.eval(c, val)
}

func (s indexedSegment) local() bool { return true }

// parentSegment climbs one scope: "../".
type parentSegment struct{}

func (parentSegment) eval(c *Context, _ any, next chain) (any, bool, error) {
	if c.parent == nil {
		return nil, false, ErrPath.With(slog.String("reason", "path climbs above the root scope"))
	}

	return next.eval(c.parent, c.parent.model)
}

func (parentSegment) local() bool { return true }

// resolveParentSegment is a trailing "..": the parent scope's model.
type resolveParentSegment struct{}

func (resolveParentSegment) eval(c *Context, _ any, next chain) (any, bool, error) {
	if c.parent == nil {
		return nil, false, ErrPath.With(slog.String("reason", "path climbs above the root scope"))
	}

	return next.eval(c.parent, c.parent.ResolveThis(c.parent.model))
}

func (resolveParentSegment) local() bool { return true }

// thisSegment is a "this." or "./" prefix.
type thisSegment struct{}

func (thisSegment) eval(c *Context, v any, next chain) (any, bool, error) {
	return next.eval(c, v)
}

func (thisSegment) local() bool { return true }

// resolveThisSegment is "this" or "." on its own.
type resolveThisSegment struct{}

func (resolveThisSegment) eval(c *Context, v any, next chain) (any, bool, error) {
	return next.eval(c, c.ResolveThis(v))
}

func (resolveThisSegment) local() bool { return true }

// dataSegment is "@name". The data of each enclosing scope is searched for
// "@name" and then "name".
type dataSegment struct {
	name string
}

func (s dataSegment) eval(c *Context, _ any, next chain) (any, bool, error) {
	val, ok := c.Data(s.name)
	if !ok {
		return nil, false, nil
	}

	return next.eval(c, val)
}

func (s dataSegment) local() bool { return true }

var pathCache sync.Map // string -> *Path

// CompilePath compiles a path expression.
//
// Compiled paths are cached process-wide; a Path is immutable and may be
// shared.
func CompilePath(s string) (*Path, error) {
	if v, ok := pathCache.Load(s); ok {
		if p, ok := v.(*Path); ok {
			return p, nil
		}
	}

	p, err := compilePath(s)
	if err != nil {
		return nil, err
	}

	pathCache.Store(s, p)

	return p, nil
}

// pathPart is one lexical element of a path.
type pathPart struct {
	text    string
	parent  bool // ".."
	this    bool // "." or "this"
	literal bool // "[...]"
}

func compilePath(s string) (*Path, error) {
	fail := func(reason string) (*Path, error) {
		return nil, ErrPath.With(
			slog.String("path", s),
			slog.String("reason", reason),
		)
	}

	if s == "" {
		return fail("empty path")
	}

	p := &Path{Original: s}
	rest := s

	if strings.HasPrefix(rest, "@") {
		p.Data = true
		rest = rest[1:]
	}

	parts, err := splitPath(rest)
	if err != "" {
		return fail(err)
	}

	i := 0

	// Leading "../" segments, optionally followed by "@name".
	for i < len(parts) && parts[i].parent {
		p.Depth++
		i++
	}

	if !p.Data && i < len(parts) && !parts[i].literal && strings.HasPrefix(parts[i].text, "@") {
		p.Data = true
		parts[i].text = parts[i].text[1:]

		if parts[i].text == "" {
			return fail("empty data name")
		}
	}

	// A "this" prefix, possibly after "../".
	if !p.Data && i < len(parts) && parts[i].this {
		p.This = true
		i++
	}

	for _, part := range parts[i:] {
		switch {
		case part.parent:
			return fail(`".." must precede every property name`)
		case part.this:
			return fail(`"this" may only begin a path`)
		}

		p.Parts = append(p.Parts, part.text)
	}

	if p.Data && len(p.Parts) == 0 {
		return fail("missing data name")
	}

	p.chain = p.buildChain()

	return p, nil
}

func (p *Path) buildChain() chain {
	var ch chain

	for d := range p.Depth {
		if d == p.Depth-1 && len(p.Parts) == 0 && !p.This {
			ch = append(ch, resolveParentSegment{})
		} else {
			ch = append(ch, parentSegment{})
		}
	}

	parts := p.Parts

	switch {
	case p.Data:
		ch = append(ch, dataSegment{name: parts[0]})
		parts = parts[1:]

	case p.This && len(parts) == 0:
		return append(ch, resolveThisSegment{})

	case p.This:
		ch = append(ch, thisSegment{})
	}

	for i, name := range parts {
		head := i == 0 && len(ch) == 0

		if n, err := strconv.Atoi(name); err == nil && n >= 0 && !head {
			ch = append(ch, indexedSegment{index: n, name: name})

			continue
		}

		ch = append(ch, propertySegment{name: name, head: head})
	}

	return ch
}

// splitPath splits s on "." and "/" separators, honoring "[...]" literal
// segments. It returns a non-empty reason on failure.
func splitPath(s string) ([]pathPart, string) {
	if s == "." || s == "this" {
		return []pathPart{{text: s, this: true}}, ""
	}

	if s == ".." {
		return []pathPart{{text: s, parent: true}}, ""
	}

	var parts []pathPart

	for len(s) > 0 {
		var part pathPart

		switch {
		case strings.HasPrefix(s, "../"):
			part, s = pathPart{text: "..", parent: true}, s[3:]
			parts = append(parts, part)

			continue

		case s == "..":
			return append(parts, pathPart{text: "..", parent: true}), ""

		case strings.HasPrefix(s, "./"):
			part, s = pathPart{text: ".", this: true}, s[2:]
			parts = append(parts, part)

			continue

		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, `unterminated "["`
			}

			part, s = pathPart{text: s[1:end], literal: true}, s[end+1:]

		default:
			end := strings.IndexAny(s, "./[")
			if end < 0 {
				end = len(s)
			}

			part, s = pathPart{text: s[:end]}, s[end:]
			part.this = part.text == "this"

			if part.text == "" {
				return nil, "empty segment"
			}
		}

		parts = append(parts, part)

		if s == "" {
			break
		}

		if s[0] != '.' && s[0] != '/' {
			return nil, "missing separator"
		}

		s = s[1:]

		if s == "" {
			return nil, "trailing separator"
		}
	}

	return parts, ""
}
