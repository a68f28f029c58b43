package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/hbs/loader"
	"github.com/ardnew/hbs/log"
	"github.com/ardnew/hbs/resolver"
)

// DefaultMaxDepth is the default limit of nested partial calls.
const DefaultMaxDepth = 100

// Engine compiles and renders templates.
//
// An Engine holds the helper and partial registries, the source loader, the
// compiled-template cache, and rendering options. It is safe for concurrent
// use; helpers and partials may be registered while other goroutines render.
type Engine struct {
	start     string
	end       string
	escaper   Escaper
	helpers   map[string]Helper
	partials  map[string]*Template
	loader    loader.Loader
	cache     TemplateCache
	resolvers []resolver.Resolver
	missing   Helper
	maxDepth  int
	logger    log.Logger

	failOnMissingPartial bool

	mu sync.RWMutex
}

// Option configures an [Engine].
type Option func(*Engine)

// New returns an engine with the built-in helpers registered and the given
// options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		start:                DefaultStartDelimiter,
		end:                  DefaultEndDelimiter,
		escaper:              HTML,
		helpers:              Builtins(),
		partials:             make(map[string]*Template),
		maxDepth:             DefaultMaxDepth,
		failOnMissingPartial: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = DefaultCache()
	}

	if len(e.resolvers) == 0 {
		e.resolvers = resolver.Defaults()
	}

	return e
}

// WithDelimiters sets the initial delimiters of compiled templates.
// Empty values keep the defaults.
func WithDelimiters(start, end string) Option {
	return func(e *Engine) {
		if start != "" && end != "" {
			e.start, e.end = start, end
		}
	}
}

// WithEscaper sets the escaper applied by escaped variable tags.
func WithEscaper(esc Escaper) Option {
	return func(e *Engine) {
		if esc != nil {
			e.escaper = esc
		}
	}
}

// WithHelper registers a helper.
func WithHelper(name string, h Helper) Option {
	return func(e *Engine) { e.helpers[name] = h }
}

// WithHelpers registers a set of helpers.
func WithHelpers(helpers map[string]Helper) Option {
	return func(e *Engine) { maps.Copy(e.helpers, helpers) }
}

// WithPartial registers a compiled partial.
func WithPartial(name string, t *Template) Option {
	return func(e *Engine) { e.partials[name] = t }
}

// WithLoader sets the loader used for templates and partials that are not
// registered.
func WithLoader(l loader.Loader) Option {
	return func(e *Engine) { e.loader = l }
}

// WithCache sets the cache of templates compiled from the loader.
func WithCache(c TemplateCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithResolvers sets the resolvers of the root scope.
func WithResolvers(r ...resolver.Resolver) Option {
	return func(e *Engine) { e.resolvers = r }
}

// WithMissing sets the hook invoked for calls naming no helper and for
// unresolved references. By default such calls render nothing.
func WithMissing(h Helper) Option {
	return func(e *Engine) { e.missing = h }
}

// WithFailOnMissingPartial sets whether a missing partial aborts the render
// with [ErrPartialNotFound]. Otherwise it renders nothing.
func WithFailOnMissingPartial(fail bool) Option {
	return func(e *Engine) { e.failOnMissingPartial = fail }
}

// WithMaxDepth limits the nesting of partial calls.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Logger returns the engine logger.
func (e *Engine) Logger() log.Logger { return e.logger }

// Parse compiles source with the engine's delimiters.
// The template is not cached.
func (e *Engine) Parse(ctx context.Context, name, source string) (*Template, error) {
	return parse(ctx, e.logger, source, name, e.start, e.end)
}

// ParseReader reads source from r and compiles it like [Engine.Parse].
func (e *Engine) ParseReader(ctx context.Context, name string, r io.Reader) (*Template, error) {
	source, err := readSource(r, name)
	if err != nil {
		return nil, err
	}

	return e.Parse(ctx, name, source)
}

// Delimiters returns the initial delimiters of compiled templates.
func (e *Engine) Delimiters() (start, end string) { return e.start, e.end }

// CompileInline compiles source with the engine's delimiters, caching the
// result by its content.
func (e *Engine) CompileInline(ctx context.Context, source string) (*Template, error) {
	key := cacheKey("inline:"+source, e.start, e.end)

	return e.cache.Get(key, func() (*Template, error) {
		return e.Parse(ctx, "", source)
	})
}

// Compile loads and compiles the template at location through the cache.
func (e *Engine) Compile(ctx context.Context, location string) (*Template, error) {
	if e.loader == nil {
		return nil, ErrPartialNotFound.
			Wrap(loader.ErrNotFound).
			With(slog.String("location", location))
	}

	key := cacheKey(location, e.start, e.end)

	return e.cache.Get(key, func() (*Template, error) {
		src, err := e.loader.Load(ctx, location)
		if err != nil {
			if errors.Is(err, loader.ErrNotFound) {
				return nil, ErrPartialNotFound.Wrap(err).
					With(slog.String("location", location))
			}

			return nil, err
		}

		e.logger.TraceContext(ctx, "compile",
			slog.String("location", src.Location),
			slog.String("key", key),
		)

		name := src.Location
		if name == "" {
			name = location
		}

		return e.Parse(ctx, name, src.Content)
	})
}

// Evict removes the compiled template for location from the cache.
func (e *Engine) Evict(location string) {
	e.cache.Evict(cacheKey(location, e.start, e.end))
}

// RegisterHelper registers a helper, replacing any of the same name.
func (e *Engine) RegisterHelper(name string, h Helper) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.helpers[name] = h
}

// RegisterPartial compiles source and registers it as a partial.
func (e *Engine) RegisterPartial(ctx context.Context, name, source string) error {
	t, err := e.Parse(ctx, name, source)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.partials[name] = t

	return nil
}

// Helpers returns the names of the registered helpers in sorted order.
func (e *Engine) Helpers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Sorted(maps.Keys(e.helpers))
}

// Partials returns the names of the registered partials in sorted order.
func (e *Engine) Partials() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Sorted(maps.Keys(e.partials))
}

func (e *Engine) helper(name string) (Helper, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h, ok := e.helpers[name]

	return h, ok
}

// partial returns a registered partial or compiles one from the loader.
func (e *Engine) partial(ctx context.Context, name string) (*Template, error) {
	e.mu.RLock()
	t, ok := e.partials[name]
	e.mu.RUnlock()

	if ok {
		return t, nil
	}

	return e.Compile(ctx, name)
}

// Render applies t to model and writes the output to w.
//
// A model of type [*Context] is used as the root scope as is. Output written
// before an error is not retracted; callers wanting all-or-nothing output
// should render into a buffer.
func (e *Engine) Render(ctx context.Context, w io.Writer, t *Template, model any) error {
	c, ok := model.(*Context)
	if !ok {
		c = NewContext(model, e.resolvers...)
	}

	r := &renderer{
		engine:  e,
		ctx:     ctx,
		tmpl:    t,
		w:       w,
		escaper: e.escaper,
	}

	e.logger.TraceContext(ctx, "render", templateAttr(t), slog.String("model", typeName(c.Model())))

	if err := r.render(c, t.Nodes); err != nil {
		e.logger.DebugContext(ctx, "render failed", templateAttr(t), slog.Any("error", err))

		return err
	}

	return nil
}

// RenderString applies t to model and returns the output.
func (e *Engine) RenderString(ctx context.Context, t *Template, model any) (string, error) {
	var sb strings.Builder

	if err := e.Render(ctx, &sb, t, model); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Execute compiles the template at location and renders it.
func (e *Engine) Execute(ctx context.Context, w io.Writer, location string, model any) error {
	t, err := e.Compile(ctx, location)
	if err != nil {
		return err
	}

	return e.Render(ctx, w, t, model)
}
