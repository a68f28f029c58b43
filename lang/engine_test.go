package lang

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ardnew/hbs/cache"
	"github.com/ardnew/hbs/loader"
)

// countingLoader wraps a map loader and counts loads per location.
func countingLoader(sources map[string]string) (loader.Loader, *atomic.Int64) {
	var n atomic.Int64

	m := loader.NewMap(sources)

	return loader.Func(func(ctx context.Context, location string) (loader.Source, error) {
		n.Add(1)

		return m.Load(ctx, location)
	}), &n
}

func TestEngine_Compile(t *testing.T) {
	l, loads := countingLoader(map[string]string{"page": "Hello, {{name}}!"})
	e := New(WithLoader(l))

	a, err := e.Compile(context.Background(), "page")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	b, err := e.Compile(context.Background(), "page")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if a != b {
		t.Error("expected the cached template")
	}

	if a.Name != "page" {
		t.Errorf("expected name %q, got %q", "page", a.Name)
	}

	if n := loads.Load(); n != 1 {
		t.Errorf("expected 1 load, got %d", n)
	}

	e.Evict("page")

	if _, err := e.Compile(context.Background(), "page"); err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if n := loads.Load(); n != 2 {
		t.Errorf("expected reload after evict, got %d loads", n)
	}
}

func TestEngine_CompileNotFound(t *testing.T) {
	e := New(WithLoader(loader.NewMap(nil)))

	_, err := e.Compile(context.Background(), "nope")
	if !errors.Is(err, ErrPartialNotFound) {
		t.Errorf("expected ErrPartialNotFound, got %v", err)
	}

	if !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("expected loader.ErrNotFound in chain, got %v", err)
	}

	_, err = New().Compile(context.Background(), "nope")
	if !errors.Is(err, ErrPartialNotFound) {
		t.Errorf("expected ErrPartialNotFound without loader, got %v", err)
	}
}

func TestEngine_CompileErrorNotCached(t *testing.T) {
	m := loader.NewMap(map[string]string{"page": "{{#if x}}"})
	e := New(WithLoader(m))

	if _, err := e.Compile(context.Background(), "page"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}

	m.Set("page", "{{#if x}}ok{{/if}}")

	if _, err := e.Compile(context.Background(), "page"); err != nil {
		t.Errorf("expected fixed source to compile, got %v", err)
	}
}

func TestEngine_Execute(t *testing.T) {
	l := loader.NewMap(map[string]string{
		"page":   "<{{> header}}|{{body}}>",
		"header": "{{title}}",
	})
	e := New(WithLoader(l))

	var buf bytes.Buffer

	err := e.Execute(context.Background(), &buf, "page", map[string]any{"title": "T", "body": "B"})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	if got := buf.String(); got != "<T|B>" {
		t.Errorf("expected %q, got %q", "<T|B>", got)
	}
}

func TestEngine_PartialsPreferRegistered(t *testing.T) {
	e := newEngine(t, map[string]string{"p": "registered"},
		WithLoader(loader.NewMap(map[string]string{"p": "loaded", "q": "loaded q"})))

	got, err := renderString(t, e, "{{> p}} {{> q}}", nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	if got != "registered loaded q" {
		t.Errorf("expected %q, got %q", "registered loaded q", got)
	}
}

func TestEngine_CompileInline(t *testing.T) {
	e := New()

	a, err := e.CompileInline(context.Background(), "{{x}}")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	b, _ := e.CompileInline(context.Background(), "{{x}}")
	if a != b {
		t.Error("expected the cached template")
	}

	// A location of the same text does not collide with inline source.
	e = New(WithLoader(loader.NewMap(map[string]string{"{{x}}": "loaded"})))

	c, err := e.Compile(context.Background(), "{{x}}")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	d, _ := e.CompileInline(context.Background(), "{{x}}")
	if c == d {
		t.Error("expected distinct templates")
	}
}

func TestEngine_NullCache(t *testing.T) {
	l, loads := countingLoader(map[string]string{"page": "x"})
	e := New(WithLoader(l), WithCache(cache.Null[*Template]{}))

	for range 3 {
		if _, err := e.Compile(context.Background(), "page"); err != nil {
			t.Fatalf("compile error: %v", err)
		}
	}

	if n := loads.Load(); n != 3 {
		t.Errorf("expected 3 loads, got %d", n)
	}
}

func TestEngine_Registry(t *testing.T) {
	e := New(WithHelpers(map[string]Helper{
		"zeta":  HelperFunc(func(any, *Options) (any, error) { return nil, nil }),
		"alpha": HelperFunc(func(any, *Options) (any, error) { return nil, nil }),
	}))

	helpers := e.Helpers()
	if !slices.IsSorted(helpers) {
		t.Errorf("expected sorted helpers, got %v", helpers)
	}

	for _, name := range []string{"alpha", "each", "if", "zeta"} {
		if !slices.Contains(helpers, name) {
			t.Errorf("expected helper %q in %v", name, helpers)
		}
	}

	for _, name := range []string{"b", "a"} {
		if err := e.RegisterPartial(context.Background(), name, name); err != nil {
			t.Fatalf("partial %q: %v", name, err)
		}
	}

	if got := strings.Join(e.Partials(), ","); got != "a,b" {
		t.Errorf("expected a,b, got %s", got)
	}

	if err := e.RegisterPartial(context.Background(), "bad", "{{/x}}"); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}

	if slices.Contains(e.Partials(), "bad") {
		t.Error("expected invalid partial to stay unregistered")
	}
}

func TestEngine_ReplaceHelper(t *testing.T) {
	e := New()

	e.RegisterHelper("if", HelperFunc(func(any, *Options) (any, error) { return "replaced", nil }))

	got, err := renderString(t, e, "{{if true}}", nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	if got != "replaced" {
		t.Errorf("expected %q, got %q", "replaced", got)
	}
}

func TestEngine_RenderContext(t *testing.T) {
	e := New()
	c := NewContext(map[string]any{"a": 1}).Push(map[string]any{"b": 2}, nil)

	got, err := renderString(t, e, "{{b}}{{../a}}", c)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	if got != "21" {
		t.Errorf("expected %q, got %q", "21", got)
	}
}

func TestEngine_Concurrent(t *testing.T) {
	l, loads := countingLoader(map[string]string{
		"page": "{{#each items}}{{> item}}{{/each}}",
		"item": "[{{this}}]",
	})
	e := New(WithLoader(l))

	model := map[string]any{"items": []int{1, 2, 3}}

	var wg sync.WaitGroup

	errs := make(chan error, 32)

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var buf bytes.Buffer
			if err := e.Execute(context.Background(), &buf, "page", model); err != nil {
				errs <- err

				return
			}

			if buf.String() != "[1][2][3]" {
				errs <- errors.New("unexpected output " + buf.String())
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if n := loads.Load(); n != 2 {
		t.Errorf("expected each source loaded once, got %d loads", n)
	}
}
