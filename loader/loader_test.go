package loader

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/redis/go-redis/v9"

	"github.com/ardnew/hbs/pkg"
)

func TestFS_Load(t *testing.T) {
	fsys := fstest.MapFS{
		"views/page.hbs":           {Data: []byte("<p>{{title}}</p>")},
		"views/partials/nav.hbs":   {Data: []byte("<nav/>")},
		"views/plain.txt":          {Data: []byte("plain")},
		"views/partials/empty.hbs": {Data: nil},
	}

	l := NewFS(fsys, WithPrefix("views"))

	tests := []struct {
		location string
		want     string
		notFound bool
	}{
		{"page", "<p>{{title}}</p>", false},
		{"page.hbs", "<p>{{title}}</p>", false},
		{"partials/nav", "<nav/>", false},
		{"/partials/nav", "<nav/>", false},
		{"partials/empty", "", false},
		{"missing", "", true},
		{"../secret", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			src, err := l.Load(context.Background(), tt.location)

			if tt.notFound {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if src.Content != tt.want || src.Location != tt.location {
				t.Errorf("expected %q from %q, got %q from %q",
					tt.want, tt.location, src.Content, src.Location)
			}
		})
	}
}

func TestFS_Resolve_CustomSuffix(t *testing.T) {
	l := NewFS(fstest.MapFS{}, WithSuffix(".mustache"), WithPrefix("t"))

	if got := l.Resolve("a/b"); got != "t/a/b.mustache" {
		t.Errorf("expected t/a/b.mustache, got %s", got)
	}
}

func TestMap_Load(t *testing.T) {
	m := NewMap(map[string]string{"a": "A"})
	m.Set("b", "B")
	m.Delete("a")

	if _, err := m.Load(context.Background(), "a"); !pkg.IsNotFound(err) {
		t.Errorf("expected not found for deleted location, got %v", err)
	}

	src, err := m.Load(context.Background(), "b")
	if err != nil || src.Content != "B" {
		t.Errorf("expected B, got %q (%v)", src.Content, err)
	}
}

func TestComposite_Load(t *testing.T) {
	boom := errors.New("boom")

	first := NewMap(map[string]string{"a": "first"})
	second := NewMap(map[string]string{"a": "second", "b": "second"})
	failing := Func(func(context.Context, string) (Source, error) {
		return Source{}, boom
	})

	tests := []struct {
		name    string
		loaders []Loader
		loc     string
		want    string
		wantErr error
	}{
		{"first wins", []Loader{first, second}, "a", "first", nil},
		{"falls through", []Loader{first, second}, "b", "second", nil},
		{"none", []Loader{first, second}, "c", "", ErrNotFound},
		{"failure stops", []Loader{failing, second}, "b", "", boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewComposite(tt.loaders...).Load(context.Background(), tt.loc)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil || src.Content != tt.want {
				t.Errorf("expected %q, got %q (%v)", tt.want, src.Content, err)
			}
		})
	}
}

// fakeRedis serves GET from a map.
type fakeRedis struct {
	values map[string]string
	err    error
}

func (f fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)

	switch v, ok := f.values[key]; {
	case f.err != nil:
		cmd.SetErr(f.err)
	case !ok:
		cmd.SetErr(redis.Nil)
	default:
		cmd.SetVal(v)
	}

	return cmd
}

func TestRedis_Load(t *testing.T) {
	ctx := context.Background()

	r := NewRedis(fakeRedis{values: map[string]string{
		DefaultRedisPrefix + "email/welcome": "Hi {{name}}",
	}})

	src, err := r.Load(ctx, "email/welcome")
	if err != nil || src.Content != "Hi {{name}}" {
		t.Errorf("expected template content, got %q (%v)", src.Content, err)
	}

	if _, err := r.Load(ctx, "email/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	down := NewRedis(fakeRedis{err: errors.New("connection refused")})
	if _, err := down.Load(ctx, "x"); !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("expected ErrReadInput, got %v", err)
	}
}
