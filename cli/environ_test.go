package cli

import (
	"errors"
	"testing"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/loader"
	"github.com/ardnew/hbs/pkg"
)

func TestLoadEnviron_Defaults(t *testing.T) {
	e, err := loadEnviron(map[string]string{})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	vars := e.vars()

	want := map[string]string{
		"delims":      "{{ }}",
		"escape":      "html",
		"partials":    "",
		"suffix":      loader.DefaultSuffix,
		"redisPrefix": loader.DefaultRedisPrefix,
		"maxDepth":    "100",
	}

	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, vars[k])
		}
	}

	if e.MaxDepth != lang.DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", lang.DefaultMaxDepth, e.MaxDepth)
	}
}

func TestLoadEnviron_Overrides(t *testing.T) {
	e, err := loadEnviron(map[string]string{
		"HBS_DELIMS":     "<% %>",
		"HBS_PARTIALS":   "/a:/b",
		"HBS_MAX_DEPTH":  "5",
		"HBS_REDIS_URL":  "redis://localhost:6379/0",
		"DELIMS":         "ignored",
		"HBS_CACHE_SIZE": "0",
	})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	vars := e.vars()

	if vars["delims"] != "<% %>" || vars["partials"] != "/a,/b" || vars["maxDepth"] != "5" {
		t.Errorf("unexpected vars %v", vars)
	}

	if vars["redisURL"] != "redis://localhost:6379/0" || vars["cacheSize"] != "0" {
		t.Errorf("unexpected vars %v", vars)
	}
}

func TestLoadEnviron_Invalid(t *testing.T) {
	_, err := loadEnviron(map[string]string{"HBS_MAX_DEPTH": "deep"})
	if !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestEnvironMap(t *testing.T) {
	m := environMap([]string{"A=1", "B=x=y", "C"})

	if m["A"] != "1" || m["B"] != "x=y" {
		t.Errorf("unexpected map %v", m)
	}

	if _, ok := m["C"]; ok {
		t.Error("expected malformed pair to be skipped")
	}
}
