package lang

import (
	"errors"
	"testing"

	"github.com/ardnew/hbs/resolver"
)

func TestCompilePath(t *testing.T) {
	tests := []struct {
		path   string
		parts  []string
		depth  int
		data   bool
		this   bool
		simple bool
	}{
		{path: "a", parts: []string{"a"}, simple: true},
		{path: "a.b", parts: []string{"a", "b"}},
		{path: "a/b", parts: []string{"a", "b"}},
		{path: "this", this: true},
		{path: ".", this: true},
		{path: "this.a", parts: []string{"a"}, this: true},
		{path: "./a", parts: []string{"a"}, this: true},
		{path: "../a", parts: []string{"a"}, depth: 1},
		{path: "../../a.b", parts: []string{"a", "b"}, depth: 2},
		{path: "..", depth: 1},
		{path: "../this", depth: 1, this: true},
		{path: "@index", parts: []string{"index"}, data: true},
		{path: "@root.a", parts: []string{"root", "a"}, data: true},
		{path: "@../index", parts: []string{"index"}, depth: 1, data: true},
		{path: "../@index", parts: []string{"index"}, depth: 1, data: true},
		{path: "[a.b].c", parts: []string{"a.b", "c"}},
		{path: "a.[0]", parts: []string{"a", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := CompilePath(tt.path)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			if len(p.Parts) != len(tt.parts) {
				t.Fatalf("expected parts %v, got %v", tt.parts, p.Parts)
			}

			for i := range tt.parts {
				if p.Parts[i] != tt.parts[i] {
					t.Errorf("expected parts %v, got %v", tt.parts, p.Parts)
				}
			}

			if p.Depth != tt.depth || p.Data != tt.data || p.This != tt.this {
				t.Errorf("expected depth=%d data=%t this=%t, got depth=%d data=%t this=%t",
					tt.depth, tt.data, tt.this, p.Depth, p.Data, p.This)
			}

			if p.Simple() != tt.simple {
				t.Errorf("expected simple=%t, got %t", tt.simple, p.Simple())
			}
		})
	}
}

func TestCompilePath_Errors(t *testing.T) {
	for _, path := range []string{"", "a/../b", "a.this", "a..b", "a.", "[a", "@", "a[b]"} {
		t.Run(path, func(t *testing.T) {
			if _, err := CompilePath(path); !errors.Is(err, ErrPath) {
				t.Errorf("expected ErrPath, got %v", err)
			}
		})
	}
}

func TestCompilePath_Cached(t *testing.T) {
	a, err := CompilePath("cached.path")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	b, _ := CompilePath("cached.path")
	if a != b {
		t.Error("expected the same compiled path")
	}
}

func TestContext_Lookup(t *testing.T) {
	root := NewContext(map[string]any{
		"a":     map[string]any{"b": 1},
		"title": "root",
		"list":  []any{"x", "y"},
	})
	child := root.Push(map[string]any{"name": "child"}, map[string]any{"index": 3, "@key": "k"})

	tests := []struct {
		path string
		want any
	}{
		{"a.b", 1},
		{"a.c", nil},
		{"name", "child"},
		{"title", "root"},
		{"this.title", nil},
		{"../title", "root"},
		{"list.1", "y"},
		{"list.length", 2},
		{"@index", 3},
		{"@key", "k"},
		{"@root.title", "root"},
		{"@missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := child.Lookup(tt.path)
			if err != nil {
				t.Fatalf("lookup error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestContext_OverClimb(t *testing.T) {
	root := NewContext(map[string]any{"a": 1})
	child := root.Push(nil, nil)

	if _, err := child.Lookup("../a"); err != nil {
		t.Errorf("expected one level to resolve, got %v", err)
	}

	if _, err := child.Lookup("../../a"); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath, got %v", err)
	}

	if got := child.Get("../../a"); got != nil {
		t.Errorf("expected nil from Get, got %v", got)
	}
}

func TestContext_Resolvers(t *testing.T) {
	type item struct{ Name string }

	// Only the map resolver: struct fields are invisible.
	c := NewContext(map[string]any{"it": item{Name: "n"}}, resolver.Map{})

	if got := c.Get("it.Name"); got != nil {
		t.Errorf("expected unresolved field, got %v", got)
	}

	c = NewContext(map[string]any{"it": item{Name: "n"}})
	if got := c.Get("it.name"); got != "n" {
		t.Errorf("expected n, got %v", got)
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{0, false},
		{int64(0), false},
		{uint8(0), false},
		{0.0, false},
		{1, true},
		{-1.5, true},
		{[]int{}, false},
		{[]int{0}, true},
		{map[string]any{}, false},
		{map[string]any{"a": 1}, true},
		{struct{}{}, true},
		{(*int)(nil), false},
	}

	for _, tt := range tests {
		if got := IsTruthy(tt.value); got != tt.want {
			t.Errorf("IsTruthy(%#v): expected %t, got %t", tt.value, tt.want, got)
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"s", "s"},
		{SafeString("<b>"), "<b>"},
		{42, "42"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{2.0, "2"},
		{true, "true"},
		{[]any{"a", 1, true}, "a,1,true"},
		{[]byte("raw"), "raw"},
		{errors.New("e"), "e"},
	}

	for _, tt := range tests {
		if got := Stringify(tt.value); got != tt.want {
			t.Errorf("Stringify(%#v): expected %q, got %q", tt.value, tt.want, got)
		}
	}
}
