package exprhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/pkg"
)

func render(t *testing.T, helpers map[string]lang.Helper, source string, model any) (string, error) {
	t.Helper()

	e := lang.New(lang.WithHelpers(helpers))

	tmpl, err := e.Parse(context.Background(), "test", source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return e.RenderString(context.Background(), tmpl, model)
}

func TestHelper(t *testing.T) {
	helpers, err := Compile(map[string]string{
		"upper": "upper(value)",
		"count": "len(params)",
		"shout": `value + hash.suffix`,
		"big":   "value > 3",
		"first": "params[0]",
		"self":  "this.name",
	})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	model := map[string]any{"name": "ada", "n": 5, "obj": map[string]any{"k": "v"}}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline", "{{upper name}}", "ADA"},
		{"params", `{{count 1 "b" name}}`, "3"},
		{"hash", `{{shout name suffix="!"}}`, "ada!"},
		{"scope", "{{self}}", "ada"},
		{"subexpression", "{{upper (first name)}}", "ADA"},
		{"block true", "{{#big n}}yes{{else}}no{{/big}}", "yes"},
		{"block false", "{{#big 1}}yes{{else}}no{{/big}}", "no"},
		{"block value", "{{#first obj}}{{k}}{{/first}}", "v"},
		{"block falsy value", "{{#first 0}}x{{else}}none{{/first}}", "none"},
		{"escaped result", `{{upper "<b>"}}`, "&lt;B&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, helpers, tt.source, model)
			if err != nil {
				t.Fatalf("render error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNew_CompileError(t *testing.T) {
	if _, err := New("value +"); !errors.Is(err, pkg.ErrCompile) {
		t.Errorf("expected ErrCompile, got %v", err)
	}

	if _, err := Compile(map[string]string{"ok": "1", "bad": "("}); !errors.Is(err, pkg.ErrCompile) {
		t.Errorf("expected ErrCompile, got %v", err)
	}
}

func TestNew_DynamicVariables(t *testing.T) {
	sources := []string{
		"upper(value)",
		"value > 3",
		"len(value)",
		"value == true",
		"this.name",
		"string(value) + hash.suffix",
		`join(params, "-")`,
		"block ? value : nil",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			if _, err := New(src); err != nil {
				t.Errorf("expected %q to compile, got %v", src, err)
			}
		})
	}
}

func TestNew_UndefinedVariable(t *testing.T) {
	if _, err := New("valeu + 1"); !errors.Is(err, pkg.ErrCompile) {
		t.Errorf("expected ErrCompile, got %v", err)
	}
}

func TestMust(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	Must(")")
}

func TestApply_EvaluateError(t *testing.T) {
	h := Must("int(value)")

	_, err := render(t, map[string]lang.Helper{"int": h}, `{{int "abc"}}`, nil)
	if !errors.Is(err, lang.ErrHelper) {
		t.Fatalf("expected ErrHelper, got %v", err)
	}

	if !errors.Is(err, pkg.ErrEvaluate) {
		t.Errorf("expected ErrEvaluate in chain, got %v", err)
	}

	if h.Source() != "int(value)" {
		t.Errorf("expected source, got %q", h.Source())
	}
}
