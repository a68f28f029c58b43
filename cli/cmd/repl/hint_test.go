package repl

import (
	"strings"
	"testing"
)

func TestDetectCall(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  tagCall
	}{
		{"outside tag", "Hello ", tagCall{}},
		{"closed tag", "{{name}} ", tagCall{}},
		{"on name", "{{#if", tagCall{name: "if", argIndex: -1, inTag: true}},
		{"first arg", "{{#if ", tagCall{name: "if", argIndex: 0, inTag: true}},
		{"typing first arg", "{{#if ok", tagCall{name: "if", argIndex: 0, inTag: true}},
		{"second arg", "{{#if ok ", tagCall{name: "if", argIndex: 1, inTag: true}},
		{"quoted space", `{{log "a b" `, tagCall{name: "log", argIndex: 1, inTag: true}},
		{"sub-expression", "{{#if (eq a ", tagCall{name: "eq", argIndex: 1, inTag: true}},
		{"closed sub-expression", "{{#if (eq a b) ", tagCall{name: "if", argIndex: 1, inTag: true}},
		{"unescaped", "{{{lookup obj ", tagCall{name: "lookup", argIndex: 1, inTag: true}},
		{"empty tag", "{{", tagCall{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectCall(tt.input, len(tt.input), "{{", "}}")
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDetectCall_Delimiters(t *testing.T) {
	got := detectCall("<%each items ", 13, "<%", "%>")
	if got.name != "each" || got.argIndex != 1 {
		t.Errorf("unexpected call %+v", got)
	}
}

func TestUsage(t *testing.T) {
	helpers := []string{"each", "if", "shout"}

	if u, ok := usage("if", helpers); !ok || u[0] != "condition" {
		t.Errorf("expected built-in usage, got %v", u)
	}

	if u, ok := usage("shout", helpers); !ok || len(u) != len(genericUsage) {
		t.Errorf("expected generic usage, got %v", u)
	}

	if _, ok := usage("name", helpers); ok {
		t.Error("expected no usage for a data path")
	}
}

func TestRenderHint(t *testing.T) {
	hint := renderHint("lookup", builtinUsage["lookup"], 1)

	for _, s := range []string{"lookup", "object", "key"} {
		if !strings.Contains(hint, s) {
			t.Errorf("expected %q in hint %q", s, hint)
		}
	}

	// Past the end of a variadic list the last argument stays current.
	if got, want := renderHint("and", builtinUsage["and"], 4),
		renderHint("and", builtinUsage["and"], 0); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
