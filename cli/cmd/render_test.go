package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/hbs/lang"
)

func testEngine(dirs ...string) *Engine {
	return &Engine{
		Delims:   "{{ }}",
		Escape:   "html",
		Partials: dirs,
		Suffix:   ".hbs",
		Strict:   true,
	}
}

func TestRenderRun(t *testing.T) {
	dir := t.TempDir()

	tmpl := writeFile(t, dir, "page.hbs", "{{> header}}{{#each items}}[{{this}}]{{/each}} {{user.name}}")
	writeFile(t, dir, "header.hbs", "<{{title}}>")
	data := writeFile(t, dir, "data.yaml", "title: A&B\nitems: [1, 2]\n")
	out := filepath.Join(dir, "out.txt")

	ctx := WithDataSources(context.Background(), []string{data})

	r := &Render{
		Set:      map[string]string{"user.name": "ada"},
		Output:   out,
		Template: tmpl,
	}

	if err := r.Run(ctx, testEngine(dir)); err != nil {
		t.Fatalf("render error: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if want := "<A&amp;B>[1][2] ada"; string(got) != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderRun_Errors(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.hbs", "{{> missing}}")
	plain := writeFile(t, dir, "plain.hbs", "hi")

	tests := []struct {
		name   string
		render *Render
		engine *Engine
		target error
	}{
		{
			name:   "missing template",
			render: &Render{Output: "-", Template: filepath.Join(dir, "nope.hbs")},
			engine: testEngine(),
			target: ErrReadTemplate,
		},
		{
			name:   "missing partial",
			render: &Render{Output: filepath.Join(dir, "out"), Template: tmpl},
			engine: testEngine(dir),
			target: lang.ErrPartialNotFound,
		},
		{
			name:   "bad delimiters",
			render: &Render{Output: "-", Template: tmpl},
			engine: &Engine{Delims: "{{"},
			target: ErrDelimiters,
		},
		{
			name:   "bad escaper",
			render: &Render{Output: "-", Template: tmpl},
			engine: &Engine{Delims: "{{ }}", Escape: "rot13"},
			target: ErrEscaper,
		},
		{
			name:   "bad helper",
			render: &Render{Output: "-", Template: tmpl},
			engine: &Engine{Delims: "{{ }}", Expr: map[string]string{"h": "value +"}},
			target: ErrHelpers,
		},
		{
			name:   "unwritable output",
			render: &Render{Output: filepath.Join(dir, "no", "such", "dir", "out"), Template: plain},
			engine: testEngine(),
			target: ErrWriteOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.render.Run(context.Background(), tt.engine)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Error("expected no output file after a failed render")
	}
}

func TestRenderRun_StdinConflict(t *testing.T) {
	ctx := context.WithValue(context.Background(), dataSourcesKey{},
		[]Source{{Name: stdinSource, Reader: os.Stdin}})

	err := (&Render{Output: "-", Template: stdinSource}).Run(ctx, testEngine())
	if !errors.Is(err, ErrStdinConflict) {
		t.Errorf("expected ErrStdinConflict, got %v", err)
	}
}

func TestRenderRun_Helpers(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.hbs", `{{upper name}} {{exclaim name}}`)
	out := filepath.Join(dir, "out.txt")

	e := testEngine()
	e.Expr = map[string]string{"upper": "upper(value)"}
	e.CEL = map[string]string{"exclaim": "string(value) + '!'"}

	r := &Render{
		Set:      map[string]string{"name": "ada"},
		Output:   out,
		Template: tmpl,
	}

	if err := r.Run(context.Background(), e); err != nil {
		t.Fatalf("render error: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "ADA ada!" {
		t.Errorf("expected %q, got %q", "ADA ada!", got)
	}
}
