package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// names returns the source names in order.
func names(srcs []Source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.Name
	}

	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

// TestWithDataSourcesEmpty tests that an empty path list stores no sources.
func TestWithDataSourcesEmpty(t *testing.T) {
	for _, paths := range [][]string{nil, {}} {
		if srcs := dataSourcesFrom(WithDataSources(context.Background(), paths)); srcs != nil {
			t.Errorf("expected no sources, got %v", names(srcs))
		}
	}
}

// TestWithDataSourcesOrder tests that files keep their command-line order.
func TestWithDataSourcesOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "a: 1")
	b := writeFile(t, dir, "b.yaml", "b: 2")

	srcs := dataSourcesFrom(WithDataSources(context.Background(), []string{b, a}))
	if len(srcs) != 2 || srcs[0].Name != b || srcs[1].Name != a {
		t.Fatalf("expected [%s %s], got %v", b, a, names(srcs))
	}

	data, err := io.ReadAll(srcs[0])
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}

	if string(data) != "b: 2" {
		t.Errorf("expected %q, got %q", "b: 2", string(data))
	}
}

// TestWithDataSourcesDuplicates tests dedup of repeated, relative, and
// symlinked paths to the same file.
func TestWithDataSourcesDuplicates(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "target.json", `{"x":1}`)

	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	srcs := dataSourcesFrom(WithDataSources(context.Background(), []string{
		target, "target.json", link, target,
	}))
	if len(srcs) != 1 || srcs[0].Name != target {
		t.Errorf("expected one source %s, got %v", target, names(srcs))
	}
}

// TestWithDataSourcesStdinLast tests that stdin is collapsed and placed last.
func TestWithDataSourcesStdinLast(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "f.yaml", "f: 1")

	oldStdin := os.Stdin
	defer func() { os.Stdin = oldStdin }()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	os.Stdin = r

	srcs := dataSourcesFrom(WithDataSources(context.Background(), []string{"-", file, "-"}))
	if len(srcs) != 2 || srcs[0].Name != file || !srcs[1].IsStdin() {
		t.Errorf("expected [%s -], got %v", file, names(srcs))
	}
}

// TestWithDataSourcesNonexistent tests that missing files are skipped.
func TestWithDataSourcesNonexistent(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "ok.yaml", "ok: true")

	srcs := dataSourcesFrom(WithDataSources(context.Background(), []string{
		"/nonexistent/a.yaml", file, "/nonexistent/b.yaml",
	}))
	if len(srcs) != 1 || srcs[0].Name != file {
		t.Errorf("expected [%s], got %v", file, names(srcs))
	}

	srcs = dataSourcesFrom(WithDataSources(context.Background(), []string{"/nonexistent/a.yaml"}))
	if srcs != nil {
		t.Errorf("expected no sources, got %v", names(srcs))
	}
}
