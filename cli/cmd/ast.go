package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/log"
)

// AST prints the syntax tree of a template in the chosen format.
type AST struct {
	Tree Tree `cmd:"" default:"withargs" help:"Print as an indented outline (default)."`
	JSON JSON `cmd:""                    help:"Print as JSON."`
	YAML YAML `cmd:""                    help:"Print as YAML."`
}

// Tree prints a template as an indented outline.
type Tree struct {
	Indent int `default:"2" help:"Indent width for nested nodes" short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the tree command.
func (c *Tree) Run(ctx context.Context, cfg *Engine) error {
	tmpl, err := parseOnly(ctx, cfg, c.Template, "tree")
	if err != nil {
		return err
	}

	return tmpl.Print(os.Stdout, c.Indent)
}

// JSON prints a template as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 is compact)" short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the json command.
func (c *JSON) Run(ctx context.Context, cfg *Engine) error {
	tmpl, err := parseOnly(ctx, cfg, c.Template, "json")
	if err != nil {
		return err
	}

	return tmpl.FormatJSON(ctx, os.Stdout, c.Indent)
}

// YAML prints a template as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 is flow style)" short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the yaml command.
func (c *YAML) Run(ctx context.Context, cfg *Engine) error {
	tmpl, err := parseOnly(ctx, cfg, c.Template, "yaml")
	if err != nil {
		return err
	}

	return tmpl.FormatYAML(ctx, os.Stdout, c.Indent)
}

// parseOnly compiles a template with the configured delimiters. No loader
// is opened: partials are not resolved until render.
func parseOnly(ctx context.Context, cfg *Engine, path, format string) (*lang.Template, error) {
	start, end, err := cfg.delimiters()
	if err != nil {
		return nil, err
	}

	tmpl, err := readTemplate(ctx, lang.New(lang.WithDelimiters(start, end)), path)
	if err != nil {
		return nil, err
	}

	log.TraceContext(ctx, "parsed template", slog.String("format", format),
		slog.Int("nodes", len(tmpl.Nodes)))

	return tmpl, nil
}
