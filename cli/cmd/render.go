package cmd

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/log"
)

// Render renders a template against data read from the --data sources.
type Render struct {
	Set    map[string]string `help:"Set a data value by dotted path (parsed as YAML)." placeholder:"PATH=VALUE" short:"s"`
	Output string            `default:"-"                                            help:"Output file or '-' for stdout." short:"o"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, cfg *Engine) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs := dataSourcesFrom(ctx)

	if r.Template == stdinSource {
		for _, src := range srcs {
			if src.IsStdin() {
				return ErrStdinConflict
			}
		}
	}

	e, closer, err := cfg.Build(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	tmpl, err := readTemplate(ctx, e, r.Template)
	if err != nil {
		return err
	}

	model, err := LoadModel(ctx, srcs, r.Set)
	if err != nil {
		return err
	}

	return r.write(ctx, e, tmpl, model)
}

// write renders into a buffer so that a failed render leaves no partial
// output file behind.
func (r *Render) write(ctx context.Context, e *lang.Engine, tmpl *lang.Template, model any) error {
	out, err := e.RenderString(ctx, tmpl, model)
	if err != nil {
		return err
	}

	if r.Output == stdinSource {
		if err := writeString(os.Stdout, out); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	} else {
		f, err := os.Create(r.Output)
		if err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("file", r.Output))
		}

		err = writeString(f, out)
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("file", r.Output))
		}
	}

	log.DebugContext(ctx, "rendered",
		slog.String("template", tmpl.Name),
		slog.String("output", r.Output),
		slog.Int("bytes", len(out)),
	)

	return nil
}

// readTemplate compiles the template at path, or from stdin for "-".
func readTemplate(ctx context.Context, e *lang.Engine, path string) (*lang.Template, error) {
	if path == stdinSource {
		return e.ParseReader(ctx, "<stdin>", os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadTemplate.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	return e.ParseReader(ctx, filepath.Base(path), f)
}

// writeString writes s to w through a buffer and flushes it.
func writeString(w io.Writer, s string) error {
	bw := bufio.NewWriter(w)

	if _, err := io.WriteString(bw, s); err != nil {
		return err
	}

	return bw.Flush()
}
