package cmd

import (
	"context"

	"github.com/ardnew/hbs/cli/cmd/repl"
	"github.com/ardnew/hbs/log"
)

// Repl starts an interactive session rendering template lines against the
// data read from the --data sources.
type Repl struct {
	Set map[string]string `help:"Set a data value by dotted path (parsed as YAML)." placeholder:"PATH=VALUE" short:"s"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, cfg *Engine) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs := dataSourcesFrom(ctx)

	for _, src := range srcs {
		if src.IsStdin() {
			return ErrStdinRepl
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

	model, err := LoadModel(ctx, srcs, r.Set)
	if err != nil {
		return err
	}

	cacheDir := kongContextFrom(ctx).Model.Vars()[CacheIdentifier]

	return repl.Run(ctx, e, model, cacheDir, log.Default())
}
