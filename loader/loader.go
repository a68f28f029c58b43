// Package loader provides template source loaders.
//
// A [Loader] maps a location (a partial or template name) to source text.
// Loaders report a missing location with an error matching [ErrNotFound];
// any other error is a failure of the underlying storage.
package loader

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/hbs/log"
	"github.com/ardnew/hbs/pkg"
)

// ErrNotFound is returned when no source exists for a location.
var ErrNotFound = pkg.ErrNotFound

// Source is template source text and the location it was loaded from.
type Source struct {
	Location string
	Content  string
}

// Loader loads template source by location.
type Loader interface {
	Load(ctx context.Context, location string) (Source, error)
}

// Func adapts a function to the [Loader] interface.
type Func func(ctx context.Context, location string) (Source, error)

// Load implements [Loader].
func (f Func) Load(ctx context.Context, location string) (Source, error) {
	return f(ctx, location)
}

// notFound returns an error for a missing location.
func notFound(location string) error {
	return ErrNotFound.Wrapf("location %q", location)
}

// Composite tries each loader in order and returns the first source found.
// Errors other than [ErrNotFound] stop the search.
type Composite struct {
	Loaders []Loader
	Logger  log.Logger
}

// NewComposite returns a loader that consults loaders in order.
func NewComposite(loaders ...Loader) *Composite {
	return &Composite{Loaders: loaders}
}

// Load implements [Loader].
func (c *Composite) Load(ctx context.Context, location string) (Source, error) {
	for i, l := range c.Loaders {
		src, err := l.Load(ctx, location)

		switch {
		case err == nil:
			c.Logger.TraceContext(ctx, "source found",
				slog.String("location", location),
				slog.Int("loader", i),
			)

			return src, nil

		case !errors.Is(err, ErrNotFound):
			return Source{}, err
		}
	}

	return Source{}, notFound(location)
}
