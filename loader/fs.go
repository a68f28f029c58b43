package loader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/hbs/log"
	"github.com/ardnew/hbs/pkg"
)

// DefaultSuffix is the file extension appended to locations by [FS] loaders.
const DefaultSuffix = ".hbs"

// FS loads sources from a file system. A location maps to the file
// Prefix + location + Suffix; a location that already ends in Suffix is
// used as is.
type FS struct {
	FS     fs.FS
	Prefix string
	Suffix string
	Logger log.Logger
}

// FSOption configures an [FS] loader.
type FSOption func(*FS)

// WithPrefix sets the directory prepended to locations.
func WithPrefix(prefix string) FSOption {
	return func(l *FS) { l.Prefix = prefix }
}

// WithSuffix sets the extension appended to locations.
func WithSuffix(suffix string) FSOption {
	return func(l *FS) { l.Suffix = suffix }
}

// WithLogger sets the loader's logger.
func WithLogger(logger log.Logger) FSOption {
	return func(l *FS) { l.Logger = logger }
}

// NewFS returns a loader reading from fsys with [DefaultSuffix].
func NewFS(fsys fs.FS, opts ...FSOption) *FS {
	l := &FS{FS: fsys, Suffix: DefaultSuffix}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Dir returns a loader reading from the directory dir.
func Dir(dir string, opts ...FSOption) *FS {
	return NewFS(os.DirFS(dir), opts...)
}

// Resolve returns the file name for location, or an empty string if the
// location would name a file outside of Prefix.
func (l *FS) Resolve(location string) string {
	name := strings.TrimPrefix(location, "/")
	if l.Suffix != "" && !strings.HasSuffix(name, l.Suffix) {
		name += l.Suffix
	}

	if !fs.ValidPath(name) {
		return ""
	}

	if l.Prefix != "" {
		name = path.Join(l.Prefix, name)
	}

	return name
}

// Load implements [Loader].
func (l *FS) Load(ctx context.Context, location string) (Source, error) {
	name := l.Resolve(location)

	if name == "" {
		return Source{}, notFound(location)
	}

	f, err := l.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, notFound(location)
		}

		return Source{}, pkg.ErrReadInput.Wrap(err)
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return Source{}, pkg.ErrReadInput.Wrap(err)
	}

	l.Logger.TraceContext(ctx, "read template",
		slog.String("location", location),
		slog.String("file", name),
		slog.Int("bytes", len(data)),
	)

	return Source{Location: location, Content: string(data)}, nil
}
