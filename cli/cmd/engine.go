package cmd

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ardnew/hbs/cache"
	"github.com/ardnew/hbs/helper/celhelper"
	"github.com/ardnew/hbs/helper/exprhelper"
	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/loader"
	"github.com/ardnew/hbs/log"
)

// Engine holds the flags that configure the template engine. Its defaults
// come from HBS_* environment variables.
type Engine struct {
	Delims      string            `default:"${delims}"      help:"Start and end delimiters, separated by a space."                placeholder:"'{{ }}'"`
	Escape      string            `default:"${escape}"      help:"Escaper applied by {{var}} tags."        enum:"html,xml,js,csv,none"                       short:"e"`
	Partials    []string          `default:"${partials}"    help:"Directories searched for partials."                                 placeholder:"DIR"      short:"P" type:"path"`
	Suffix      string            `default:"${suffix}"      help:"File extension of partials."`
	RedisURL    string            `default:"${redisURL}"    help:"Redis URL of a partial store, searched after directories." name:"redis-url"`
	RedisPrefix string            `default:"${redisPrefix}" help:"Key prefix of partials in Redis."`
	MaxDepth    int               `default:"${maxDepth}"    help:"Maximum depth of nested partials."`
	CacheSize   int               `default:"${cacheSize}"   help:"Maximum number of compiled partials kept (0 is unbounded)."`
	Strict      bool              `default:"true"           help:"Fail on missing partials."                                                                             negatable:""`
	Expr        map[string]string `                         help:"Define a helper as an expr-lang program."                          mapsep:"none" placeholder:"NAME=PROGRAM"`
	CEL         map[string]string `                         help:"Define a helper as a CEL program."                                 mapsep:"none" placeholder:"NAME=PROGRAM" name:"cel"`
}

// delimiters splits Delims into start and end delimiters.
func (e *Engine) delimiters() (start, end string, err error) {
	if strings.TrimSpace(e.Delims) == "" {
		return "", "", nil
	}

	f := strings.Fields(e.Delims)
	if len(f) != 2 {
		return "", "", ErrDelimiters.With(slog.String("delims", e.Delims))
	}

	return f[0], f[1], nil
}

// helpers compiles the scripting helpers. CEL definitions replace expr-lang
// definitions of the same name.
func (e *Engine) helpers() (map[string]lang.Helper, error) {
	helpers, err := exprhelper.Compile(e.Expr)
	if err != nil {
		return nil, ErrHelpers.Wrap(err).With(slog.String("language", "expr"))
	}

	cel, err := celhelper.Compile(e.CEL)
	if err != nil {
		return nil, ErrHelpers.Wrap(err).With(slog.String("language", "cel"))
	}

	maps.Copy(helpers, cel)

	return helpers, nil
}

// loader returns the partial loader: each directory in order, then Redis.
// It returns nil when no source is configured.
func (e *Engine) loader(ctx context.Context, logger log.Logger) (loader.Loader, func() error, error) {
	var (
		loaders []loader.Loader
		closers []func() error
	)

	for _, dir := range e.Partials {
		loaders = append(loaders, loader.Dir(dir,
			loader.WithSuffix(e.Suffix),
			loader.WithLogger(logger),
		))
	}

	if e.RedisURL != "" {
		opts, err := redis.ParseURL(e.RedisURL)
		if err != nil {
			return nil, nil, ErrRedis.Wrap(err)
		}

		client := redis.NewClient(opts)

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, nil, ErrRedis.Wrap(err).With(slog.String("addr", opts.Addr))
		}

		loaders = append(loaders, &loader.Redis{
			Client: client,
			Prefix: e.RedisPrefix,
			Logger: logger,
		})
		closers = append(closers, client.Close)
	}

	closeAll := func() error {
		for _, c := range closers {
			if err := c(); err != nil {
				return err
			}
		}

		return nil
	}

	switch len(loaders) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return loaders[0], closeAll, nil
	default:
		c := loader.NewComposite(loaders...)
		c.Logger = logger

		return c, closeAll, nil
	}
}

// Build returns a template engine configured by the flags, and a function
// releasing its connections.
func (e *Engine) Build(ctx context.Context, opts ...lang.Option) (*lang.Engine, func() error, error) {
	start, end, err := e.delimiters()
	if err != nil {
		return nil, nil, err
	}

	esc, ok := lang.ParseEscaper(e.Escape)
	if !ok && e.Escape != "" {
		return nil, nil, ErrEscaper.With(slog.String("escape", e.Escape))
	}

	helpers, err := e.helpers()
	if err != nil {
		return nil, nil, err
	}

	logger := log.Default()

	l, closer, err := e.loader(ctx, logger)
	if err != nil {
		return nil, nil, err
	}

	var tc lang.TemplateCache
	if e.CacheSize > 0 {
		tc = cache.NewLRU[*lang.Template](cache.LRUConfig{MaxSize: e.CacheSize})
	}

	base := []lang.Option{
		lang.WithDelimiters(start, end),
		lang.WithEscaper(esc),
		lang.WithHelpers(helpers),
		lang.WithLoader(l),
		lang.WithCache(tc),
		lang.WithMaxDepth(e.MaxDepth),
		lang.WithFailOnMissingPartial(e.Strict),
		lang.WithLogger(logger),
	}

	log.DebugContext(ctx, "engine configured",
		slog.String("delims", start+" "+end),
		slog.String("escape", e.Escape),
		slog.Any("partials", e.Partials),
		slog.Bool("redis", e.RedisURL != ""),
		slog.Int("helpers", len(helpers)),
	)

	return lang.New(append(base, opts...)...), closer, nil
}
