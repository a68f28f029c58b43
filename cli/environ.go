package cli

import (
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/caarlos0/env/v10"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/loader"
	"github.com/ardnew/hbs/pkg"
)

// environ holds the engine defaults read from HBS_* environment variables.
// Flags and the configuration file override them.
type environ struct {
	Delims      string   `env:"DELIMS"`
	Escape      string   `env:"ESCAPE"`
	Partials    []string `env:"PARTIALS"     envSeparator:":"`
	Suffix      string   `env:"SUFFIX"`
	RedisURL    string   `env:"REDIS_URL"`
	RedisPrefix string   `env:"REDIS_PREFIX"`
	MaxDepth    int      `env:"MAX_DEPTH"`
	CacheSize   int      `env:"CACHE_SIZE"`
}

// loadEnviron returns the built-in defaults overridden by the environment.
func loadEnviron(environment map[string]string) (environ, error) {
	e := environ{
		Delims:      lang.DefaultStartDelimiter + " " + lang.DefaultEndDelimiter,
		Escape:      "html",
		Suffix:      loader.DefaultSuffix,
		RedisPrefix: loader.DefaultRedisPrefix,
		MaxDepth:    lang.DefaultMaxDepth,
		CacheSize:   256,
	}

	err := env.ParseWithOptions(&e, env.Options{
		Prefix:      pkg.EnvPrefix,
		Environment: environment,
	})
	if err != nil {
		return environ{}, pkg.ErrInvalidFormat.Wrapf("environment").Wrap(err)
	}

	return e, nil
}

func (e environ) vars() kong.Vars {
	return kong.Vars{
		"delims":      e.Delims,
		"escape":      e.Escape,
		"partials":    strings.Join(e.Partials, ","),
		"suffix":      e.Suffix,
		"redisURL":    e.RedisURL,
		"redisPrefix": e.RedisPrefix,
		"maxDepth":    strconv.Itoa(e.MaxDepth),
		"cacheSize":   strconv.Itoa(e.CacheSize),
	}
}
