package loader

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ardnew/hbs/log"
	"github.com/ardnew/hbs/pkg"
)

// DefaultRedisPrefix is the key prefix used by [NewRedis].
const DefaultRedisPrefix = "hbs:template:"

// Getter is the subset of a Redis client used by [Redis].
// [*redis.Client], [*redis.ClusterClient], and [*redis.Ring] satisfy it.
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis loads sources stored as string values under Prefix + location.
type Redis struct {
	Client Getter
	Prefix string
	Logger log.Logger
}

// NewRedis returns a loader reading keys with [DefaultRedisPrefix].
func NewRedis(client Getter) *Redis {
	return &Redis{Client: client, Prefix: DefaultRedisPrefix}
}

// Load implements [Loader].
func (r *Redis) Load(ctx context.Context, location string) (Source, error) {
	key := r.Prefix + location

	content, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Source{}, notFound(location)
		}

		r.Logger.ErrorContext(ctx, "redis get failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)

		return Source{}, pkg.ErrReadInput.Wrap(err)
	}

	r.Logger.TraceContext(ctx, "read template",
		slog.String("location", location),
		slog.String("key", key),
		slog.Int("bytes", len(content)),
	)

	return Source{Location: location, Content: content}, nil
}
