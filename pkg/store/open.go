package store

import (
	"context"
	"time"

	"smelty/pkg/cache"
	"smelty/pkg/surreal"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DriverSQLite  = "sqlite"
	DriverSurreal = "surreal"
)

// Options selects and configures a backend.
type Options struct {
	Driver  string
	Path    string
	Surreal surreal.Config

	// RedisURL enables the preference cache when set.
	RedisURL    string
	CachePrefix string
	CacheTTL    time.Duration
}

// Open builds the configured backend, wrapped with the redis cache when
// RedisURL is set. An unreachable redis is logged and skipped.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		backend Store
		err     error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		backend, err = OpenSQLite(opts.Path)
	case DriverSurreal:
		var client *surreal.Client
		client, err = surreal.NewClient(ctx, opts.Surreal)
		if err == nil {
			backend, err = NewSurrealStore(ctx, client)
			if err != nil {
				client.Close()
			}
		}
	default:
		return nil, errors.Errorf("unknown storage driver: %q", opts.Driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s store", opts.Driver)
	}
	logger.Info("store opened", zap.String("driver", opts.Driver))

	if opts.RedisURL == "" {
		return backend, nil
	}
	c, err := cache.NewRedisCache(opts.RedisURL, opts.CachePrefix)
	if err != nil {
		logger.Warn("redis unavailable, preferences will not be cached", zap.Error(err))
		return backend, nil
	}
	logger.Info("preference cache enabled", zap.Duration("ttl", opts.CacheTTL))
	return NewCachedStore(backend, c, opts.CacheTTL, logger), nil
}
