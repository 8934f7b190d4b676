package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	infraredis "github.com/jonesrussell/company-url-collector/infrastructure/redis"
	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/storage"
)

var errNoRedis = errors.New("redis storage backend needs a redis client")

// SetupRedis connects to the configured Redis.
func SetupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client, err := infraredis.NewClient(ctx, cfg.Redis.Config)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return client, nil
}

// SetupStore returns the configured Store.
func SetupStore(cfg config.StorageConfig, client redis.Cmdable, log infralogger.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		if client == nil {
			return nil, errNoRedis
		}
		return storage.NewRedisStore(client, log), nil
	case config.BackendFile, "":
		return storage.NewFileStore(cfg.Dir, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
