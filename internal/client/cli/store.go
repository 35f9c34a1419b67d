package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/config"
	"github.com/dmitrijs2005/miarbol/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/miarbol/internal/filex"
	"github.com/dmitrijs2005/miarbol/internal/logging"
	"github.com/redis/go-redis/v9"
)

const dbFileName = "miarbol.db"

// openStore opens the configured local session store. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log logging.Logger) (metadata.Repository, func() error, error) {

	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.Debug(ctx, "session store ready", "backend", "redis", "addr", cfg.RedisAddr)
		return metadata.NewRedisRepository(rdb, metadata.DefaultRedisPrefix), rdb.Close, nil

	default:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		path := filepath.Join(dir, dbFileName)
		db, err := client.InitDatabase(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("init database %s: %w", path, err)
		}
		log.Debug(ctx, "session store ready", "backend", "sqlite", "path", path)
		return metadata.NewSQLiteRepository(db), db.Close, nil
	}
}
