package storage

import (
	"context"
	"log/slog"
	"strings"

	"meetroom/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens a postgres or sqlite database depending on the DSN and
// migrates the tables this service owns.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return db, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// OpenRedis connects to Redis. An empty addr returns (nil, nil) and leaves the
// roster disabled.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "failed to connect redis at %s", addr)
	}
	return rdb, nil
}

// OpenRoster connects the roster client without failing startup. When the
// first ping fails the client is kept anyway: go-redis reconnects on later
// commands and each failed roster call degrades presence on its own. An empty
// addr returns nil.
func OpenRoster(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, participant count degrades until it returns", "addr", addr, "err", err)
	}
	return rdb
}
