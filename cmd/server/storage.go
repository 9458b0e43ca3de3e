package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/config"
	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/redis"
)

// InitStore selects and returns the configured subscription store. The
// store is nil for the "none" backend. The returned func releases it.
func InitStore(ctx context.Context, env *config.Server) (db.Store, func(), error) {
	switch env.StoreBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(env.RedisAddress, env.RedisUsername, env.RedisPassword, env.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("%w: redis ping: %v", db.ErrUnavailable, err)
		}
		log.Info().Str("address", env.RedisAddress).Str("prefix", env.RedisPrefix).Msg("using redis subscription store")
		return redis.NewStore(rdb, env.RedisPrefix), func() { _ = rdb.Close() }, nil

	case config.BackendPostgres:
		conn, err := db.Open(ctx, env.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, conn, env.MigrationsPath); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		log.Info().Msg("using postgres subscription store")
		return db.NewStore(conn), func() { _ = conn.Close() }, nil

	default:
		log.Warn().Msg("no subscription store configured, push disabled")
		return nil, func() {}, nil
	}
}
