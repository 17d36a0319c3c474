package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/dogwalker/internal/accounts"
	"github.com/geocoder89/dogwalker/internal/config"
	"github.com/geocoder89/dogwalker/internal/db"
	"github.com/geocoder89/dogwalker/internal/http/handlers"
	"github.com/geocoder89/dogwalker/internal/redisclient"
	"github.com/geocoder89/dogwalker/internal/repo/memory"
	"github.com/geocoder89/dogwalker/internal/repo/postgres"
	"github.com/geocoder89/dogwalker/internal/repo/redisrepo"
)

type stores struct {
	users accounts.CredentialStore
	pets  accounts.PetStore
	ping  handlers.PingFunc
	close func()
}

// openStores connects the backend named by STORE_DRIVER.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}

		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}

		log.Info("store ready", "driver", cfg.StoreDriver)

		return stores{
			users: postgres.NewUsersRepo(pool),
			pets:  postgres.NewPetsRepo(pool),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil

	case config.DriverRedis:
		rc := redisclient.New(redisclient.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			OpTimeout: cfg.StoreTimeout,
		})

		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return stores{}, fmt.Errorf("connect redis: %w", err)
		}

		log.Info("store ready", "driver", cfg.StoreDriver, "addr", cfg.RedisAddr)

		return stores{
			users: redisrepo.NewUsersRepo(rc.Raw(), redisrepo.DefaultPrefix),
			pets:  redisrepo.NewPetsRepo(rc.Raw(), redisrepo.DefaultPrefix),
			ping:  rc.Ping,
			close: func() { _ = rc.Close() },
		}, nil

	default:
		log.Warn("using in-memory store; data is lost on restart")

		users := memory.NewUsersRepo()

		return stores{
			users: users,
			pets:  memory.NewPetsRepo(),
			ping:  users.Ping,
			close: func() {},
		}, nil
	}
}
