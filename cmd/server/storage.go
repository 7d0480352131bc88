package main

import (
	"context"
	"fmt"

	"github.com/kjannette/bullionaire-backend/internal/api"
	"github.com/kjannette/bullionaire-backend/internal/bot"
	"github.com/kjannette/bullionaire-backend/internal/config"
	"github.com/kjannette/bullionaire-backend/internal/db"
	"github.com/kjannette/bullionaire-backend/internal/localstore"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/repository"
)

// storage bundles the store implementations selected by DB_DRIVER.
type storage struct {
	api      api.Stores
	accounts bot.AccountStore
	ledger   bot.Ledger
	activity bot.ActivityLog
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	log := logger.Named("DB")

	if cfg.DBDriver == "sqlite" {
		log.Infof("Opening SQLite store at %s", cfg.SQLitePath)
		store, err := localstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &storage{
			api: api.Stores{
				Accounts:   store.Accounts(),
				Positions:  store.Positions(),
				Activities: store.Activities(),
				Commands:   store.Commands(),
				DB:         store,
			},
			accounts: store.Accounts(),
			ledger:   store.Positions(),
			activity: store.Activities(),
			close: func() {
				_ = store.Close()
				log.Info("SQLite store closed")
			},
		}, nil
	}

	log.Infof("Connecting to %s:%d/%s ...", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := db.TestConnection(pool); err != nil {
		pool.Close()
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	accounts := repository.NewAccountRepo(pool)
	positions := repository.NewPositionRepo(pool)
	activities := repository.NewActivityRepo(pool)
	return &storage{
		api: api.Stores{
			Accounts:   accounts,
			Positions:  positions,
			Activities: activities,
			Commands:   repository.NewCommandRepo(pool),
			DB:         pool,
		},
		accounts: accounts,
		ledger:   positions,
		activity: activities,
		close: func() {
			pool.Close()
			log.Info("Connection pool closed")
		},
	}, nil
}
