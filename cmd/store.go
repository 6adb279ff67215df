package main

import (
	"fmt"

	"github.com/desertthunder/airwaves/internal/models"
	"github.com/desertthunder/airwaves/internal/repositories"
	"github.com/desertthunder/airwaves/internal/shared"
	"github.com/desertthunder/airwaves/internal/store"
)

// store returns the record store, opening the configured medium on first use.
func (r *Runner) store() (*store.Store, error) {
	if r.records != nil {
		return r.records, nil
	}

	cfg := r.config.Store
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	medium, closer, err := r.openMedium(cfg)
	if err != nil {
		return nil, err
	}

	r.records = store.New(medium, store.Options{
		Prefix:    cfg.Prefix,
		Latency:   store.ChainLatency(store.FixedLatency(cfg.Latency()), store.RateLatency(cfg.RatePerSecond, 1)),
		Defaults:  func(key string) store.Record { return models.DefaultUserRecord(key) },
		OnFailure: store.LogHook(shared.WithLogger(r.logger, "component", "store")),
	})
	r.closer = closer

	r.logger.Debug("record store ready", "driver", cfg.Driver, "prefix", r.records.Prefix())
	return r.records, nil
}

func (r *Runner) openMedium(cfg shared.StoreConfig) (store.Medium, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repositories.NewEntryRepository(db), db.Close, nil
	case "bolt":
		m, err := repositories.OpenBoltMedium(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case "memory":
		return store.NewMemoryMedium(cfg.QuotaBytes), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Driver)
	}
}
