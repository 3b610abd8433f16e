// Package app wires repositories to the configured store backend. The
// three binaries share this so backend selection lives in one place.
package app

import (
	"fmt"

	"github.com/meridianfs/ledgercore/internal/adapter/repository/bolt"
	"github.com/meridianfs/ledgercore/internal/adapter/repository/postgres"
	"github.com/meridianfs/ledgercore/internal/config"
	"github.com/meridianfs/ledgercore/internal/domain"
)

// Repos bundles every repository backed by one store, plus the
// transactional settlement surface over the same store.
type Repos struct {
	Activities      domain.ActivityRepository
	BalancePoints   domain.BalancePointRepository
	Assets          domain.AssetRepository
	Scheduled       domain.ScheduledActivityRepository
	Accounts        domain.AccountRepository
	SettlementStore domain.SettlementStore

	closer func() error
}

// Close releases the underlying store.
func (r *Repos) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// BuildRepos opens the backend named by the configuration and returns
// repositories bound to it. The postgres backend runs pending schema
// migrations on open.
func BuildRepos(cfg *config.Config) (*Repos, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		store, err := bolt.New(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return &Repos{
			Activities:      bolt.NewActivityRepository(store),
			BalancePoints:   bolt.NewBalancePointRepository(store),
			Assets:          bolt.NewAssetRepository(store),
			Scheduled:       bolt.NewScheduledRepository(store),
			Accounts:        bolt.NewAccountRepository(store),
			SettlementStore: store,
			closer:          store.Close,
		}, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &Repos{
			Activities:      postgres.NewActivityRepository(db),
			BalancePoints:   postgres.NewBalancePointRepository(db),
			Assets:          postgres.NewAssetRepository(db),
			Scheduled:       postgres.NewScheduledRepository(db),
			Accounts:        postgres.NewAccountRepository(db),
			SettlementStore: postgres.NewSettlementStore(db),
			closer:          db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
