// Package bootstrap opens the backends shared by the service and the publish CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/tigerstats/internal/cache"
	"github.com/fortuna/tigerstats/internal/config"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/fortuna/tigerstats/internal/store/docstore"
	"github.com/fortuna/tigerstats/internal/store/memory"
	"github.com/fortuna/tigerstats/internal/store/repository"
	"github.com/sirupsen/logrus"
)

// OpenStore opens the configured backend. Postgres migrations run before it is returned.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Entry) (store.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := store.NewDatabase(cfg.DatabaseDSN, logger.WithField("component", "database"))
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return repository.New(db), nil

	case config.BackendFirestore:
		fs, err := docstore.New(ctx, cfg.FirestoreProject, logger.WithField("component", "firestore"))
		if err != nil {
			return nil, err
		}
		return fs, nil

	case config.BackendMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// SeedDemo loads the demo roster when the backend supports seeding.
func SeedDemo(ctx context.Context, repo store.Repository, programID string, logger *logrus.Entry) error {
	seeder, ok := repo.(store.Seeder)
	if !ok {
		logger.Warn("Store backend does not support demo data")
		return nil
	}

	players, teams, games := store.DemoData(programID, time.Now())
	if err := seeder.SeedDemo(ctx, players, teams, games); err != nil {
		return fmt.Errorf("seeding demo data: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"players": len(players),
		"teams":   len(teams),
		"games":   len(games),
	}).Info("Demo data seeded")
	return nil
}

// ConnectRedis dials Redis, retrying while it starts up.
func ConnectRedis(ctx context.Context, redisURL string, attempts int, delay time.Duration, logger *logrus.Entry) (*cache.RedisCache, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		rc, err := cache.NewRedisCache(ctx, redisURL)
		if err == nil {
			return rc, nil
		}
		lastErr = err

		if i < attempts-1 {
			logger.WithError(err).WithFields(logrus.Fields{
				"attempt": i + 1,
				"max":     attempts,
			}).Warn("Redis connection failed, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("connecting to redis after %d attempts: %w", attempts, lastErr)
}
