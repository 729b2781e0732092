package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/tigerstats/internal/store"
)

// Repository is the Postgres-backed store.Repository
type Repository struct {
	*PlayerRepository
	*TeamRepository
	*GameRepository
	*SnapshotRepository

	db *store.Database
}

var _ store.Repository = (*Repository)(nil)

// New wires every table repository onto one database handle
func New(db *store.Database) *Repository {
	return &Repository{
		PlayerRepository:   NewPlayerRepository(db),
		TeamRepository:     NewTeamRepository(db),
		GameRepository:     NewGameRepository(db),
		SnapshotRepository: NewSnapshotRepository(db),
		db:                 db,
	}
}

// HealthCheck pings the database
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SeedDemo upserts the demo documents; rows that already
// exist are updated in place.
func (r *Repository) SeedDemo(ctx context.Context, players []*store.Player, teams []*store.Team, games []*store.GameRecord) error {
	for _, p := range players {
		if err := r.PlayerRepository.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seeding player %s: %w", p.ID, err)
		}
	}
	for _, t := range teams {
		if err := r.TeamRepository.Upsert(ctx, t); err != nil {
			return fmt.Errorf("seeding team %s: %w", t.ID, err)
		}
	}
	for _, g := range games {
		if err := r.GameRepository.Insert(ctx, g); err != nil {
			return fmt.Errorf("seeding game %s: %w", g.ID, err)
		}
	}
	return nil
}
