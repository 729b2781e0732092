package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// PlayerReader reads roster documents.
type PlayerReader interface {
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	ListActivePlayers(ctx context.Context, programID string) ([]*Player, error)
}

// TeamReader reads team documents.
type TeamReader interface {
	GetTeam(ctx context.Context, teamID string) (*Team, error)
}

// GameReader reads game records.
type GameReader interface {
	// GetGamesForPlayer returns every record for the player in the store's natural order.
	GetGamesForPlayer(ctx context.Context, playerID string) ([]*GameRecord, error)

	// GetRecentGames returns records of the program dated at or after since, ordered by
	// date descending then score descending, capped at limit.
	GetRecentGames(ctx context.Context, programID string, since time.Time, limit int) ([]*GameRecord, error)
}

// SnapshotStore reads and replaces public snapshots.
type SnapshotStore interface {
	GetPublicStats(ctx context.Context, programID string) (*PublicStats, error)

	// WritePublicSnapshot replaces the snapshot for stats.ProgramID and sets
	// stats.UpdatedAt to the write time.
	WritePublicSnapshot(ctx context.Context, stats *PublicStats) error
}

// Repository is everything the aggregators and the publisher need from storage.
type Repository interface {
	PlayerReader
	TeamReader
	GameReader
	SnapshotStore

	HealthCheck(ctx context.Context) error
	Close() error
}

// Seeder is implemented by backends that can load demo data.
type Seeder interface {
	SeedDemo(ctx context.Context, players []*Player, teams []*Team, games []*GameRecord) error
}
