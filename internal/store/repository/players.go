package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/tigerstats/internal/store"
)

const playerColumns = `
	id, program_id, name, first_name, last_name, display_name,
	average_score, average, high_game, high_series, games_played,
	series_over_25, series_over_50, series_over_100,
	is_active, is_claimed, created_at, updated_at`

// PlayerRepository handles player data access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetPlayer finds a player by ID
func (r *PlayerRepository) GetPlayer(ctx context.Context, playerID string) (*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.DB().QueryRowContext(ctx, query, playerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player %s: %w", playerID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}

	return player, nil
}

// ListActivePlayers returns the active players of a program
func (r *PlayerRepository) ListActivePlayers(ctx context.Context, programID string) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + `
		FROM players
		WHERE program_id = $1 AND is_active = true
		ORDER BY id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("querying active players: %w", err)
	}
	defer rows.Close()

	var players []*store.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, player)
	}

	return players, rows.Err()
}

// Upsert inserts or updates a player
func (r *PlayerRepository) Upsert(ctx context.Context, player *store.Player) error {
	query := `
		INSERT INTO players (id, program_id, name, first_name, last_name, display_name,
			average_score, average, high_game, high_series, games_played,
			series_over_25, series_over_50, series_over_100, is_active, is_claimed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			program_id = EXCLUDED.program_id,
			name = EXCLUDED.name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			display_name = EXCLUDED.display_name,
			average_score = EXCLUDED.average_score,
			average = EXCLUDED.average,
			high_game = EXCLUDED.high_game,
			high_series = EXCLUDED.high_series,
			games_played = EXCLUDED.games_played,
			series_over_25 = EXCLUDED.series_over_25,
			series_over_50 = EXCLUDED.series_over_50,
			series_over_100 = EXCLUDED.series_over_100,
			is_active = EXCLUDED.is_active,
			is_claimed = EXCLUDED.is_claimed,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		player.ID, player.ProgramID, nullString(player.Name), nullString(player.FirstName),
		nullString(player.LastName), nullString(player.DisplayName),
		nullFloat(player.AverageScore), nullFloat(player.Average),
		player.HighGame, player.HighSeries, player.GamesPlayed,
		player.SeriesOver25, player.SeriesOver50, player.SeriesOver100,
		player.IsActive, player.IsClaimed,
	)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*store.Player, error) {
	var player store.Player
	var name, firstName, lastName, display sql.NullString
	var averageScore, average sql.NullFloat64

	err := row.Scan(
		&player.ID, &player.ProgramID, &name, &firstName, &lastName, &display,
		&averageScore, &average, &player.HighGame, &player.HighSeries, &player.GamesPlayed,
		&player.SeriesOver25, &player.SeriesOver50, &player.SeriesOver100,
		&player.IsActive, &player.IsClaimed, &player.CreatedAt, &player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	player.Name = name.String
	player.FirstName = firstName.String
	player.LastName = lastName.String
	player.DisplayName = display.String
	if averageScore.Valid {
		player.AverageScore = store.FloatPtr(averageScore.Float64)
	}
	if average.Valid {
		player.Average = store.FloatPtr(average.Float64)
	}

	return &player, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
