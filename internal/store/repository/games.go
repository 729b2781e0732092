package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
)

const gameColumns = `
	id, player_id, program_id, player_name, total_score,
	strike_count, spare_count, split_count, played_at, created_at`

// GameRepository handles game record access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// GetGamesForPlayer returns a player's records in insertion order
func (r *GameRepository) GetGamesForPlayer(ctx context.Context, playerID string) ([]*store.GameRecord, error) {
	query := `SELECT ` + gameColumns + `
		FROM game_records
		WHERE player_id = $1
		ORDER BY seq
	`

	rows, err := r.db.DB().QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying games for player: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// GetRecentGames returns a program's games since the given time, newest first and best
// score first within a date, capped at limit rows
func (r *GameRepository) GetRecentGames(ctx context.Context, programID string, since time.Time, limit int) ([]*store.GameRecord, error) {
	query := `SELECT ` + gameColumns + `
		FROM game_records
		WHERE program_id = $1
		  AND played_at >= $2
		ORDER BY played_at DESC, total_score DESC NULLS LAST
		LIMIT $3
	`

	rows, err := r.db.DB().QueryContext(ctx, query, programID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// Insert stores a new game record
func (r *GameRepository) Insert(ctx context.Context, game *store.GameRecord) error {
	query := `
		INSERT INTO game_records (id, player_id, program_id, player_name, total_score,
			strike_count, spare_count, split_count, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		game.ID, game.PlayerID, game.ProgramID, nullString(game.PlayerName), nullInt(game.TotalScore),
		game.StrikeCount, game.SpareCount, game.SplitCount, game.Date,
	)
	if err != nil {
		return fmt.Errorf("inserting game record: %w", err)
	}

	return nil
}

// scanGames scans multiple game rows
func (r *GameRepository) scanGames(rows *sql.Rows) ([]*store.GameRecord, error) {
	var games []*store.GameRecord
	for rows.Next() {
		game := &store.GameRecord{}
		var playerName sql.NullString
		var totalScore, strikes, spares, splits sql.NullInt64
		var playedAt sql.NullTime

		err := rows.Scan(
			&game.ID, &game.PlayerID, &game.ProgramID, &playerName, &totalScore,
			&strikes, &spares, &splits, &playedAt, &game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game record: %w", err)
		}

		game.PlayerName = playerName.String
		if totalScore.Valid {
			game.TotalScore = store.IntPtr(int(totalScore.Int64))
		}
		game.StrikeCount = int(strikes.Int64)
		game.SpareCount = int(spares.Int64)
		game.SplitCount = int(splits.Int64)
		if playedAt.Valid {
			game.Date = playedAt.Time
		}
		games = append(games, game)
	}

	return games, rows.Err()
}
