package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/lib/pq"
)

// TeamRepository handles team data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetTeam finds a team by ID. PlayerIDs keep the stored roster order.
func (r *TeamRepository) GetTeam(ctx context.Context, teamID string) (*store.Team, error) {
	query := `
		SELECT id, program_id, name, player_ids
		FROM teams
		WHERE id = $1
	`

	team := &store.Team{}
	var playerIDs pq.StringArray
	err := r.db.DB().QueryRowContext(ctx, query, teamID).Scan(
		&team.ID, &team.ProgramID, &team.Name, &playerIDs,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %s: %w", teamID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	team.PlayerIDs = []string(playerIDs)
	return team, nil
}

// Upsert inserts or updates a team
func (r *TeamRepository) Upsert(ctx context.Context, team *store.Team) error {
	query := `
		INSERT INTO teams (id, program_id, name, player_ids)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			program_id = EXCLUDED.program_id,
			name = EXCLUDED.name,
			player_ids = EXCLUDED.player_ids,
			updated_at = NOW()
	`

	if _, err := r.db.DB().ExecContext(ctx, query, team.ID, team.ProgramID, team.Name, pq.StringArray(team.PlayerIDs)); err != nil {
		return fmt.Errorf("upserting team: %w", err)
	}

	return nil
}
