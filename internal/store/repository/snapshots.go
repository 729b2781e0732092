package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fortuna/tigerstats/internal/store"
)

// SnapshotRepository persists public stats documents, one row per program
type SnapshotRepository struct {
	db *store.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *store.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// GetPublicStats returns the last written snapshot for a program
func (r *SnapshotRepository) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error) {
	query := `SELECT document, updated_at FROM public_stats WHERE program_id = $1`

	var document []byte
	stats := &store.PublicStats{}
	err := r.db.DB().QueryRowContext(ctx, query, programID).Scan(&document, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("public stats %s: %w", programID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying public stats: %w", err)
	}

	updatedAt := stats.UpdatedAt
	if err := json.Unmarshal(document, stats); err != nil {
		return nil, fmt.Errorf("decoding public stats: %w", err)
	}
	stats.UpdatedAt = updatedAt

	return stats, nil
}

// WritePublicSnapshot replaces the program's snapshot. The document column is
// overwritten as a whole, no field of the previous document survives.
func (r *SnapshotRepository) WritePublicSnapshot(ctx context.Context, stats *store.PublicStats) error {
	document, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding public stats: %w", err)
	}

	query := `
		INSERT INTO public_stats (program_id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (program_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	if err := r.db.DB().QueryRowContext(ctx, query, stats.ProgramID, document).Scan(&stats.UpdatedAt); err != nil {
		return fmt.Errorf("writing public stats: %w", err)
	}

	return nil
}
