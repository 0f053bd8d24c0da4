package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oustad/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// Upsert replaces the snapshot of a community.
func (db *DB) Upsert(ctx context.Context, community string, snapshot []byte, modifiedAt time.Time) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO availability_snapshot (community, snapshot, modified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (community) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, modified_at = EXCLUDED.modified_at
	`, community, snapshot, modifiedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// Fetch returns the snapshot of a community and when it was written.
func (db *DB) Fetch(ctx context.Context, community string) ([]byte, time.Time, error) {
	var snapshot []byte
	var modifiedAt time.Time

	err := db.pool.QueryRow(ctx, `
		SELECT snapshot, modified_at
		FROM availability_snapshot
		WHERE community = $1
	`, community).Scan(&snapshot, &modifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return snapshot, modifiedAt, nil
}
