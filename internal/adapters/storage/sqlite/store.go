// Package sqlite provides a single-file availability store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"oustad/internal/adapters/storage/sqlite/migrations"
	"oustad/internal/core/domain"

	_ "modernc.org/sqlite"
)

// Store persists availability snapshots and known members in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Upsert replaces the snapshot of a community.
func (s *Store) Upsert(ctx context.Context, community string, snapshot []byte, modifiedAt time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO availability_snapshot (community, snapshot, modified_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (community) DO UPDATE
		 SET snapshot = excluded.snapshot, modified_at = excluded.modified_at`,
		community, string(snapshot), toMillis(modifiedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Fetch returns the snapshot of a community and when it was written.
func (s *Store) Fetch(ctx context.Context, community string) ([]byte, time.Time, error) {
	var snapshot string
	var modifiedAt int64

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT snapshot, modified_at FROM availability_snapshot WHERE community = ?`,
		community,
	).Scan(&snapshot, &modifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fetch snapshot: %w", err)
	}

	return []byte(snapshot), fromMillis(modifiedAt), nil
}

// RememberMember records a member of a community, refreshing their name.
func (s *Store) RememberMember(ctx context.Context, community string, member domain.Member) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO community_member (community, member_id, display_name, first_seen_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (community, member_id) DO UPDATE
		 SET display_name = excluded.display_name`,
		community, member.ID, member.DisplayName, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("remember member: %w", err)
	}
	return nil
}

// ForgetMember deletes a member record. Unknown members are not an error.
func (s *Store) ForgetMember(ctx context.Context, community string, id string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM community_member WHERE community = ? AND member_id = ?`,
		community, id,
	)
	if err != nil {
		return fmt.Errorf("forget member: %w", err)
	}
	return nil
}

// KnownMembers lists members in the order they were first seen.
func (s *Store) KnownMembers(ctx context.Context, community string) ([]domain.Member, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT member_id, display_name
		 FROM community_member
		 WHERE community = ?
		 ORDER BY first_seen_at, rowid`,
		community,
	)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m := domain.Member{Status: domain.Sleep}
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
