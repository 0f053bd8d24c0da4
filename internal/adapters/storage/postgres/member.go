package postgres

import (
	"context"
	"fmt"

	"oustad/internal/core/domain"
)

// RememberMember records a member of a community, refreshing their name.
func (db *DB) RememberMember(ctx context.Context, community string, member domain.Member) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO community_member (community, member_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (community, member_id) DO UPDATE
		SET display_name = EXCLUDED.display_name
	`, community, member.ID, member.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to remember member: %w", err)
	}
	return nil
}

// ForgetMember deletes a member record. Unknown members are not an error.
func (db *DB) ForgetMember(ctx context.Context, community string, id string) error {
	_, err := db.pool.Exec(ctx, `
		DELETE FROM community_member WHERE community = $1 AND member_id = $2
	`, community, id)
	if err != nil {
		return fmt.Errorf("failed to forget member: %w", err)
	}
	return nil
}

// KnownMembers lists members in the order they were first seen.
func (db *DB) KnownMembers(ctx context.Context, community string) ([]domain.Member, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT member_id, display_name
		FROM community_member
		WHERE community = $1
		ORDER BY first_seen_at, member_id
	`, community)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m := domain.Member{Status: domain.Sleep}
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}
