package port

import (
	"context"
	"time"

	"oustad/internal/core/domain"
)

type SnapshotStore interface {
	// Upsert replaces the snapshot of a community and stamps it with modifiedAt.
	Upsert(ctx context.Context, community string, snapshot []byte, modifiedAt time.Time) error
	// Fetch returns the latest snapshot of a community with its timestamp, or
	// domain.ErrSnapshotNotFound.
	Fetch(ctx context.Context, community string) ([]byte, time.Time, error)
}

// MemberDirectory remembers the members a community has been seen with.
type MemberDirectory interface {
	RememberMember(ctx context.Context, community string, member domain.Member) error
	ForgetMember(ctx context.Context, community string, id string) error
	KnownMembers(ctx context.Context, community string) ([]domain.Member, error)
}

type RosterProvider interface {
	// Members returns every non-service member of the community.
	Members(ctx context.Context) ([]domain.Member, error)
}
