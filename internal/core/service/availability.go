package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oustad/internal/core/domain"
	"oustad/internal/core/port"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type AvailabilityRegistry interface {
	RebuildFromRoster(ctx context.Context, members []domain.Member) (*domain.Registry, error)
	LoadIfFresh(ctx context.Context) (*domain.Registry, error)
	SetStatus(ctx context.Context, id, name string, status domain.Status, at *string) (bool, *domain.Registry, error)
	AddMember(ctx context.Context, member domain.Member) (bool, error)
	RemoveMember(ctx context.Context, id string) (bool, error)
}

// Availability is the registry of one community. The stored snapshot is the
// source of truth: every operation fetches it, applies its change and writes
// it back while holding the guard. The guard is a weighted semaphore of size
// one, which hands the slot to waiters in arrival order.
type Availability struct {
	community string
	store     port.SnapshotStore
	roster    port.RosterProvider
	refresh   *DailyRefresh
	guard     *semaphore.Weighted
}

func NewAvailability(community string,
	store port.SnapshotStore,
	roster port.RosterProvider,
	refresh *DailyRefresh) *Availability {
	return &Availability{
		community: community,
		store:     store,
		roster:    roster,
		refresh:   refresh,
		guard:     semaphore.NewWeighted(1),
	}
}

func (a *Availability) withGuard(ctx context.Context, fn func() error) error {
	if err := a.guard.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire registry guard: %w", err)
	}
	defer a.guard.Release(1)

	return fn()
}

// RebuildFromRoster replaces the registry with members, all asleep, dated today.
func (a *Availability) RebuildFromRoster(ctx context.Context, members []domain.Member) (*domain.Registry, error) {
	var registry *domain.Registry
	err := a.withGuard(ctx, func() error {
		var err error
		registry, err = a.rebuild(ctx, members)
		return err
	})

	return registry, err
}

// LoadIfFresh returns today's registry, rebuilding it from the roster when
// the stored snapshot is missing or from an earlier day.
func (a *Availability) LoadIfFresh(ctx context.Context) (*domain.Registry, error) {
	var registry *domain.Registry
	err := a.withGuard(ctx, func() error {
		var err error
		registry, err = a.load(ctx)
		return err
	})

	return registry, err
}

// Peek returns today's registry without rebuilding or writing anything.
// A missing or stale snapshot yields domain.ErrSnapshotNotFound.
func (a *Availability) Peek(ctx context.Context) (*domain.Registry, error) {
	var registry *domain.Registry
	err := a.withGuard(ctx, func() error {
		payload, modifiedAt, err := a.store.Fetch(ctx, a.community)
		if err != nil {
			return err
		}
		if a.refresh.IsStale(modifiedAt) {
			return domain.ErrSnapshotNotFound
		}

		registry, err = decodeSnapshot(payload, modifiedAt)
		return err
	})

	return registry, err
}

// SetStatus moves a member to status. It reports false, without writing,
// when status and time are unchanged.
func (a *Availability) SetStatus(ctx context.Context,
	id, name string,
	status domain.Status,
	at *string) (bool, *domain.Registry, error) {
	var changed bool
	var registry *domain.Registry

	err := a.withGuard(ctx, func() error {
		var err error
		registry, err = a.load(ctx)
		if err != nil {
			return err
		}

		changed = registry.Transition(id, name, status, at)
		if !changed {
			return nil
		}

		log.Info().
			Str("community", a.community).
			Str("memberId", id).
			Str("status", string(status)).
			Str("availableAt", domain.TimeOrEmpty(at)).
			Msgf("%s is %s", name, status)

		return a.persist(ctx, registry)
	})
	if err != nil {
		return false, nil, err
	}

	return changed, registry, nil
}

// AddMember inserts a sleeping member. Existing members are left untouched.
func (a *Availability) AddMember(ctx context.Context, member domain.Member) (bool, error) {
	var added bool
	err := a.withGuard(ctx, func() error {
		registry, err := a.load(ctx)
		if err != nil {
			return err
		}

		added = registry.Add(member)
		if added {
			log.Info().Str("community", a.community).Str("memberId", member.ID).
				Msgf("new member %s added", member.DisplayName)
		}

		return a.persist(ctx, registry)
	})

	return added, err
}

// RemoveMember deletes a member, if present.
func (a *Availability) RemoveMember(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := a.withGuard(ctx, func() error {
		registry, err := a.load(ctx)
		if err != nil {
			return err
		}

		removed = registry.Remove(id)
		if removed {
			log.Info().Str("community", a.community).Str("memberId", id).Msg("member removed")
		}

		return a.persist(ctx, registry)
	})

	return removed, err
}

func (a *Availability) load(ctx context.Context) (*domain.Registry, error) {
	payload, modifiedAt, err := a.store.Fetch(ctx, a.community)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	if errors.Is(err, domain.ErrSnapshotNotFound) || a.refresh.IsStale(modifiedAt) {
		log.Debug().Str("community", a.community).Time("lastModified", modifiedAt).
			Msg("snapshot missing or stale, rebuilding from roster")

		members, err := a.roster.Members(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch roster: %w", err)
		}

		return a.rebuild(ctx, members)
	}

	return decodeSnapshot(payload, modifiedAt)
}

func decodeSnapshot(payload []byte, modifiedAt time.Time) (*domain.Registry, error) {
	var registry domain.Registry
	if err := json.Unmarshal(payload, &registry); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	registry.LastModified = modifiedAt

	return &registry, nil
}

func (a *Availability) rebuild(ctx context.Context, members []domain.Member) (*domain.Registry, error) {
	registry := domain.NewRegistryFromRoster(a.refresh.Today(), members)
	if err := a.persist(ctx, registry); err != nil {
		return nil, err
	}

	log.Info().
		Str("community", a.community).
		Int("members", registry.Len()).
		Time("nextReset", a.refresh.NextReset()).
		Msg("registry rebuilt from roster")

	return registry, nil
}

func (a *Availability) persist(ctx context.Context, registry *domain.Registry) error {
	payload, err := json.Marshal(registry)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	modifiedAt := a.refresh.Now()
	if err := a.store.Upsert(ctx, a.community, payload, modifiedAt); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	registry.LastModified = modifiedAt

	return nil
}
