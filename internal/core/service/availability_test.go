package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"oustad/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeMemberRegistry(date string) *domain.Registry {
	r := domain.NewRegistryFromRoster(date, []domain.Member{
		{ID: "a", DisplayName: "A"},
		{ID: "b", DisplayName: "B"},
		{ID: "c", DisplayName: "C"},
	})
	r.Transition("a", "A", domain.In, strPtr("21:30"))
	r.Transition("b", "B", domain.In, nil)
	r.Transition("c", "C", domain.Out, nil)
	return r
}

func TestAvailability_LoadIfFresh_RebuildsWhenMissing(t *testing.T) {
	store := &fakeStore{}
	roster := &fakeRoster{members: []domain.Member{
		{ID: "1", DisplayName: "one"},
		{ID: "2", DisplayName: "two"},
	}}
	a := newTestAvailability(t, store, roster)

	registry, err := a.LoadIfFresh(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", registry.AsOfDate)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, 2, domain.CountByStatus(registry, domain.Sleep))
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 1, roster.calls)
	assert.Equal(t, testNow, store.modifiedAt)
	assert.Equal(t, testNow, registry.LastModified)
}

func TestAvailability_LoadIfFresh_ReturnsTodaysSnapshot(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow.Add(-time.Hour))
	roster := &fakeRoster{}
	a := newTestAvailability(t, store, roster)

	registry, err := a.LoadIfFresh(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, store.upserts)
	assert.Equal(t, 0, roster.calls)
	assert.Equal(t, 2, domain.CountByStatus(registry, domain.In))
	assert.Equal(t, testNow.Add(-time.Hour), registry.LastModified)
}

func TestAvailability_LoadIfFresh_RollsOverAtDateBoundary(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-18"), testNow.Add(-24*time.Hour))
	roster := &fakeRoster{members: []domain.Member{
		{ID: "a", DisplayName: "A"},
		{ID: "b", DisplayName: "B"},
		{ID: "c", DisplayName: "C"},
	}}
	a := newTestAvailability(t, store, roster)

	registry, err := a.LoadIfFresh(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", registry.AsOfDate)
	for _, m := range registry.Members() {
		assert.Equal(t, domain.Sleep, m.Status, m.ID)
		assert.Nil(t, m.AvailableAt, m.ID)
	}
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 3, domain.CountByStatus(store.stored(t), domain.Sleep))
}

func TestAvailability_LoadIfFresh_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  *fakeStore
		roster *fakeRoster
	}{
		{
			name:   "fetch fails",
			store:  &fakeStore{fetchErr: errors.New("connection refused")},
			roster: &fakeRoster{},
		},
		{
			name:   "roster fails",
			store:  &fakeStore{},
			roster: &fakeRoster{err: errors.New("roster unavailable")},
		},
		{
			name:   "write fails",
			store:  &fakeStore{upsertErr: errors.New("disk full")},
			roster: &fakeRoster{},
		},
		{
			name:   "corrupt snapshot",
			store:  &fakeStore{payload: []byte("{"), modifiedAt: testNow},
			roster: &fakeRoster{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAvailability(t, tt.store, tt.roster)

			registry, err := a.LoadIfFresh(t.Context())
			require.Error(t, err)
			assert.Nil(t, registry)
		})
	}
}

func TestAvailability_RebuildFromRoster(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	registry, err := a.RebuildFromRoster(t.Context(), []domain.Member{
		{ID: "x", DisplayName: "X", Status: domain.In, AvailableAt: strPtr("20:00")},
	})
	require.NoError(t, err)

	members := registry.Members()
	require.Len(t, members, 1)
	assert.Equal(t, domain.Sleep, members[0].Status)
	assert.Nil(t, members[0].AvailableAt)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 1, store.stored(t).Len())
}

func TestAvailability_SetStatus_WritesOnlyOnChange(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, domain.NewRegistryFromRoster("2026-10-19", []domain.Member{{ID: "1", DisplayName: "one"}}), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	changed, registry, err := a.SetStatus(t.Context(), "1", "one", domain.In, strPtr("21:30"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, domain.CountByStatus(registry, domain.In))

	changed, _, err = a.SetStatus(t.Context(), "1", "one", domain.In, strPtr("21:30"))
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, store.upserts)

	m, ok := store.stored(t).Get("1")
	require.True(t, ok)
	assert.Equal(t, domain.In, m.Status)
	assert.Equal(t, strPtr("21:30"), m.AvailableAt)
}

func TestAvailability_SetStatus_ClearsTimeWhenLeavingIn(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	changed, _, err := a.SetStatus(t.Context(), "a", "A renamed", domain.Out, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	m, ok := store.stored(t).Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.Out, m.Status)
	assert.Nil(t, m.AvailableAt)
	assert.Equal(t, "A renamed", m.DisplayName)
}

func TestAvailability_SetStatus_WriteFailure(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow)
	store.upsertErr = errors.New("disk full")
	a := newTestAvailability(t, store, &fakeRoster{})

	changed, registry, err := a.SetStatus(t.Context(), "c", "C", domain.In, nil)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Nil(t, registry)

	m, _ := store.stored(t).Get("c")
	assert.Equal(t, domain.Out, m.Status)
}

func TestAvailability_AddMember(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	added, err := a.AddMember(t.Context(), domain.Member{ID: "d", DisplayName: "D", Status: domain.In})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = a.AddMember(t.Context(), domain.Member{ID: "a", DisplayName: "A"})
	require.NoError(t, err)
	assert.False(t, added)

	stored := store.stored(t)
	d, ok := stored.Get("d")
	require.True(t, ok)
	assert.Equal(t, domain.Sleep, d.Status)
	a1, _ := stored.Get("a")
	assert.Equal(t, domain.In, a1.Status)
}

func TestAvailability_RemoveMember(t *testing.T) {
	store := &fakeStore{}
	store.seed(t, threeMemberRegistry("2026-10-19"), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	removed, err := a.RemoveMember(t.Context(), "b")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = a.RemoveMember(t.Context(), "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	_, ok := store.stored(t).Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, store.stored(t).Len())
}

func TestAvailability_SerializesStoreAccess(t *testing.T) {
	store := &fakeStore{accessDelay: time.Millisecond}
	store.seed(t, domain.NewRegistry("2026-10-19"), testNow)
	a := newTestAvailability(t, store, &fakeRoster{})

	const voters = 20
	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("%d", i)
			_, _, err := a.SetStatus(t.Context(), id, "member "+id, domain.In, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, store.overlapped.Load(), "store was accessed concurrently")
	assert.Equal(t, voters, store.upserts)
	assert.Equal(t, voters, domain.CountByStatus(store.stored(t), domain.In))
}

func TestAvailability_Peek(t *testing.T) {
	tests := []struct {
		name    string
		store   func(t *testing.T) *fakeStore
		wantErr error
		wantIn  int
	}{
		{
			name: "today's snapshot",
			store: func(t *testing.T) *fakeStore {
				s := &fakeStore{}
				s.seed(t, threeMemberRegistry("2026-10-19"), testNow)
				return s
			},
			wantIn: 2,
		},
		{
			name:    "no snapshot",
			store:   func(_ *testing.T) *fakeStore { return &fakeStore{} },
			wantErr: domain.ErrSnapshotNotFound,
		},
		{
			name: "yesterday's snapshot",
			store: func(t *testing.T) *fakeStore {
				s := &fakeStore{}
				s.seed(t, threeMemberRegistry("2026-10-18"), testNow.Add(-24*time.Hour))
				return s
			},
			wantErr: domain.ErrSnapshotNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store(t)
			roster := &fakeRoster{}
			a := newTestAvailability(t, store, roster)

			registry, err := a.Peek(t.Context())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantIn, domain.CountByStatus(registry, domain.In))
			}

			assert.Equal(t, 0, store.upserts)
			assert.Equal(t, 0, roster.calls)
		})
	}
}
