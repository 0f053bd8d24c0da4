package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"oustad/internal/core/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	payload     []byte
	modifiedAt  time.Time
	upserts     int
	fetches     int
	fetchErr    error
	upsertErr   error
	inFlight    atomic.Int32
	overlapped  atomic.Bool
	accessDelay time.Duration
}

func (s *fakeStore) enter() func() {
	if s.inFlight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	if s.accessDelay > 0 {
		time.Sleep(s.accessDelay)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *fakeStore) Upsert(_ context.Context, _ string, snapshot []byte, modifiedAt time.Time) error {
	defer s.enter()()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	s.payload = append([]byte(nil), snapshot...)
	s.modifiedAt = modifiedAt
	return nil
}

func (s *fakeStore) Fetch(_ context.Context, _ string) ([]byte, time.Time, error) {
	defer s.enter()()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches++
	if s.fetchErr != nil {
		return nil, time.Time{}, s.fetchErr
	}
	if s.payload == nil {
		return nil, time.Time{}, domain.ErrSnapshotNotFound
	}
	return s.payload, s.modifiedAt, nil
}

// seed stores registry as if it had been written at modifiedAt.
func (s *fakeStore) seed(t *testing.T, registry *domain.Registry, modifiedAt time.Time) {
	t.Helper()
	payload, err := json.Marshal(registry)
	require.NoError(t, err)
	s.payload = payload
	s.modifiedAt = modifiedAt
}

func (s *fakeStore) stored(t *testing.T) *domain.Registry {
	t.Helper()
	var r domain.Registry
	require.NoError(t, json.Unmarshal(s.payload, &r))
	return &r
}

type fakeRoster struct {
	members []domain.Member
	err     error
	calls   int
}

func (r *fakeRoster) Members(_ context.Context) ([]domain.Member, error) {
	r.calls++
	return r.members, r.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return s.err
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.text)
	}
	return out
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) RememberMember(ctx context.Context, community string, member domain.Member) error {
	args := m.Called(ctx, community, member)
	return args.Error(0)
}

func (m *MockDirectory) ForgetMember(ctx context.Context, community string, id string) error {
	args := m.Called(ctx, community, id)
	return args.Error(0)
}

func (m *MockDirectory) KnownMembers(ctx context.Context, community string) ([]domain.Member, error) {
	args := m.Called(ctx, community)
	members, _ := args.Get(0).([]domain.Member)
	return members, args.Error(1)
}

var testNow = time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)

func strPtr(s string) *string {
	return &s
}

func newTestAvailability(t *testing.T, store *fakeStore, roster *fakeRoster) *Availability {
	t.Helper()
	return NewAvailability("among-us", store, roster, fixedRefresh(t, testNow))
}
