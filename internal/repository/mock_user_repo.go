package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ricirt/consent-sync/internal/domain"
)

// MockUserRepository is a hand-written, in-memory implementation of
// UserRepository used in unit tests.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*domain.User
	flags map[int64]domain.Flag

	// Optional error overrides, set in tests to simulate failure paths.
	GetByIDErr      error
	SetFlagErr      error
	FindEligibleErr error

	// FailUsers makes GetByID fail for individual ids.
	FailUsers map[int64]error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:     make(map[int64]*domain.User),
		flags:     make(map[int64]domain.Flag),
		FailUsers: make(map[int64]error),
	}
}

// AddUser stores a user; an empty flag leaves the meta row missing.
func (m *MockUserRepository) AddUser(id int64, email string, flag domain.Flag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &domain.User{ID: id, Email: email}
	if flag != domain.FlagUnset {
		m.flags[id] = flag
	}
}

// Flag returns the stored flag and whether a meta row exists.
func (m *MockUserRepository) Flag(id int64) (domain.Flag, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.flags[id]
	return f, ok
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.FailUsers[id]; err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockUserRepository) GetFlag(_ context.Context, userID int64) (domain.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[userID], nil
}

func (m *MockUserRepository) SetFlag(_ context.Context, userID int64, flag domain.Flag) error {
	if m.SetFlagErr != nil {
		return m.SetFlagErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[userID] = flag
	return nil
}

func (m *MockUserRepository) FindEligible(_ context.Context, lastID int64, limit int) ([]int64, error) {
	if m.FindEligibleErr != nil {
		return nil, m.FindEligibleErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []int64
	for id, u := range m.users {
		if id <= lastID || u.Email == "" {
			continue
		}
		flag, ok := m.flags[id]
		if ok && flag != domain.FlagNo && flag != domain.FlagUnset {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
