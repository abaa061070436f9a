package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore. It enforces the
// same optimistic-concurrency contract as the Postgres store so the engine's
// conflict handling is exercised in unit tests.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *UserStore) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) SaveProgress(_ context.Context, u *domain.User, delta app.ProgressDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if stored.Version != u.Version {
		return domain.ErrVersionConflict
	}
	stored.Points = u.Points
	stored.Level = u.Level
	stored.Completions = append(stored.Completions, delta.Completions...)
	stored.Badges = append(stored.Badges, delta.Badges...)
	stored.Version++
	u.Version = stored.Version
	return nil
}

func (s *UserStore) Top(_ context.Context, limit int) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, cloneUser(user))
	}
	sortUsersByPoints(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortUsersByPoints(users []*domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].Name < users[j].Name
	})
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.Badges = append([]uuid.UUID(nil), u.Badges...)
	clone.Completions = append([]domain.CompletionRecord(nil), u.Completions...)
	return &clone
}
