package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"quizquest-service/internal/domain"
)

// BadgeStore is an in-memory implementation of app.BadgeStore.
type BadgeStore struct {
	mu     sync.RWMutex
	badges map[uuid.UUID]domain.Badge
}

func NewBadgeStore() *BadgeStore {
	return &BadgeStore{badges: make(map[uuid.UUID]domain.Badge)}
}

func (s *BadgeStore) Create(_ context.Context, b *domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges[b.ID] = *b
	return nil
}

func (s *BadgeStore) Get(_ context.Context, id uuid.UUID) (domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	badge, ok := s.badges[id]
	if !ok {
		return domain.Badge{}, domain.ErrBadgeNotFound
	}
	return badge, nil
}

func (s *BadgeStore) ListActive(_ context.Context) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Badge, 0, len(s.badges))
	for _, badge := range s.badges {
		if badge.Active {
			out = append(out, badge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByIDs preserves the order of ids (the user's award order).
func (s *BadgeStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Badge, 0, len(ids))
	for _, id := range ids {
		if badge, ok := s.badges[id]; ok {
			out = append(out, badge)
		}
	}
	return out, nil
}

func (s *BadgeStore) Update(_ context.Context, b *domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.badges[b.ID]; !ok {
		return domain.ErrBadgeNotFound
	}
	s.badges[b.ID] = *b
	return nil
}

func (s *BadgeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.badges[id]; !ok {
		return domain.ErrBadgeNotFound
	}
	delete(s.badges, id)
	return nil
}
