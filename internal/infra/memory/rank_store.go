package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

// RankStore is an in-memory points leaderboard matching the Redis ZSET
// semantics: points descending, names ascending on ties.
type RankStore struct {
	mu     sync.RWMutex
	scores map[uuid.UUID]rankEntry
}

type rankEntry struct {
	name   string
	points int
}

func NewRankStore() *RankStore {
	return &RankStore{scores: make(map[uuid.UUID]rankEntry)}
}

func (s *RankStore) UpdateScore(_ context.Context, userID uuid.UUID, name string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = rankEntry{name: name, points: points}
	return nil
}

func (s *RankStore) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ordered := s.orderedLocked()
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

func (s *RankStore) RankOf(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.orderedLocked() {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}
	return 0, domain.ErrUserNotFound
}

func (s *RankStore) Remove(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scores, userID)
	return nil
}

func (s *RankStore) orderedLocked() []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(s.scores))
	for id, entry := range s.scores {
		out = append(out, domain.LeaderboardEntry{
			UserID: id,
			Name:   entry.name,
			Points: entry.points,
			Level:  app.LevelFor(entry.points),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
