package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quizquest-service/internal/domain"
)

// AchievementLog is an in-memory append-only achievement log.
type AchievementLog struct {
	mu     sync.RWMutex
	events []domain.Achievement
}

func NewAchievementLog() *AchievementLog {
	return &AchievementLog{}
}

func (l *AchievementLog) Append(_ context.Context, a *domain.Achievement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *a)
	return nil
}

// ListByUser returns the user's events newest first.
func (l *AchievementLog) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Achievement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Achievement, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].UserID != userID {
			continue
		}
		out = append(out, l.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
