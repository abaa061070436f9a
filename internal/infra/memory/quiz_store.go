package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[uuid.UUID]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[uuid.UUID]domain.Quiz)}
}

func (s *QuizStore) Create(_ context.Context, q *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[q.ID] = *q
	return nil
}

func (s *QuizStore) Get(_ context.Context, id uuid.UUID) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// ListActive filters like the production store: subject matches
// case-insensitively, difficulty exactly.
func (s *QuizStore) ListActive(_ context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if !quiz.Active {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(quiz.Subject, filter.Subject) {
			continue
		}
		if filter.Difficulty != "" && quiz.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *QuizStore) Update(_ context.Context, q *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[q.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[q.ID] = *q
	return nil
}

func (s *QuizStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}
