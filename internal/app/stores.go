package app

import (
	"context"

	"github.com/google/uuid"

	"quizquest-service/internal/domain"
)

// UserStore abstracts durable user state (Postgres, in-memory, etc).
// Get resolves the completion history's quiz subject/difficulty so the badge
// evaluator can filter without extra lookups.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SaveProgress persists points/level plus the delta of new completions
	// and badge awards in one transaction, guarded by u.Version. It returns
	// domain.ErrVersionConflict when the stored stamp no longer matches, and
	// bumps u.Version on success.
	SaveProgress(ctx context.Context, u *domain.User, delta ProgressDelta) error
	Top(ctx context.Context, limit int) ([]*domain.User, error)
}

// ProgressDelta carries the appended rows of one progress save.
type ProgressDelta struct {
	Completions []domain.CompletionRecord
	Badges      []uuid.UUID
}

// QuizFilter narrows quiz listings; zero values mean "any".
type QuizFilter struct {
	Subject    string
	Difficulty string
}

// QuizStore is the durable quiz definition store.
type QuizStore interface {
	Create(ctx context.Context, q *domain.Quiz) error
	Get(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	ListActive(ctx context.Context, filter QuizFilter) ([]domain.Quiz, error)
	Update(ctx context.Context, q *domain.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BadgeStore is the durable badge definition store. Deleting a definition
// drops it from every holder's set (cascade in Postgres); readers resolving a
// user's set skip ids that no longer exist.
type BadgeStore interface {
	Create(ctx context.Context, b *domain.Badge) error
	Get(ctx context.Context, id uuid.UUID) (domain.Badge, error)
	ListActive(ctx context.Context) ([]domain.Badge, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Badge, error)
	Update(ctx context.Context, b *domain.Badge) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AchievementLog appends immutable achievement events. Append failures
// surface to the caller unchanged; the engine never retries.
type AchievementLog interface {
	Append(ctx context.Context, a *domain.Achievement) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Achievement, error)
}

// QuizRepository serves quiz content for grading, typically through a TTL
// cache in front of the QuizStore.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID uuid.UUID) (domain.Quiz, error)
}

// RankStore maintains the points leaderboard ordering (Redis ZSET or
// in-memory).
type RankStore interface {
	UpdateScore(ctx context.Context, userID uuid.UUID, name string, points int) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	RankOf(ctx context.Context, userID uuid.UUID) (int, error)
	Remove(ctx context.Context, userID uuid.UUID) error
}
