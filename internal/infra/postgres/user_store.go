package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

// UserStore persists users, their completion history and badge awards.
// Progress saves are guarded by a version column: the UPDATE matches the
// stamp the caller read, so a concurrent writer makes the save miss and the
// caller retries on a fresh read instead of clobbering it.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Get loads the user with completions joined to their quiz's subject and
// difficulty (left join, so attempts at deleted quizzes keep their rows) and
// badges in award order.
func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.scanUser(ctx, `SELECT id, name, email, password_hash, is_admin, points, level, version, created_at
		FROM users WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadProgress(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.scanUser(ctx, `SELECT id, name, email, password_hash, is_admin, points, level, version, created_at
		FROM users WHERE email=$1`, email)
	if err != nil {
		return nil, err
	}
	if err := s.loadProgress(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) scanUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin,
		&user.Points, &user.Level, &user.Version, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) loadProgress(ctx context.Context, user *domain.User) error {
	rows, err := s.pool.Query(ctx, `SELECT c.quiz_id, c.score, c.completed_at,
			COALESCE(q.subject, ''), COALESCE(q.difficulty, '')
		FROM completions c
		LEFT JOIN quizzes q ON q.id = c.quiz_id
		WHERE c.user_id=$1
		ORDER BY c.completed_at, c.id`, user.ID)
	if err != nil {
		return fmt.Errorf("load completions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.CompletionRecord
		if err := rows.Scan(&rec.QuizID, &rec.Score, &rec.CompletedAt, &rec.Subject, &rec.Difficulty); err != nil {
			return fmt.Errorf("scan completion: %w", err)
		}
		user.Completions = append(user.Completions, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load completions: %w", err)
	}

	badgeRows, err := s.pool.Query(ctx, `SELECT badge_id FROM user_badges
		WHERE user_id=$1 ORDER BY awarded_at`, user.ID)
	if err != nil {
		return fmt.Errorf("load badges: %w", err)
	}
	defer badgeRows.Close()
	for badgeRows.Next() {
		var badgeID uuid.UUID
		if err := badgeRows.Scan(&badgeID); err != nil {
			return fmt.Errorf("scan badge: %w", err)
		}
		user.Badges = append(user.Badges, badgeID)
	}
	return badgeRows.Err()
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, is_admin, points, level, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.Points, u.Level, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserStore) SaveProgress(ctx context.Context, u *domain.User, delta app.ProgressDelta) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin progress save: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE users SET points=$1, level=$2, version=version+1
		WHERE id=$3 AND version=$4`, u.Points, u.Level, u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	for _, rec := range delta.Completions {
		if _, err := tx.Exec(ctx, `INSERT INTO completions (user_id, quiz_id, score, completed_at)
			VALUES ($1, $2, $3, $4)`, u.ID, rec.QuizID, rec.Score, rec.CompletedAt); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
	}
	for _, badgeID := range delta.Badges {
		if _, err := tx.Exec(ctx, `INSERT INTO user_badges (user_id, badge_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, u.ID, badgeID); err != nil {
			return fmt.Errorf("insert badge award: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit progress save: %w", err)
	}
	u.Version++
	return nil
}

func (s *UserStore) Top(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, points, level FROM users
		ORDER BY points DESC, name LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Points, &user.Level); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, &user)
	}
	return out, rows.Err()
}
