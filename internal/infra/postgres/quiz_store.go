package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

// QuizStore persists quiz definitions with their question list as JSONB.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) Create(ctx context.Context, q *domain.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO quizzes (id, title, description, subject, difficulty, time_limit, points, active, creator_id, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.Title, q.Description, q.Subject, q.Difficulty, q.TimeLimit, q.Points, q.Active, q.CreatorID, questions, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Get(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, title, description, subject, difficulty, time_limit, points, active, creator_id, questions, created_at
		FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row)
}

// ListActive matches subject as a case-insensitive substring (mirroring the
// search box behavior) and difficulty exactly.
func (s *QuizStore) ListActive(ctx context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, description, subject, difficulty, time_limit, points, active, creator_id, questions, created_at
		FROM quizzes
		WHERE active
		  AND ($1 = '' OR subject ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR difficulty = $2)
		ORDER BY created_at DESC`, filter.Subject, filter.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *QuizStore) Update(ctx context.Context, q *domain.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET title=$1, description=$2, subject=$3, difficulty=$4, time_limit=$5, points=$6, active=$7, questions=$8
		WHERE id=$9`,
		q.Title, q.Description, q.Subject, q.Difficulty, q.TimeLimit, q.Points, q.Active, questions, q.ID)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Subject, &quiz.Difficulty,
		&quiz.TimeLimit, &quiz.Points, &quiz.Active, &quiz.CreatorID, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("scan quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
