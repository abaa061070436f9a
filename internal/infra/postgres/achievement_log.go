package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizquest-service/internal/domain"
)

// AchievementLog is the append-only achievement event table.
type AchievementLog struct {
	pool *pgxpool.Pool
}

func NewAchievementLog(pool *pgxpool.Pool) *AchievementLog {
	return &AchievementLog{pool: pool}
}

func (l *AchievementLog) Append(ctx context.Context, a *domain.Achievement) error {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("marshal achievement details: %w", err)
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO achievements (id, user_id, type, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, string(a.Type), details, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("append achievement: %w", err)
	}
	return nil
}

func (l *AchievementLog) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Achievement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx, `SELECT id, user_id, type, details, created_at
		FROM achievements WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var (
			event domain.Achievement
			kind  string
			raw   []byte
		)
		if err := rows.Scan(&event.ID, &event.UserID, &kind, &raw, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		event.Type = domain.AchievementType(kind)
		if err := json.Unmarshal(raw, &event.Details); err != nil {
			return nil, fmt.Errorf("unmarshal achievement details: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
