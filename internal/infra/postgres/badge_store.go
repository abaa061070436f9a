package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizquest-service/internal/domain"
)

// BadgeStore persists badge definitions. Criteria are stored as typed
// columns, not a JSON blob, so the closed criteria set is visible to SQL.
type BadgeStore struct {
	pool *pgxpool.Pool
}

func NewBadgeStore(pool *pgxpool.Pool) *BadgeStore {
	return &BadgeStore{pool: pool}
}

const badgeColumns = `id, name, description, icon, rarity, criteria_type, criteria_value, criteria_subject, criteria_difficulty, points, active, created_at`

func (s *BadgeStore) Create(ctx context.Context, b *domain.Badge) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO badges (`+badgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.Name, b.Description, b.Icon, b.Rarity,
		string(b.Criteria.Type), b.Criteria.Value, b.Criteria.Subject, b.Criteria.Difficulty,
		b.Points, b.Active, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create badge: %w", err)
	}
	return nil
}

func (s *BadgeStore) Get(ctx context.Context, id uuid.UUID) (domain.Badge, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id=$1`, id)
	return scanBadge(row)
}

func (s *BadgeStore) ListActive(ctx context.Context) ([]domain.Badge, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+badgeColumns+` FROM badges WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()
	return collectBadges(rows)
}

// ListByIDs resolves badge ids preserving the given (award) order.
func (s *BadgeStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Badge, error) {
	if len(ids) == 0 {
		return []domain.Badge{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list badges by id: %w", err)
	}
	defer rows.Close()
	unordered, err := collectBadges(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Badge, len(unordered))
	for _, b := range unordered {
		byID[b.ID] = b
	}
	out := make([]domain.Badge, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BadgeStore) Update(ctx context.Context, b *domain.Badge) error {
	tag, err := s.pool.Exec(ctx, `UPDATE badges SET name=$1, description=$2, icon=$3, rarity=$4,
		criteria_type=$5, criteria_value=$6, criteria_subject=$7, criteria_difficulty=$8,
		points=$9, active=$10 WHERE id=$11`,
		b.Name, b.Description, b.Icon, b.Rarity,
		string(b.Criteria.Type), b.Criteria.Value, b.Criteria.Subject, b.Criteria.Difficulty,
		b.Points, b.Active, b.ID)
	if err != nil {
		return fmt.Errorf("update badge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBadgeNotFound
	}
	return nil
}

// Delete removes the definition; user_badges rows cascade away with it.
func (s *BadgeStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM badges WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete badge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBadgeNotFound
	}
	return nil
}

func scanBadge(row pgx.Row) (domain.Badge, error) {
	var (
		badge        domain.Badge
		criteriaType string
	)
	err := row.Scan(&badge.ID, &badge.Name, &badge.Description, &badge.Icon, &badge.Rarity,
		&criteriaType, &badge.Criteria.Value, &badge.Criteria.Subject, &badge.Criteria.Difficulty,
		&badge.Points, &badge.Active, &badge.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Badge{}, domain.ErrBadgeNotFound
	}
	if err != nil {
		return domain.Badge{}, fmt.Errorf("scan badge: %w", err)
	}
	badge.Criteria.Type = domain.CriteriaType(criteriaType)
	return badge, nil
}

func collectBadges(rows pgx.Rows) ([]domain.Badge, error) {
	var out []domain.Badge
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, badge)
	}
	return out, rows.Err()
}
