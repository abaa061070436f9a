package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

const (
	rankKey  = "leaderboard:points"
	namesKey = "leaderboard:names"
)

// RankStore keeps the points leaderboard in a Redis sorted set keyed by user
// id, with a companion hash for display names.
type RankStore struct {
	client *redis.Client
}

func NewRankStore(client *redis.Client) *RankStore {
	return &RankStore{client: client}
}

func (s *RankStore) UpdateScore(ctx context.Context, userID uuid.UUID, name string, points int) error {
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, rankKey, redis.Z{Score: float64(points), Member: userID.String()})
	pipe.HSet(ctx, namesKey, userID.String(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard update: %w", err)
	}
	return nil
}

func (s *RankStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	members, err := s.client.ZRevRangeWithScores(ctx, rankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}
	if len(members) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member.(string)
	}
	names, err := s.client.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard names: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		userID, err := uuid.Parse(ids[i])
		if err != nil {
			continue
		}
		name := ""
		if s, ok := names[i].(string); ok {
			name = s
		}
		points := int(m.Score)
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: userID,
			Name:   name,
			Points: points,
			Level:  app.LevelFor(points),
		})
	}
	return entries, nil
}

func (s *RankStore) RankOf(ctx context.Context, userID uuid.UUID) (int, error) {
	rank, err := s.client.ZRevRank(ctx, rankKey, userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("leaderboard rank: %w", err)
	}
	return int(rank) + 1, nil
}

func (s *RankStore) Remove(ctx context.Context, userID uuid.UUID) error {
	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, rankKey, userID.String())
	pipe.HDel(ctx, namesKey, userID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard remove: %w", err)
	}
	return nil
}
