package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"quizquest-service/internal/domain"
)

const defaultTopN = 20

// LeaderboardService maintains the ranked scoreboard and fans out snapshots
// to subscribers whenever a user's total changes.
type LeaderboardService struct {
	ranks RankStore
	log   *logrus.Entry
	now   func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(ranks RankStore, log *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{
		ranks:       ranks,
		log:         log.WithField("component", "leaderboard"),
		now:         time.Now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	s.now = now
	return s
}

// Publish records the user's new total and broadcasts a fresh snapshot.
// The leaderboard is derived state, so rank-store failures are logged rather
// than propagated into the submission path.
func (s *LeaderboardService) Publish(ctx context.Context, user *domain.User) {
	if err := s.ranks.UpdateScore(ctx, user.ID, user.Name, user.Points); err != nil {
		s.log.WithError(err).Warn("leaderboard update failed")
		return
	}
	snapshot, err := s.Top(ctx, defaultTopN)
	if err != nil {
		s.log.WithError(err).Warn("leaderboard snapshot failed")
		return
	}
	s.broadcast(snapshot)
}

// Top returns the ranked scoreboard limited to the given size.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = defaultTopN
	}
	entries, err := s.ranks.Top(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// Subscribe returns a channel receiving leaderboard snapshots, seeded with
// the current one. The caller must invoke the cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Top(ctx, defaultTopN)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) broadcast(snapshot domain.Leaderboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so slow clients never block the feed.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
