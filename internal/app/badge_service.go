package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quizquest-service/internal/domain"
)

// BadgeService contains badge definition CRUD and the qualification
// evaluator.
type BadgeService struct {
	users        UserStore
	badges       BadgeStore
	achievements AchievementLog
	scores       ScorePublisher
	log          *logrus.Entry
	now          func() time.Time
}

func NewBadgeService(users UserStore, badges BadgeStore, achievements AchievementLog, scores ScorePublisher, log *logrus.Logger) *BadgeService {
	return &BadgeService{
		users:        users,
		badges:       badges,
		achievements: achievements,
		scores:       scores,
		log:          log.WithField("component", "badge"),
		now:          time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *BadgeService) WithClock(now func() time.Time) *BadgeService {
	s.now = now
	return s
}

// Create persists a badge definition. The criteria type must belong to the
// closed set; anything else never reaches the evaluator.
func (s *BadgeService) Create(ctx context.Context, badge *domain.Badge) error {
	if !badge.Criteria.Type.Valid() {
		return domain.ErrUnknownCriteria
	}
	if badge.ID == uuid.Nil {
		badge.ID = uuid.New()
	}
	badge.Active = true
	badge.CreatedAt = s.now()
	if err := s.badges.Create(ctx, badge); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"badge_id": badge.ID, "criteria": badge.Criteria.Type}).Info("badge created")
	return nil
}

func (s *BadgeService) Get(ctx context.Context, id uuid.UUID) (domain.Badge, error) {
	return s.badges.Get(ctx, id)
}

func (s *BadgeService) ListActive(ctx context.Context) ([]domain.Badge, error) {
	return s.badges.ListActive(ctx)
}

// ListForUser resolves the user's earned badge set to full definitions,
// insertion order preserved for display.
func (s *BadgeService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Badge, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.badges.ListByIDs(ctx, user.Badges)
}

func (s *BadgeService) Update(ctx context.Context, badge *domain.Badge) error {
	if !badge.Criteria.Type.Valid() {
		return domain.ErrUnknownCriteria
	}
	if _, err := s.badges.Get(ctx, badge.ID); err != nil {
		return err
	}
	return s.badges.Update(ctx, badge)
}

func (s *BadgeService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.badges.Get(ctx, id); err != nil {
		return err
	}
	return s.badges.Delete(ctx, id)
}

// Evaluate scans all active badges against the user's completion history and
// point total, awarding every unearned badge whose criteria now hold. Each
// award extends the badge set, adds the badge bonus to the point total and
// emits a BADGE_EARNED achievement; a single version-checked save persists
// the pass. An empty result means nothing newly qualified.
//
// Evaluation is eventually consistent with submission: it reads whatever user
// state is durably committed, so callers wanting immediate awarding invoke it
// right after a successful submission.
func (s *BadgeService) Evaluate(ctx context.Context, userID uuid.UUID) (domain.EvaluationResult, error) {
	all, err := s.badges.ListActive(ctx)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	var (
		user    *domain.User
		awarded []domain.Badge
	)
	for attempt := 0; ; attempt++ {
		user, err = s.users.Get(ctx, userID)
		if err != nil {
			return domain.EvaluationResult{}, err
		}

		awarded = awarded[:0]
		for _, badge := range all {
			if user.HasBadge(badge.ID) {
				continue
			}
			ok, err := qualifies(user, badge.Criteria)
			if err != nil {
				return domain.EvaluationResult{}, fmt.Errorf("badge %s: %w", badge.ID, err)
			}
			if !ok {
				continue
			}
			awarded = append(awarded, badge)
			user.Badges = append(user.Badges, badge.ID)
			user.Points += badge.Points
		}
		if len(awarded) == 0 {
			return domain.EvaluationResult{NewBadges: []domain.Badge{}, TotalPoints: user.Points}, nil
		}

		user.Level = LevelFor(user.Points)
		ids := make([]uuid.UUID, len(awarded))
		for i, b := range awarded {
			ids[i] = b.ID
		}
		err = s.users.SaveProgress(ctx, user, ProgressDelta{Badges: ids})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt+1 >= maxSaveRetries {
			return domain.EvaluationResult{}, err
		}
		s.log.WithField("user_id", userID).Debug("award save conflicted, retrying")
	}

	bonus := 0
	for _, badge := range awarded {
		bonus += badge.Points
		event := &domain.Achievement{
			ID:        uuid.New(),
			UserID:    user.ID,
			Type:      domain.AchievementBadgeEarned,
			Details:   domain.AchievementDetails{BadgeID: badge.ID, Points: badge.Points},
			CreatedAt: s.now(),
		}
		if err := s.achievements.Append(ctx, event); err != nil {
			return domain.EvaluationResult{}, err
		}
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "badge": badge.Name}).Info("badge awarded")
	}

	s.scores.Publish(ctx, user)

	return domain.EvaluationResult{
		NewBadges:    awarded,
		PointsEarned: bonus,
		TotalPoints:  user.Points,
	}, nil
}

// qualifies evaluates one criteria against the user's state. The switch is
// exhaustive over the closed criteria set; an unknown type is an error, never
// a silent miss.
func qualifies(user *domain.User, c domain.BadgeCriteria) (bool, error) {
	switch c.Type {
	case domain.CriteriaQuizScore:
		for _, rec := range user.Completions {
			if rec.Score >= c.Value && matchesFilter(rec, c) {
				return true, nil
			}
		}
		return false, nil
	case domain.CriteriaQuizCount:
		count := 0
		for _, rec := range user.Completions {
			if matchesFilter(rec, c) {
				count++
			}
		}
		return float64(count) >= c.Value, nil
	case domain.CriteriaPoints:
		return float64(user.Points) >= c.Value, nil
	case domain.CriteriaStreak:
		return float64(streakLength(user.Completions)) >= c.Value, nil
	default:
		return false, domain.ErrUnknownCriteria
	}
}

func matchesFilter(rec domain.CompletionRecord, c domain.BadgeCriteria) bool {
	if c.Subject != "" && rec.Subject != c.Subject {
		return false
	}
	if c.Difficulty != "" && rec.Difficulty != c.Difficulty {
		return false
	}
	return true
}

// streakLength counts consecutive-day completions ending at the most recent
// attempt. Records are walked newest first and the chain extends only while
// the elapsed time between neighbours floor-divides to exactly one 24h
// period; any other gap stops the walk. The comparison is on raw elapsed
// time, not calendar-day boundaries: two completions 30h apart chain, two
// completions 23h apart stop the walk even when they straddle midnight. Only
// the streak ending at the most recent attempt is measured, never the longest
// streak anywhere in history.
func streakLength(completions []domain.CompletionRecord) int {
	if len(completions) == 0 {
		return 0
	}

	sorted := make([]domain.CompletionRecord, len(completions))
	copy(sorted, completions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	streak := 1
	current := sorted[0].CompletedAt
	for _, rec := range sorted[1:] {
		days := int(current.Sub(rec.CompletedAt).Hours() / 24)
		if days != 1 {
			break
		}
		streak++
		current = rec.CompletedAt
	}
	return streak
}
