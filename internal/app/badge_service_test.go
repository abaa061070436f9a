package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

func TestEvaluateAwardsPointsBadge(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 1000)
	badge := e.seedBadge(t, domain.Badge{
		Name:     "Scholar",
		Points:   50,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 1000},
	})

	result, err := e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0].ID != badge.ID {
		t.Fatalf("expected Scholar awarded, got %+v", result.NewBadges)
	}
	if result.PointsEarned != 50 || result.TotalPoints != 1050 {
		t.Fatalf("expected bonus 50 on total 1050, got %d on %d", result.PointsEarned, result.TotalPoints)
	}

	saved, err := e.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !saved.HasBadge(badge.ID) {
		t.Fatal("badge not persisted on user")
	}
	if saved.Points != 1050 || saved.Level != 2 {
		t.Fatalf("expected 1050 points at level 2 after bonus, got %d at level %d", saved.Points, saved.Level)
	}

	events, err := e.achievements.ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	if len(events) != 1 || events[0].Type != domain.AchievementBadgeEarned {
		t.Fatalf("expected one BADGE_EARNED event, got %+v", events)
	}
	if events[0].Details.BadgeID != badge.ID || events[0].Details.Points != 50 {
		t.Fatalf("unexpected event details: %+v", events[0].Details)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 1000)
	e.seedBadge(t, domain.Badge{
		Name:     "Scholar",
		Points:   50,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 1000},
	})

	if _, err := e.badgeService.Evaluate(ctx, user.ID); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.NewBadges == nil {
		t.Fatal("NewBadges must be an empty slice, not nil")
	}
	if len(second.NewBadges) != 0 || second.PointsEarned != 0 {
		t.Fatalf("second pass must award nothing, got %+v", second)
	}
	if second.TotalPoints != 1050 {
		t.Fatalf("expected total to hold at 1050, got %d", second.TotalPoints)
	}
}

func TestEvaluateStreakBadge(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	badge := domain.Badge{
		Name:     "Three In A Row",
		Points:   30,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaStreak, Value: 3},
	}

	t.Run("consecutive days qualify", func(t *testing.T) {
		user := e.seedUser(t, 0)
		e.seedBadge(t, badge)
		for _, age := range []time.Duration{48 * time.Hour, 24 * time.Hour, 0} {
			e.seedCompletion(t, user, domain.CompletionRecord{
				QuizID:      uuid.New(),
				Score:       80,
				CompletedAt: e.now.Add(-age),
			})
		}
		result, err := e.badgeService.Evaluate(ctx, user.ID)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(result.NewBadges) != 1 {
			t.Fatalf("expected streak badge, got %+v", result.NewBadges)
		}
	})

	t.Run("gap resets the chain", func(t *testing.T) {
		user := e.seedUser(t, 0)
		for _, age := range []time.Duration{96 * time.Hour, 72 * time.Hour, 0} {
			e.seedCompletion(t, user, domain.CompletionRecord{
				QuizID:      uuid.New(),
				Score:       80,
				CompletedAt: e.now.Add(-age),
			})
		}
		result, err := e.badgeService.Evaluate(ctx, user.ID)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(result.NewBadges) != 0 {
			t.Fatalf("three-day gap must break the streak, got %+v", result.NewBadges)
		}
	})

	t.Run("thirty hour gap still chains", func(t *testing.T) {
		user := e.seedUser(t, 0)
		for _, age := range []time.Duration{60 * time.Hour, 30 * time.Hour, 0} {
			e.seedCompletion(t, user, domain.CompletionRecord{
				QuizID:      uuid.New(),
				Score:       80,
				CompletedAt: e.now.Add(-age),
			})
		}
		result, err := e.badgeService.Evaluate(ctx, user.ID)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(result.NewBadges) != 1 {
			t.Fatalf("30h spacing floors to one day and must chain, got %+v", result.NewBadges)
		}
	})
}

func TestEvaluateSubjectFilteredQuizCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 0)
	e.seedBadge(t, domain.Badge{
		Name:     "Mathlete",
		Points:   25,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaQuizCount, Value: 2, Subject: "Math"},
	})

	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 90, Subject: "Math", CompletedAt: e.now})
	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 90, Subject: "Science", CompletedAt: e.now})

	result, err := e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 0 {
		t.Fatalf("one Math completion must not satisfy count 2, got %+v", result.NewBadges)
	}

	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 90, Subject: "Math", CompletedAt: e.now})
	result, err = e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 1 {
		t.Fatalf("two Math completions must satisfy count 2, got %+v", result.NewBadges)
	}
}

func TestEvaluateQuizScoreWithDifficultyFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 0)
	e.seedBadge(t, domain.Badge{
		Name:     "Hard Mode Ace",
		Points:   40,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaQuizScore, Value: 90, Difficulty: "hard"},
	})

	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 100, Difficulty: "easy", CompletedAt: e.now})
	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 85, Difficulty: "hard", CompletedAt: e.now})

	result, err := e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 0 {
		t.Fatalf("neither attempt satisfies score 90 on hard, got %+v", result.NewBadges)
	}

	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 90, Difficulty: "hard", CompletedAt: e.now})
	result, err = e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 1 {
		t.Fatalf("score 90 on hard meets the threshold, got %+v", result.NewBadges)
	}
}

func TestEvaluateAwardsMultipleBadgesInOnePass(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 980)
	e.seedBadge(t, domain.Badge{
		Name:     "First Steps",
		Points:   10,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaQuizCount, Value: 1},
	})
	e.seedBadge(t, domain.Badge{
		Name:     "Scholar",
		Points:   50,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 980},
	})
	e.seedCompletion(t, user, domain.CompletionRecord{QuizID: uuid.New(), Score: 70, CompletedAt: e.now})

	result, err := e.badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 2 {
		t.Fatalf("expected both badges in one pass, got %+v", result.NewBadges)
	}
	if result.PointsEarned != 60 || result.TotalPoints != 1040 {
		t.Fatalf("expected bonus 60 on total 1040, got %d on %d", result.PointsEarned, result.TotalPoints)
	}

	saved, err := e.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if saved.Level != 2 {
		t.Fatalf("level must be recomputed after bonus points, got %d", saved.Level)
	}
}

func TestEvaluateRejectsUnknownCriteria(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 0)

	// Seeded through the store to bypass creation-time validation, modeling a
	// definition written before the criteria set was closed.
	rogue := &domain.Badge{
		ID:       uuid.New(),
		Name:     "Mystery",
		Active:   true,
		Criteria: domain.BadgeCriteria{Type: "SECRET_HANDSHAKE", Value: 1},
	}
	if err := e.badges.Create(ctx, rogue); err != nil {
		t.Fatalf("seed rogue badge: %v", err)
	}

	_, err := e.badgeService.Evaluate(ctx, user.ID)
	if !errors.Is(err, domain.ErrUnknownCriteria) {
		t.Fatalf("expected ErrUnknownCriteria, got %v", err)
	}
}

func TestCreateRejectsUnknownCriteria(t *testing.T) {
	e := newEnv(t)
	err := e.badgeService.Create(context.Background(), &domain.Badge{
		Name:     "Mystery",
		Criteria: domain.BadgeCriteria{Type: "SECRET_HANDSHAKE", Value: 1},
	})
	if !errors.Is(err, domain.ErrUnknownCriteria) {
		t.Fatalf("expected ErrUnknownCriteria, got %v", err)
	}
}

func TestListForUserPreservesAwardOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 2000)
	first := e.seedBadge(t, domain.Badge{
		Name:     "Apprentice",
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 1000},
	})
	second := e.seedBadge(t, domain.Badge{
		Name:     "Sage",
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 2000},
	})

	if _, err := e.badgeService.Evaluate(ctx, user.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	earned, err := e.badgeService.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(earned) != 2 {
		t.Fatalf("expected two earned badges, got %d", len(earned))
	}
	if earned[0].ID != first.ID || earned[1].ID != second.ID {
		t.Fatalf("award order not preserved: %s then %s", earned[0].Name, earned[1].Name)
	}
}

func TestEvaluateRetriesOnVersionConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.seedUser(t, 1000)
	badge := e.seedBadge(t, domain.Badge{
		Name:     "Scholar",
		Points:   50,
		Criteria: domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 1000},
	})

	conflicted := &conflictingStore{UserStore: e.users, conflicts: 2}
	service := app.NewBadgeService(conflicted, e.badges, e.achievements, e.leaderboard, testLogger())

	result, err := service.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0].ID != badge.ID {
		t.Fatalf("expected award after retries, got %+v", result.NewBadges)
	}

	saved, err := e.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !saved.HasBadge(badge.ID) || saved.Points != 1050 {
		t.Fatalf("award not persisted: badges=%v points=%d", saved.Badges, saved.Points)
	}
}
