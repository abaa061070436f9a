package app_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
	"quizquest-service/internal/infra/memory"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// env wires the services over in-memory infrastructure with a fixed clock.
type env struct {
	users        *memory.UserStore
	quizzes      *memory.QuizStore
	badges       *memory.BadgeStore
	achievements *memory.AchievementLog
	ranks        *memory.RankStore
	leaderboard  *app.LeaderboardService
	quizService  *app.QuizService
	badgeService *app.BadgeService
	now          time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := testLogger()
	e := &env{
		users:        memory.NewUserStore(),
		quizzes:      memory.NewQuizStore(),
		badges:       memory.NewBadgeStore(),
		achievements: memory.NewAchievementLog(),
		ranks:        memory.NewRankStore(),
		now:          time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }
	e.leaderboard = app.NewLeaderboardService(e.ranks, log).WithClock(clock)
	content := memory.NewQuizRepository(e.quizzes, 5*time.Minute)
	e.quizService = app.NewQuizService(e.users, e.quizzes, content, e.achievements, e.leaderboard, log).WithClock(clock)
	e.badgeService = app.NewBadgeService(e.users, e.badges, e.achievements, e.leaderboard, log).WithClock(clock)
	return e
}

func (e *env) seedUser(t *testing.T, points int) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        uuid.New(),
		Name:      "Alice",
		Email:     uuid.NewString() + "@example.com",
		Points:    points,
		Level:     app.LevelFor(points),
		CreatedAt: e.now,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *env) seedQuiz(t *testing.T, quiz domain.Quiz) domain.Quiz {
	t.Helper()
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	quiz.Active = true
	if err := e.quizzes.Create(context.Background(), &quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

func (e *env) seedBadge(t *testing.T, badge domain.Badge) domain.Badge {
	t.Helper()
	if badge.ID == uuid.Nil {
		badge.ID = uuid.New()
	}
	badge.Active = true
	if err := e.badges.Create(context.Background(), &badge); err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	return badge
}

func quizContentFor(e *env) app.QuizRepository {
	return memory.NewQuizRepository(e.quizzes, 5*time.Minute)
}

// seedCompletion appends a completion record directly through the store.
func (e *env) seedCompletion(t *testing.T, user *domain.User, rec domain.CompletionRecord) {
	t.Helper()
	ctx := context.Background()
	fresh, err := e.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	fresh.Completions = append(fresh.Completions, rec)
	if err := e.users.SaveProgress(ctx, fresh, app.ProgressDelta{Completions: []domain.CompletionRecord{rec}}); err != nil {
		t.Fatalf("seed completion: %v", err)
	}
}
