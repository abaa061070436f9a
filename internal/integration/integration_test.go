package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
	"quizquest-service/internal/infra/postgres"
	"quizquest-service/internal/infra/postgres/migrations"
	infraredis "quizquest-service/internal/infra/redis"
)

func TestSubmissionAndBadgeFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := postgres.NewUserStore(pool)
	quizzes := postgres.NewQuizStore(pool)
	badges := postgres.NewBadgeStore(pool)
	achievements := postgres.NewAchievementLog(pool)
	content := infraredis.NewQuizRepository(redisClient, quizzes, 5*time.Minute)
	ranks := infraredis.NewRankStore(redisClient)

	leaderboard := app.NewLeaderboardService(ranks, log)
	quizService := app.NewQuizService(users, quizzes, content, achievements, leaderboard, log)
	badgeService := app.NewBadgeService(users, badges, achievements, leaderboard, log)

	user := &domain.User{
		ID:        uuid.New(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	admin := app.Actor{ID: user.ID, Admin: true}
	quiz := domain.Quiz{
		Title:       "Fractions",
		Description: "Add and compare fractions",
		Subject:     "Math",
		Difficulty:  "easy",
		TimeLimit:   300,
		Points:      100,
		Questions: []domain.Question{
			{Prompt: "1/2 + 1/4?", Options: []domain.Option{{Text: "3/4", Correct: true}, {Text: "2/6"}}},
			{Prompt: "Bigger: 1/3 or 1/4?", Options: []domain.Option{{Text: "1/3", Correct: true}, {Text: "1/4"}}},
		},
	}
	if err := quizService.Create(ctx, admin, &quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	badge := domain.Badge{
		Name:        "First Steps",
		Description: "Complete a quiz",
		Icon:        "star",
		Rarity:      "common",
		Points:      10,
		Criteria:    domain.BadgeCriteria{Type: domain.CriteriaQuizCount, Value: 1},
	}
	if err := badgeService.Create(ctx, &badge); err != nil {
		t.Fatalf("create badge: %v", err)
	}

	result, err := quizService.Submit(ctx, user.ID, quiz.ID, []string{"3/4", "1/4"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 50 || result.PointsEarned != 50 {
		t.Fatalf("expected 50%% for 50 points, got %+v", result)
	}

	evaluation, err := badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(evaluation.NewBadges) != 1 || evaluation.NewBadges[0].ID != badge.ID {
		t.Fatalf("expected First Steps awarded, got %+v", evaluation.NewBadges)
	}
	if evaluation.TotalPoints != 60 {
		t.Fatalf("expected 60 total points after bonus, got %d", evaluation.TotalPoints)
	}

	// Re-evaluation must be a no-op.
	again, err := badgeService.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(again.NewBadges) != 0 {
		t.Fatalf("badge must not be awarded twice, got %+v", again.NewBadges)
	}

	// State survives a reload from Postgres, completion metadata included.
	fresh, err := users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if fresh.Points != 60 || !fresh.HasBadge(badge.ID) {
		t.Fatalf("persisted state wrong: points=%d badges=%v", fresh.Points, fresh.Badges)
	}
	if len(fresh.Completions) != 1 || fresh.Completions[0].Subject != "Math" {
		t.Fatalf("completion metadata not resolved: %+v", fresh.Completions)
	}

	// Leaderboard reflects the final total through Redis.
	board, err := leaderboard.Top(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Points != 60 {
		t.Fatalf("unexpected leaderboard: %+v", board.Entries)
	}

	latest, err := quizService.Results(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if latest.Score != 50 || latest.QuizTitle != "Fractions" {
		t.Fatalf("unexpected latest result: %+v", latest)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
