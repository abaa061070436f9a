package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quizquest-service/internal/app"
	"quizquest-service/internal/auth"
	"quizquest-service/internal/config"
	"quizquest-service/internal/infra/memory"
	"quizquest-service/internal/infra/postgres"
	infraredis "quizquest-service/internal/infra/redis"
	transport "quizquest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		users        app.UserStore
		quizzes      app.QuizStore
		badges       app.BadgeStore
		achievements app.AchievementLog
	)
	if pool != nil {
		users = postgres.NewUserStore(pool)
		quizzes = postgres.NewQuizStore(pool)
		badges = postgres.NewBadgeStore(pool)
		achievements = postgres.NewAchievementLog(pool)
	} else {
		log.Warn("no postgres configured, falling back to in-memory stores")
		users = memory.NewUserStore()
		quizzes = memory.NewQuizStore()
		badges = memory.NewBadgeStore()
		achievements = memory.NewAchievementLog()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var content app.QuizRepository
	if redisClient != nil {
		content = infraredis.NewQuizRepository(redisClient, quizzes, quizTTL)
	} else {
		content = memory.NewQuizRepository(quizzes, quizTTL)
	}

	var ranks app.RankStore
	if redisClient != nil {
		ranks = infraredis.NewRankStore(redisClient)
	} else {
		ranks = memory.NewRankStore()
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	tokens := auth.NewManager(cfg.Auth.Secret, tokenTTL)

	leaderboard := app.NewLeaderboardService(ranks, log)
	userService := app.NewUserService(users, tokens, leaderboard, achievements, log)
	quizService := app.NewQuizService(users, quizzes, content, achievements, leaderboard, log)
	badgeService := app.NewBadgeService(users, badges, achievements, leaderboard, log)

	handler := transport.NewHandler(userService, quizService, badgeService, leaderboard, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(tokens),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quizquest service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if parsed, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(parsed)
	}
	return log
}
