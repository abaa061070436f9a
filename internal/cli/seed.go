package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"quizquest-service/internal/config"
	"quizquest-service/internal/domain"
	"quizquest-service/internal/infra/postgres"
)

// NewSeedCmd loads demo content: an admin account, two quizzes and a starter
// badge set.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo quizzes, badges and an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, newLogger(cfg.Log.Level))
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := postgres.NewUserStore(pool)
	quizzes := postgres.NewQuizStore(pool)
	badges := postgres.NewBadgeStore(pool)
	now := time.Now()

	admin, err := users.GetByEmail(ctx, "admin@quizquest.local")
	if errors.Is(err, domain.ErrUserNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin = &domain.User{
			ID:           uuid.New(),
			Name:         "Admin",
			Email:        "admin@quizquest.local",
			PasswordHash: string(hash),
			IsAdmin:      true,
			Points:       0,
			Level:        1,
			CreatedAt:    now,
		}
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
		log.Info("admin user created (admin@quizquest.local / changeme)")
	} else if err != nil {
		return err
	}

	for _, quiz := range sampleQuizzes(admin.ID, now) {
		quiz := quiz
		if err := quizzes.Create(ctx, &quiz); err != nil {
			return err
		}
	}
	for _, badge := range sampleBadges(now) {
		badge := badge
		if err := badges.Create(ctx, &badge); err != nil {
			return err
		}
	}
	log.Info("demo content seeded")
	return nil
}

func sampleQuizzes(creator uuid.UUID, now time.Time) []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          uuid.New(),
			Title:       "Arithmetic Basics",
			Description: "Warm-up arithmetic questions",
			Subject:     "Math",
			Difficulty:  "easy",
			TimeLimit:   300,
			Points:      100,
			Active:      true,
			CreatorID:   creator,
			CreatedAt:   now,
			Questions: []domain.Question{
				{
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{Text: "3"}, {Text: "4", Correct: true}, {Text: "5"},
					},
				},
				{
					Prompt: "What is 9 * 7?",
					Options: []domain.Option{
						{Text: "63", Correct: true}, {Text: "56"}, {Text: "72"},
					},
				},
			},
		},
		{
			ID:          uuid.New(),
			Title:       "Solar System",
			Description: "Planets and their order",
			Subject:     "Science",
			Difficulty:  "medium",
			TimeLimit:   300,
			Points:      150,
			Active:      true,
			CreatorID:   creator,
			CreatedAt:   now,
			Questions: []domain.Question{
				{
					Prompt: "Which planet is closest to the sun?",
					Options: []domain.Option{
						{Text: "Venus"}, {Text: "Mercury", Correct: true}, {Text: "Mars"},
					},
				},
			},
		},
	}
}

func sampleBadges(now time.Time) []domain.Badge {
	return []domain.Badge{
		{
			ID:          uuid.New(),
			Name:        "First Steps",
			Description: "Complete your first quiz",
			Icon:        "footprints",
			Rarity:      "common",
			Criteria:    domain.BadgeCriteria{Type: domain.CriteriaQuizCount, Value: 1},
			Points:      10,
			Active:      true,
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "Perfectionist",
			Description: "Score 100% on any quiz",
			Icon:        "star",
			Rarity:      "rare",
			Criteria:    domain.BadgeCriteria{Type: domain.CriteriaQuizScore, Value: 100},
			Points:      50,
			Active:      true,
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "Scholar",
			Description: "Earn 1000 points",
			Icon:        "graduation-cap",
			Rarity:      "rare",
			Criteria:    domain.BadgeCriteria{Type: domain.CriteriaPoints, Value: 1000},
			Points:      50,
			Active:      true,
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "Week Warrior",
			Description: "Keep a 7-day completion streak",
			Icon:        "flame",
			Rarity:      "epic",
			Criteria:    domain.BadgeCriteria{Type: domain.CriteriaStreak, Value: 7},
			Points:      100,
			Active:      true,
			CreatedAt:   now,
		},
	}
}
