package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"quizquest-service/internal/domain"
)

// TokenIssuer mints an auth token for a user (JWT in production).
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// UserService covers registration, login and profile reads.
type UserService struct {
	users        UserStore
	tokens       TokenIssuer
	scores       ScorePublisher
	achievements AchievementLog
	log          *logrus.Entry
	now          func() time.Time
	cost         int
}

func NewUserService(users UserStore, tokens TokenIssuer, scores ScorePublisher, achievements AchievementLog, log *logrus.Logger) *UserService {
	return &UserService{
		users:        users,
		tokens:       tokens,
		scores:       scores,
		achievements: achievements,
		log:          log.WithField("component", "user"),
		now:          time.Now,
		cost:         bcrypt.DefaultCost,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// WithBcryptCost lowers the hash cost in tests.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.cost = cost
	return s
}

// Register creates a user at level 1 with zero points and returns a signed
// token for the new identity.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	switch _, err := s.users.GetByEmail(ctx, email); {
	case err == nil:
		return nil, "", domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Points:       0,
		Level:        1,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.scores.Publish(ctx, user)
	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, token, nil
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Profile returns the user with completion history resolved.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

// Achievements lists the user's recent achievement events, newest first.
func (s *UserService) Achievements(ctx context.Context, id uuid.UUID, limit int) ([]domain.Achievement, error) {
	return s.achievements.ListByUser(ctx, id, limit)
}
