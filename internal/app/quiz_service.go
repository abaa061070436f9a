package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quizquest-service/internal/domain"
)

// maxSaveRetries bounds the reload-and-reapply loop on version conflicts.
const maxSaveRetries = 3

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// ScorePublisher receives a user's new point total after a successful
// progress save (leaderboard fan-out).
type ScorePublisher interface {
	Publish(ctx context.Context, user *domain.User)
}

// QuizService contains the quiz use cases: definition CRUD and submission
// grading with its progression side effects.
type QuizService struct {
	users        UserStore
	quizzes      QuizStore
	content      QuizRepository
	achievements AchievementLog
	scores       ScorePublisher
	log          *logrus.Entry
	now          func() time.Time
}

func NewQuizService(users UserStore, quizzes QuizStore, content QuizRepository, achievements AchievementLog, scores ScorePublisher, log *logrus.Logger) *QuizService {
	return &QuizService{
		users:        users,
		quizzes:      quizzes,
		content:      content,
		achievements: achievements,
		scores:       scores,
		log:          log.WithField("component", "quiz"),
		now:          time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// Create persists a new quiz after validating its answer key: every question
// must carry exactly one correct option, so a quiz can never be created in a
// shape where a question is silently impossible to answer.
func (s *QuizService) Create(ctx context.Context, actor Actor, quiz *domain.Quiz) error {
	if len(quiz.Questions) == 0 {
		return domain.ErrEmptyQuiz
	}
	if err := ValidateAnswerKey(quiz.Questions); err != nil {
		return err
	}
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	quiz.CreatorID = actor.ID
	quiz.Active = true
	quiz.CreatedAt = s.now()
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"quiz_id": quiz.ID, "subject": quiz.Subject}).Info("quiz created")
	return nil
}

// Get returns one quiz definition, answer flags included; the transport layer
// strips them for non-grading responses.
func (s *QuizService) Get(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	return s.quizzes.Get(ctx, id)
}

// ListActive returns active quizzes matching the optional subject/difficulty
// filters.
func (s *QuizService) ListActive(ctx context.Context, filter QuizFilter) ([]domain.Quiz, error) {
	return s.quizzes.ListActive(ctx, filter)
}

// Update replaces a quiz definition. Only the creator or an admin may update;
// the replacement answer key is validated the same way as at creation.
func (s *QuizService) Update(ctx context.Context, actor Actor, quiz *domain.Quiz) error {
	existing, err := s.quizzes.Get(ctx, quiz.ID)
	if err != nil {
		return err
	}
	if existing.CreatorID != actor.ID && !actor.Admin {
		return domain.ErrForbidden
	}
	if len(quiz.Questions) == 0 {
		return domain.ErrEmptyQuiz
	}
	if err := ValidateAnswerKey(quiz.Questions); err != nil {
		return err
	}
	quiz.CreatorID = existing.CreatorID
	quiz.CreatedAt = existing.CreatedAt
	return s.quizzes.Update(ctx, quiz)
}

// Delete removes a quiz definition. Completion history keeps its rows; the
// read-side join simply stops resolving subject/difficulty for them.
func (s *QuizService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	existing, err := s.quizzes.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.CreatorID != actor.ID && !actor.Admin {
		return domain.ErrForbidden
	}
	return s.quizzes.Delete(ctx, id)
}

// Submit grades a submission and applies its side effects: appends a
// completion record, adds the earned points, recomputes the level, persists
// through a version-checked save, then emits QUIZ_COMPLETION (and LEVEL_UP)
// achievements and pushes the new total to the leaderboard.
//
// Badge evaluation is not triggered here; callers invoke it explicitly after
// a submission when immediate awarding is desired.
func (s *QuizService) Submit(ctx context.Context, userID, quizID uuid.UUID, answers []string) (domain.SubmissionResult, error) {
	quiz, err := s.content.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	grade, err := GradeAnswers(quiz, answers)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	var (
		user      *domain.User
		leveledUp bool
	)
	for attempt := 0; ; attempt++ {
		user, err = s.users.Get(ctx, userID)
		if err != nil {
			return domain.SubmissionResult{}, err
		}

		record := domain.CompletionRecord{
			QuizID:      quiz.ID,
			Score:       grade.ScorePercent,
			CompletedAt: s.now(),
			Subject:     quiz.Subject,
			Difficulty:  quiz.Difficulty,
		}
		oldLevel := user.Level
		user.Points += grade.PointsEarned
		user.Level = LevelFor(user.Points)
		user.Completions = append(user.Completions, record)
		leveledUp = user.Level > oldLevel

		err = s.users.SaveProgress(ctx, user, ProgressDelta{Completions: []domain.CompletionRecord{record}})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt+1 >= maxSaveRetries {
			return domain.SubmissionResult{}, err
		}
		s.log.WithField("user_id", userID).Debug("progress save conflicted, retrying")
	}

	completion := &domain.Achievement{
		ID:        uuid.New(),
		UserID:    user.ID,
		Type:      domain.AchievementQuizCompletion,
		Details:   domain.AchievementDetails{QuizID: quiz.ID, Points: grade.PointsEarned},
		CreatedAt: s.now(),
	}
	if err := s.achievements.Append(ctx, completion); err != nil {
		return domain.SubmissionResult{}, err
	}
	if leveledUp {
		levelUp := &domain.Achievement{
			ID:        uuid.New(),
			UserID:    user.ID,
			Type:      domain.AchievementLevelUp,
			Details:   domain.AchievementDetails{Level: user.Level, Points: user.Points},
			CreatedAt: s.now(),
		}
		if err := s.achievements.Append(ctx, levelUp); err != nil {
			return domain.SubmissionResult{}, err
		}
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "level": user.Level}).Info("user leveled up")
	}

	s.scores.Publish(ctx, user)

	return domain.SubmissionResult{
		Score:          grade.ScorePercent,
		PointsEarned:   grade.PointsEarned,
		NewTotalPoints: user.Points,
		Level:          user.Level,
		LeveledUp:      leveledUp,
	}, nil
}

// QuizResult is one stored attempt enriched with quiz metadata for display.
type QuizResult struct {
	Score          float64   `json:"score"`
	CompletedAt    time.Time `json:"completedAt"`
	QuizTitle      string    `json:"quizTitle"`
	TotalQuestions int       `json:"totalQuestions"`
}

// Results returns the user's most recent attempt at a quiz.
func (s *QuizService) Results(ctx context.Context, userID, quizID uuid.UUID) (QuizResult, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return QuizResult{}, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return QuizResult{}, err
	}
	for i := len(user.Completions) - 1; i >= 0; i-- {
		if user.Completions[i].QuizID == quizID {
			return QuizResult{
				Score:          user.Completions[i].Score,
				CompletedAt:    user.Completions[i].CompletedAt,
				QuizTitle:      quiz.Title,
				TotalQuestions: len(quiz.Questions),
			}, nil
		}
	}
	return QuizResult{}, domain.ErrNoResults
}
