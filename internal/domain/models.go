package domain

import (
	"time"

	"github.com/google/uuid"
)

// User carries identity plus progression state. Level is derived from Points
// (points/1000 + 1) and must be recomputed after every points mutation.
// Version is an optimistic-concurrency stamp bumped on every progress save.
type User struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"-"`
	IsAdmin      bool               `json:"isAdmin"`
	Points       int                `json:"points"`
	Level        int                `json:"level"`
	Badges       []uuid.UUID        `json:"badges"`
	Completions  []CompletionRecord `json:"completedQuizzes"`
	Version      int                `json:"-"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// HasBadge reports whether the badge is already in the user's set.
func (u *User) HasBadge(id uuid.UUID) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// CompletionRecord is one graded attempt, immutable once created. Subject and
// Difficulty are resolved from the referenced quiz on load; they exist so the
// badge evaluator can filter without re-fetching quizzes.
type CompletionRecord struct {
	QuizID      uuid.UUID `json:"quizId"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
	Subject     string    `json:"subject,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
}

// Option represents a possible answer for a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Quiz is a graded assessment. Points is the maximum reward for a perfect
// attempt; Subject and Difficulty exist as badge-criteria filter dimensions.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subject     string     `json:"subject"`
	Difficulty  string     `json:"difficulty"`
	TimeLimit   int        `json:"timeLimit"` // seconds
	Points      int        `json:"points"`
	Active      bool       `json:"active"`
	CreatorID   uuid.UUID  `json:"creator"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CriteriaType is the closed set of badge qualification rules. Anything
// outside this set is rejected at creation time and surfaces as an error from
// the evaluator instead of silently qualifying nothing.
type CriteriaType string

const (
	CriteriaQuizScore CriteriaType = "QUIZ_SCORE"
	CriteriaQuizCount CriteriaType = "QUIZ_COUNT"
	CriteriaPoints    CriteriaType = "POINTS"
	CriteriaStreak    CriteriaType = "STREAK"
)

// Valid reports whether t is one of the known criteria types.
func (t CriteriaType) Valid() bool {
	switch t {
	case CriteriaQuizScore, CriteriaQuizCount, CriteriaPoints, CriteriaStreak:
		return true
	}
	return false
}

// BadgeCriteria is the machine-checkable condition attached to a badge.
// Subject and Difficulty are optional filters honored by QUIZ_SCORE and
// QUIZ_COUNT; empty means "any".
type BadgeCriteria struct {
	Type       CriteriaType `json:"type"`
	Value      float64      `json:"value"`
	Subject    string       `json:"subject,omitempty"`
	Difficulty string       `json:"difficulty,omitempty"`
}

// Badge is an awardable definition. Points is the bonus added to the user's
// total when earned. Inactive badges are excluded from listing and evaluation.
type Badge struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Rarity      string        `json:"rarity"`
	Criteria    BadgeCriteria `json:"criteria"`
	Points      int           `json:"points"`
	Active      bool          `json:"active"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// AchievementType tags the variant payload carried in Achievement.Details.
type AchievementType string

const (
	AchievementQuizCompletion AchievementType = "QUIZ_COMPLETION"
	AchievementLevelUp        AchievementType = "LEVEL_UP"
	AchievementBadgeEarned    AchievementType = "BADGE_EARNED"
)

// AchievementDetails is the per-type payload: {quizId, points} for
// completions, {level, points} for level-ups, {badgeId, points} for badges.
type AchievementDetails struct {
	QuizID  uuid.UUID `json:"quizId,omitempty"`
	BadgeID uuid.UUID `json:"badgeId,omitempty"`
	Level   int       `json:"level,omitempty"`
	Points  int       `json:"points"`
}

// Achievement is an immutable event log entry. The engine only writes these;
// nothing in the engine reads them back.
type Achievement struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user"`
	Type      AchievementType    `json:"type"`
	Details   AchievementDetails `json:"details"`
	CreatedAt time.Time          `json:"createdAt"`
}

// SubmissionResult summarizes one graded submission for the caller.
type SubmissionResult struct {
	Score          float64 `json:"score"`
	PointsEarned   int     `json:"pointsEarned"`
	NewTotalPoints int     `json:"newTotalPoints"`
	Level          int     `json:"level"`
	LeveledUp      bool    `json:"leveledUp"`
}

// EvaluationResult lists badges newly awarded by one evaluation pass. An
// empty NewBadges slice is the "no new badges" outcome, not an error.
type EvaluationResult struct {
	NewBadges    []Badge `json:"newBadges"`
	PointsEarned int     `json:"pointsEarned"`
	TotalPoints  int     `json:"totalPoints"`
}

// LeaderboardEntry is one ranked row of the points leaderboard.
type LeaderboardEntry struct {
	Rank   int       `json:"rank"`
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
	Level  int       `json:"level"`
}

// Leaderboard captures an ordered scoreboard snapshot.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
