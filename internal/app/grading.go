package app

import (
	"math"

	"quizquest-service/internal/domain"
)

// GradeResult is the outcome of grading one answer sheet against a quiz.
type GradeResult struct {
	CorrectCount int
	ScorePercent float64
	PointsEarned int
}

// GradeAnswers grades answers[i] against quiz.Questions[i]. A question counts
// correct when it has an option marked correct whose text equals the
// submitted answer. A short answer list leaves the tail incorrect; extra
// answers beyond the question count are ignored.
//
// PointsEarned = round(scorePercent/100 * quiz.Points), rounded half away
// from zero via math.Round, so it always lands in [0, quiz.Points].
func GradeAnswers(quiz domain.Quiz, answers []string) (GradeResult, error) {
	total := len(quiz.Questions)
	if total == 0 {
		return GradeResult{}, domain.ErrEmptyQuiz
	}

	correct := 0
	for i, question := range quiz.Questions {
		if i >= len(answers) {
			break
		}
		if key, ok := correctOption(question); ok && answers[i] == key {
			correct++
		}
	}

	percent := float64(correct) / float64(total) * 100
	earned := int(math.Round(percent / 100 * float64(quiz.Points)))
	return GradeResult{
		CorrectCount: correct,
		ScorePercent: percent,
		PointsEarned: earned,
	}, nil
}

// correctOption returns the text of the question's correct option. A question
// without one can never be answered correctly; creation-time validation keeps
// such questions out of new quizzes, but grading stays defined for legacy rows.
func correctOption(q domain.Question) (string, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.Text, true
		}
	}
	return "", false
}

// ValidateAnswerKey rejects a quiz in which any question does not have
// exactly one option marked correct.
func ValidateAnswerKey(questions []domain.Question) error {
	for _, q := range questions {
		marked := 0
		for _, opt := range q.Options {
			if opt.Correct {
				marked++
			}
		}
		if marked != 1 {
			return domain.ErrAmbiguousAnswerKey
		}
	}
	return nil
}

// LevelFor derives the level for a cumulative point total: one level per
// 1000 points, starting at 1. Monotonic non-decreasing in points.
func LevelFor(points int) int {
	return points/1000 + 1
}
