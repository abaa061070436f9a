package app_test

import (
	"errors"
	"testing"

	"quizquest-service/internal/app"
	"quizquest-service/internal/domain"
)

func fourQuestionQuiz(points int) domain.Quiz {
	question := func(correct string, others ...string) domain.Question {
		options := []domain.Option{{Text: correct, Correct: true}}
		for _, o := range others {
			options = append(options, domain.Option{Text: o})
		}
		return domain.Question{Prompt: "pick " + correct, Options: options}
	}
	return domain.Quiz{
		Title:      "sample",
		Subject:    "Math",
		Difficulty: "easy",
		Points:     points,
		Questions: []domain.Question{
			question("a", "b", "c"),
			question("b", "a", "c"),
			question("c", "a", "b"),
			question("d", "a", "b"),
		},
	}
}

func TestGradeAnswersPerfectScore(t *testing.T) {
	quiz := fourQuestionQuiz(100)
	result, err := app.GradeAnswers(quiz, []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.ScorePercent != 100 || result.PointsEarned != 100 {
		t.Fatalf("expected perfect score, got %+v", result)
	}
}

func TestGradeAnswersZeroScore(t *testing.T) {
	quiz := fourQuestionQuiz(100)
	result, err := app.GradeAnswers(quiz, []string{"x", "x", "x", "x"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.ScorePercent != 0 || result.PointsEarned != 0 {
		t.Fatalf("expected zero score, got %+v", result)
	}
}

func TestGradeAnswersPartialAndRounding(t *testing.T) {
	quiz := fourQuestionQuiz(100)
	result, err := app.GradeAnswers(quiz, []string{"a", "b", "c", "x"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.ScorePercent != 75 || result.PointsEarned != 75 {
		t.Fatalf("expected 75%% / 75 points, got %+v", result)
	}

	// 1/3 correct on a 50-point quiz: 33.33% of 50 = 16.67 rounds to 17.
	third := domain.Quiz{
		Points: 50,
		Questions: []domain.Question{
			{Options: []domain.Option{{Text: "y", Correct: true}}},
			{Options: []domain.Option{{Text: "y", Correct: true}}},
			{Options: []domain.Option{{Text: "y", Correct: true}}},
		},
	}
	result, err = app.GradeAnswers(third, []string{"y", "n", "n"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.PointsEarned != 17 {
		t.Fatalf("expected half-up rounding to 17, got %d", result.PointsEarned)
	}
}

func TestGradeAnswersShortAndLongSheets(t *testing.T) {
	quiz := fourQuestionQuiz(100)

	short, err := app.GradeAnswers(quiz, []string{"a"})
	if err != nil {
		t.Fatalf("grade short: %v", err)
	}
	if short.CorrectCount != 1 || short.ScorePercent != 25 {
		t.Fatalf("missing answers should score as incorrect, got %+v", short)
	}

	long, err := app.GradeAnswers(quiz, []string{"a", "b", "c", "d", "extra", "extra"})
	if err != nil {
		t.Fatalf("grade long: %v", err)
	}
	if long.ScorePercent != 100 {
		t.Fatalf("extra answers should be ignored, got %+v", long)
	}
}

func TestGradeAnswersBounds(t *testing.T) {
	quiz := fourQuestionQuiz(80)
	sheets := [][]string{
		nil,
		{},
		{"a"},
		{"x", "b"},
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
	}
	for _, answers := range sheets {
		result, err := app.GradeAnswers(quiz, answers)
		if err != nil {
			t.Fatalf("grade %v: %v", answers, err)
		}
		if result.ScorePercent < 0 || result.ScorePercent > 100 {
			t.Fatalf("score out of range for %v: %+v", answers, result)
		}
		if result.PointsEarned < 0 || result.PointsEarned > quiz.Points {
			t.Fatalf("points out of range for %v: %+v", answers, result)
		}
	}
}

func TestGradeAnswersEmptyQuiz(t *testing.T) {
	_, err := app.GradeAnswers(domain.Quiz{Points: 100}, []string{"a"})
	if !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
}

func TestGradeAnswersNoCorrectOptionNeverMatches(t *testing.T) {
	// Legacy shape with no option marked correct; the question can never match.
	quiz := domain.Quiz{
		Points: 10,
		Questions: []domain.Question{
			{Options: []domain.Option{{Text: "a"}, {Text: "b"}}},
		},
	}
	result, err := app.GradeAnswers(quiz, []string{"a"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.CorrectCount != 0 {
		t.Fatalf("question without correct option must never match, got %+v", result)
	}
}

func TestValidateAnswerKey(t *testing.T) {
	good := []domain.Question{
		{Options: []domain.Option{{Text: "a", Correct: true}, {Text: "b"}}},
	}
	if err := app.ValidateAnswerKey(good); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}

	none := []domain.Question{
		{Options: []domain.Option{{Text: "a"}, {Text: "b"}}},
	}
	if err := app.ValidateAnswerKey(none); !errors.Is(err, domain.ErrAmbiguousAnswerKey) {
		t.Fatalf("expected ErrAmbiguousAnswerKey for zero correct, got %v", err)
	}

	both := []domain.Question{
		{Options: []domain.Option{{Text: "a", Correct: true}, {Text: "b", Correct: true}}},
	}
	if err := app.ValidateAnswerKey(both); !errors.Is(err, domain.ErrAmbiguousAnswerKey) {
		t.Fatalf("expected ErrAmbiguousAnswerKey for two correct, got %v", err)
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1999, 2},
		{2500, 3},
		{10000, 11},
	}
	for _, tc := range cases {
		if got := app.LevelFor(tc.points); got != tc.level {
			t.Errorf("LevelFor(%d) = %d, want %d", tc.points, got, tc.level)
		}
	}

	prev := app.LevelFor(0)
	for p := 1; p <= 5000; p += 7 {
		level := app.LevelFor(p)
		if level < prev {
			t.Fatalf("LevelFor not monotonic at %d: %d < %d", p, level, prev)
		}
		prev = level
	}
}
