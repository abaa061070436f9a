package domain

import "errors"

var (
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrBadgeNotFound indicates the badge definition does not exist.
	ErrBadgeNotFound = errors.New("badge not found")
	// ErrEmptyQuiz guards grading against a quiz with zero questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrAmbiguousAnswerKey rejects a question with zero or more than one
	// option marked correct at quiz creation time.
	ErrAmbiguousAnswerKey = errors.New("question must have exactly one correct option")
	// ErrUnknownCriteria is returned for a criteria type outside the closed
	// set; badge definitions carrying one are corrupt.
	ErrUnknownCriteria = errors.New("unknown badge criteria type")
	// ErrVersionConflict signals a stale optimistic-concurrency stamp on a
	// user progress save.
	ErrVersionConflict = errors.New("user version conflict")
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoResults indicates the user has no recorded attempt for a quiz.
	ErrNoResults = errors.New("no results found for this quiz")
	// ErrForbidden marks an operation the authenticated user may not perform.
	ErrForbidden = errors.New("not authorized")
)
