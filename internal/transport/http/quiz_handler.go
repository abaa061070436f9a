package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quizquest-service/internal/app"
	"quizquest-service/internal/auth"
	"quizquest-service/internal/domain"
)

type optionPayload struct {
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

type questionPayload struct {
	Prompt  string          `json:"prompt" validate:"required"`
	Options []optionPayload `json:"options" validate:"required,min=2,dive"`
}

type quizPayload struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Subject     string            `json:"subject" validate:"required"`
	Difficulty  string            `json:"difficulty" validate:"required"`
	TimeLimit   int               `json:"timeLimit" validate:"required,gt=0"`
	Points      int               `json:"points" validate:"required,gt=0"`
	Questions   []questionPayload `json:"questions" validate:"required,min=1,dive"`
}

type submitRequest struct {
	Answers []string `json:"answers" validate:"required"`
}

// quizView is a quiz without answer flags, safe to hand to takers.
type quizView struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Subject     string         `json:"subject"`
	Difficulty  string         `json:"difficulty"`
	TimeLimit   int            `json:"timeLimit"`
	Points      int            `json:"points"`
	Questions   []questionView `json:"questions"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type questionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

func toQuizView(q domain.Quiz) quizView {
	questions := make([]questionView, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]string, len(question.Options))
		for j, opt := range question.Options {
			options[j] = opt.Text
		}
		questions[i] = questionView{Prompt: question.Prompt, Options: options}
	}
	return quizView{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Subject:     q.Subject,
		Difficulty:  q.Difficulty,
		TimeLimit:   q.TimeLimit,
		Points:      q.Points,
		Questions:   questions,
		CreatedAt:   q.CreatedAt,
	}
}

func (p quizPayload) toDomain() domain.Quiz {
	questions := make([]domain.Question, len(p.Questions))
	for i, q := range p.Questions {
		options := make([]domain.Option, len(q.Options))
		for j, opt := range q.Options {
			options[j] = domain.Option{Text: opt.Text, Correct: opt.Correct}
		}
		questions[i] = domain.Question{Prompt: q.Prompt, Options: options}
	}
	return domain.Quiz{
		Title:       p.Title,
		Description: p.Description,
		Subject:     p.Subject,
		Difficulty:  p.Difficulty,
		TimeLimit:   p.TimeLimit,
		Points:      p.Points,
		Questions:   questions,
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errBadRequest
	}
	return id, nil
}

func actorFrom(r *http.Request) app.Actor {
	identity, _ := auth.IdentityFromContext(r.Context())
	return app.Actor{ID: identity.UserID, Admin: identity.Admin}
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizPayload
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	quiz := req.toDomain()
	if err := h.quizzes.Create(r.Context(), actorFrom(r), &quiz); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizView(quiz))
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	filter := app.QuizFilter{
		Subject:    r.URL.Query().Get("subject"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	quizzes, err := h.quizzes.ListActive(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]quizView, len(quizzes))
	for i, q := range quizzes {
		views[i] = toQuizView(q)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	quiz, err := h.quizzes.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz))
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req submitRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	result, err := h.quizzes.Submit(r.Context(), identity.UserID, id, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) quizResults(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	result, err := h.quizzes.Results(r.Context(), identity.UserID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req quizPayload
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	quiz := req.toDomain()
	quiz.ID = id
	quiz.Active = true
	if err := h.quizzes.Update(r.Context(), actorFrom(r), &quiz); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz))
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.quizzes.Delete(r.Context(), actorFrom(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "quiz removed"})
}
