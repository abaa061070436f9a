package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"quizquest-service/internal/domain"
)

type errorResponse struct {
	Message string `json:"message"`
}

// errBadRequest wraps body decode failures so they map to 400.
var errBadRequest = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with a generic body; the original error stays in the server log only.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrBadgeNotFound),
		errors.Is(err, domain.ErrNoResults):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrEmptyQuiz),
		errors.Is(err, domain.ErrAmbiguousAnswerKey),
		errors.Is(err, domain.ErrUnknownCriteria):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrVersionConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		h.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Message: message})
}

func (h *Handler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return h.validate.Struct(dst)
}
