package http

import (
	"net/http"

	"quizquest-service/internal/auth"
	"quizquest-service/internal/domain"
)

type criteriaPayload struct {
	Type       string  `json:"type" validate:"required,oneof=QUIZ_SCORE QUIZ_COUNT POINTS STREAK"`
	Value      float64 `json:"value" validate:"required,gt=0"`
	Subject    string  `json:"subject"`
	Difficulty string  `json:"difficulty"`
}

type badgePayload struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Icon        string          `json:"icon" validate:"required"`
	Rarity      string          `json:"rarity" validate:"required"`
	Criteria    criteriaPayload `json:"criteria" validate:"required"`
	Points      int             `json:"points" validate:"gte=0"`
}

func (p badgePayload) toDomain() domain.Badge {
	return domain.Badge{
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		Rarity:      p.Rarity,
		Criteria: domain.BadgeCriteria{
			Type:       domain.CriteriaType(p.Criteria.Type),
			Value:      p.Criteria.Value,
			Subject:    p.Criteria.Subject,
			Difficulty: p.Criteria.Difficulty,
		},
		Points: p.Points,
	}
}

func (h *Handler) createBadge(w http.ResponseWriter, r *http.Request) {
	var req badgePayload
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	badge := req.toDomain()
	if err := h.badges.Create(r.Context(), &badge); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, badge)
}

func (h *Handler) listBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badges.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (h *Handler) getBadge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	badge, err := h.badges.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badge)
}

func (h *Handler) userBadges(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	badges, err := h.badges.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// checkBadges runs the qualification evaluator for the caller. Submission
// does not trigger this automatically; clients call it after submitting when
// they want immediate awarding.
func (h *Handler) checkBadges(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	result, err := h.badges.Evaluate(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(result.NewBadges) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No new badges earned"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) updateBadge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req badgePayload
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	badge := req.toDomain()
	badge.ID = id
	badge.Active = true
	if err := h.badges.Update(r.Context(), &badge); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badge)
}

func (h *Handler) deleteBadge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.badges.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "badge removed"})
}
