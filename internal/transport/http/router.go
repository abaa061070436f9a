package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quizquest-service/internal/app"
	"quizquest-service/internal/auth"
)

// Handler bundles the HTTP endpoints over the application services.
type Handler struct {
	users       *app.UserService
	quizzes     *app.QuizService
	badges      *app.BadgeService
	leaderboard *app.LeaderboardService
	validate    *validator.Validate
	log         *logrus.Entry
	upgrader    websocket.Upgrader
}

func NewHandler(users *app.UserService, quizzes *app.QuizService, badges *app.BadgeService, leaderboard *app.LeaderboardService, log *logrus.Logger) *Handler {
	return &Handler{
		users:       users,
		quizzes:     quizzes,
		badges:      badges,
		leaderboard: leaderboard,
		validate:    validator.New(),
		log:         log.WithField("component", "http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router wires all routes. Token verification happens in auth middleware;
// handlers read the identity from the request context.
func (h *Handler) Router(tokens *auth.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/api/users", h.register)
	r.Post("/api/users/login", h.login)
	r.Get("/ws/leaderboard", h.serveLeaderboardWS)

	r.Group(func(r chi.Router) {
		r.Use(tokens.Middleware)

		r.Get("/api/users/me", h.profile)
		r.Get("/api/leaderboard", h.getLeaderboard)
		r.Get("/api/achievements", h.listAchievements)

		r.Get("/api/quizzes", h.listQuizzes)
		r.Get("/api/quizzes/{id}", h.getQuiz)
		r.Post("/api/quizzes/{id}/submit", h.submitQuiz)
		r.Get("/api/quizzes/{id}/results", h.quizResults)

		r.Get("/api/badges", h.listBadges)
		r.Get("/api/badges/user", h.userBadges)
		r.Post("/api/badges/check", h.checkBadges)
		r.Get("/api/badges/{id}", h.getBadge)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/api/quizzes", h.createQuiz)
			r.Put("/api/quizzes/{id}", h.updateQuiz)
			r.Delete("/api/quizzes/{id}", h.deleteQuiz)

			r.Post("/api/badges", h.createBadge)
			r.Put("/api/badges/{id}", h.updateBadge)
			r.Delete("/api/badges/{id}", h.deleteBadge)
		})
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
