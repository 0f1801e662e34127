package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/api/handlers"
	"github.com/askhub-io/askhub/internal/api/middleware"
)

type RouterConfig struct {
	SessionValidator middleware.SessionValidator
	AuthHandler      *handlers.AuthHandler
	QuestionHandler  *handlers.QuestionHandler
	AnswerHandler    *handlers.AnswerHandler
	AgentHandler     *handlers.AgentHandler
	UserHandler      *handlers.UserHandler
	TagHandler       *handlers.TagHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/login", cfg.AuthHandler.Login)

	// Public reads.
	r.Get("/questions", cfg.QuestionHandler.List)
	r.Get("/questions/recent", cfg.QuestionHandler.Recent)
	r.Get("/questions/{id}", cfg.QuestionHandler.Get)
	r.Get("/questions/{id}/answers", cfg.AnswerHandler.ListByQuestion)
	r.Get("/questions/{id}/suggestions", cfg.AgentHandler.Suggestions)
	r.Get("/agents/health", cfg.AgentHandler.Health)
	r.Get("/agents/performance", cfg.AgentHandler.Performance)
	r.Get("/agents/gaps", cfg.AgentHandler.Gaps)
	r.Get("/users", cfg.UserHandler.List)
	r.Get("/users/{id}", cfg.UserHandler.Get)
	r.Get("/tags", cfg.TagHandler.List)

	// Writes require a session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(cfg.SessionValidator))

		r.Get("/auth/me", cfg.AuthHandler.Me)

		r.Route("/questions", func(r chi.Router) {
			r.Post("/", cfg.QuestionHandler.Create)
			r.Put("/{id}", cfg.QuestionHandler.Update)
			r.Delete("/{id}", cfg.QuestionHandler.Delete)
			r.Post("/{id}/close", cfg.QuestionHandler.Close)
			r.Post("/{id}/vote", cfg.AnswerHandler.VoteQuestion)

			r.Post("/{id}/answers", cfg.AnswerHandler.Create)
			r.Post("/{id}/answers/{answerID}/accept", cfg.AnswerHandler.Accept)

			r.Post("/{id}/analyze", cfg.AgentHandler.Analyze)
		})

		r.Post("/answers/{answerID}/vote", cfg.AnswerHandler.VoteAnswer)
		r.Post("/agents/suggestions/{id}/feedback", cfg.AgentHandler.Feedback)
		r.Post("/tags", cfg.TagHandler.Create)
	})

	return r
}
