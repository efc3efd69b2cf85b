package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"dailyq-backend/internal/handlers"
	"dailyq-backend/internal/middleware"
	"dailyq-backend/internal/models"
	"dailyq-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	studentHandler *handlers.StudentHandler,
	unlockHandler *handlers.UnlockHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	uploadsDir string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Locally stored question images
	if uploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/login", authHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/target", adminHandler.SetTarget)
			r.Post("/start-day", adminHandler.StartDay)
			r.Post("/end-day", adminHandler.EndDay)
			r.Post("/unlock-now", adminHandler.UnlockNow)
			r.Post("/questions", adminHandler.UploadQuestion)
			r.Get("/summary", adminHandler.Summary)
		})

		// ──── Student Routes ────
		r.Route("/student", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(models.RoleStudent))
			r.Get("/questions", studentHandler.ListQuestions)
			r.Post("/questions/{id}/viewed", studentHandler.MarkViewed)
			r.Post("/questions/{id}/completed", studentHandler.MarkCompleted)
		})

		// ──── External cron trigger ────
		r.Post("/unlock", unlockHandler.CronUnlock)

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
