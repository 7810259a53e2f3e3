package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/capsule-api/internal/api"
	apiMiddleware "github.com/phrazzld/capsule-api/internal/api/middleware"
	"github.com/phrazzld/capsule-api/internal/api/shared"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	capsuleHandler := api.NewCapsuleHandler(app.capsuleService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints, rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(app.rateLimiter.Limit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/verify", authHandler.VerifyOTP)
			r.Post("/auth/resend-otp", authHandler.ResendOTP)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/google", authHandler.GoogleLogin)
			r.Post("/auth/refresh", authHandler.RefreshToken)
			r.Post("/auth/password-reset/request", authHandler.RequestPasswordReset)
			r.Post("/auth/password-reset/verify", authHandler.VerifyPasswordReset)
			r.Post("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)
		})

		// Public recipient endpoint, the access token is the capability
		r.Get("/capsules/open/{access_token}", capsuleHandler.Open)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/password", userHandler.ChangePassword)

			r.Post("/capsules", capsuleHandler.Create)
			r.Get("/capsules", capsuleHandler.List)
			r.Get("/capsules/{id}", capsuleHandler.Get)
			r.Delete("/capsules/{id}", capsuleHandler.Delete)

			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			r.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			r.Post("/notifications/read-all", notificationHandler.MarkAllRead)
		})
	})

	r.Get("/healthz", app.healthz)

	return r
}

// healthz reports liveness, including database reachability.
func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		app.logger.Error("health check failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
