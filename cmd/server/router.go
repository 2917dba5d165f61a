package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/taskboard-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskboard-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.config.Auth,
		app.logger,
	)
	userHandler := api.NewUserHandler(app.userStore, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/user", userHandler.GetCurrentUser)

			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Patch("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
