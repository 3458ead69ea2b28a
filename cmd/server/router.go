package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/tome-api/internal/api"
	apimiddleware "github.com/phrazzld/tome-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordHasher,
		app.passwordHasher,
	)
	moduleHandler := api.NewModuleHandler(app.contentService)
	libraryHandler := api.NewLibraryHandler(app.contentService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Module endpoints
			r.Post("/modules", moduleHandler.Create)
			r.Get("/modules/{moduleID}", moduleHandler.Get)
			r.Put("/modules/{moduleID}", moduleHandler.Update)
			r.Delete("/modules/{moduleID}", moduleHandler.Archive)
			r.Post("/modules/{moduleID}/fork", moduleHandler.Fork)
			r.Post("/modules/{moduleID}/generate", moduleHandler.GenerateItems)

			// Item endpoints
			r.Post("/modules/{moduleID}/items", moduleHandler.AddItem)
			r.Put("/modules/{moduleID}/items/{itemID}", moduleHandler.UpdateItem)
			r.Delete("/modules/{moduleID}/items/{itemID}", moduleHandler.DeleteItem)
			r.Post("/modules/{moduleID}/items/{itemID}/attempts", moduleHandler.RecordAttempt)

			// Library endpoints
			r.Get("/library", libraryHandler.List)
			r.Post("/library", libraryHandler.Add)
			r.Post("/admin/library/repair", libraryHandler.Repair)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
