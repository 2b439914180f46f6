package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/canteen-backend/internal/handlers"
	"github.com/AnshRaj112/canteen-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux, tokens middleware.TokenVerifier) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Household membership
	r.Post("/api/households", handlers.CreateHousehold)
	r.Post("/api/households/join", handlers.JoinHousehold)

	r.Route("/api/households/{id}", func(r chi.Router) {
		r.Use(middleware.RequireHousehold(tokens))
		r.Get("/", handlers.GetHousehold)
		r.Put("/", handlers.RenameHousehold)

		// Buckets
		r.Get("/buckets/{bucket}", handlers.GetBucket)
		r.Put("/buckets/{bucket}", handlers.PutBucket)
		r.Post("/buckets/{bucket}/merge", handlers.MergeBucket)
	})

	// Change stream
	r.With(middleware.RequireHousehold(tokens)).Get("/ws/households/{id}", handlers.ChangeStream)

	// AI recipe drafts
	r.Post("/api/recipes/generate", handlers.GenerateRecipe)

	// File upload routes
	r.Post("/api/upload", handlers.UploadFile)
}
