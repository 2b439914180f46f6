package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the PWA origins to call the API, send the client id header and
// read ETags. Preflight requests are answered directly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Client-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag", "X-Revision"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
