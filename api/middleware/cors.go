package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the admin console and the web booking flow call the API from the
// configured origins. Preflights are cached for five minutes.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"If-Match",
			IdempotencyKeyHeader,
			RequestIDHeader,
		},
		ExposedHeaders:   []string{RequestIDHeader, IdempotentReplayHeader, "ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
