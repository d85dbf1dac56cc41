package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware with the open-origin policy the storefront relies
// on; submissions come from arbitrary shop domains.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		MaxAge:         300,
	}).Handler
}
