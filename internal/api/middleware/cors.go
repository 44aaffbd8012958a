package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// FrontendCORS admits the chat frontend. Outside production the usual local
// dev servers are admitted too.
func FrontendCORS(frontendURL, environment string) func(http.Handler) http.Handler {
	origins := []string{frontendURL}
	if environment != "production" {
		origins = append(origins, devOrigins...)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
