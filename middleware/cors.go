package middleware

import (
	"net/http"

	"adherence-push-backend/constants"

	"github.com/rs/cors"
)

// CORS gère les en-têtes CORS. "*" dans allowedOrigins autorise toutes les origines.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{constants.HeaderContentType, "Authorization"},
		AllowCredentials: true,
		MaxAge:           3600,
	})
	return c.Handler
}
