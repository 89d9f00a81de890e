package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging enregistre les requêtes HTTP. Les erreurs serveur (5xx) sont
// journalisées en niveau error, les erreurs client en warn.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", time.Since(start)),
			}

			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				logger.Error("❌ Requête en erreur", append(fields, zap.String("user_agent", r.UserAgent()))...)
			case rw.statusCode >= http.StatusBadRequest:
				logger.Warn("⚠️ Requête refusée", append(fields, zap.String("origin", r.Header.Get("Origin")))...)
			default:
				logger.Debug("requête", fields...)
			}
		})
	}
}
