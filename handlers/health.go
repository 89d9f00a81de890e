package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"adherence-push-backend/services"
	"adherence-push-backend/utils"
)

var startTime = time.Now()

// Pinger est une dépendance dont on vérifie la disponibilité
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsSource fournit les compteurs du moteur d'envoi
type MetricsSource interface {
	Snapshot() services.MetricsSnapshot
}

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	mongo       Pinger
	redis       Pinger
	metrics     MetricsSource
}

// NewHealthHandler crée un nouveau HealthHandler. redis et metrics peuvent être nil.
func NewHealthHandler(environment string, mongo, redis Pinger, metrics MetricsSource) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		mongo:       mongo,
		redis:       redis,
		metrics:     metrics,
	}
}

// Health retourne l'état de santé du serveur avec métriques
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK

	dbStatus := pingStatus(ctx, h.mongo)
	if dbStatus != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status":       status,
		"env":          h.environment,
		"db_status":    dbStatus,
		"redis_status": pingStatus(ctx, h.redis),
		"uptime":       time.Since(startTime).String(),
		"go_version":   runtime.Version(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}

	utils.RespondJSON(w, code, body)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "error"
	}
	return "ok"
}
