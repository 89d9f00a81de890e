package handlers

import (
	"context"
	"net/http"
	"strconv"

	"adherence-push-backend/constants"
	"adherence-push-backend/middleware"
	"adherence-push-backend/models"
	"adherence-push-backend/utils"
	"adherence-push-backend/webpush"

	"go.uber.org/zap"
)

const (
	defaultReportsLimit = 20
	maxReportsLimit     = 100
)

// PushSender envoie des lots de notifications
type PushSender interface {
	SendPush(ctx context.Context, recipientIDs []string, payload models.PushPayload) (models.BatchReport, error)
	VAPIDPublicKey() string
}

// SubscriptionStore enregistre les abonnements des navigateurs
type SubscriptionStore interface {
	Upsert(ctx context.Context, subscription *models.PushSubscription) error
	FindByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	CountByRecipientID(ctx context.Context, recipientID string) (int64, error)
}

// ReportLister lit l'historique des lots
type ReportLister interface {
	Recent(ctx context.Context, n int) ([]models.BatchReport, error)
}

// NotificationHandler gère les requêtes de notifications push
type NotificationHandler struct {
	sender        PushSender
	subscriptions SubscriptionStore
	reports       ReportLister
	logger        *zap.Logger
}

// NewNotificationHandler crée une nouvelle instance de NotificationHandler.
// reports peut être nil si l'historique est désactivé.
func NewNotificationHandler(sender PushSender, subscriptions SubscriptionStore, reports ReportLister, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender:        sender,
		subscriptions: subscriptions,
		reports:       reports,
		logger:        logger,
	}
}

// GetVAPIDPublicKey retourne la clé publique VAPID à passer à pushManager.subscribe
func (h *NotificationHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"public_key": h.sender.VAPIDPublicKey(),
	})
}

// Subscribe enregistre (ou met à jour) l'abonnement d'un appareil
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return
	}

	var req models.SubscribeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	recipientID := req.RecipientID
	if recipientID == "" {
		recipientID = claims.RecipientID
	}
	if recipientID != claims.RecipientID && !isPrivileged(claims) {
		utils.RespondError(w, http.StatusForbidden, constants.ErrForeignRecipient)
		return
	}
	if err := utils.ValidateRequired("recipient_id", recipientID); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := utils.ValidateEndpoint(req.Subscription.Endpoint); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Des clés invalides feraient échouer chaque envoi futur
	if _, err := webpush.ParseSubscriptionKeys(req.Subscription.Keys.P256dh, req.Subscription.Keys.Auth); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidSubscription+": "+err.Error())
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	subscription := &models.PushSubscription{
		RecipientID: recipientID,
		Endpoint:    req.Subscription.Endpoint,
		Keys:        req.Subscription.Keys,
		UserAgent:   userAgent,
	}

	if err := h.subscriptions.Upsert(r.Context(), subscription); err != nil {
		h.logger.Error("❌ Erreur lors de l'enregistrement de l'abonnement", zap.String("recipient_id", recipientID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	devices, err := h.subscriptions.CountByRecipientID(r.Context(), recipientID)
	if err != nil {
		// L'abonnement est enregistré, seul le compteur manque
		h.logger.Warn("⚠️  Erreur lors du comptage des appareils", zap.String("recipient_id", recipientID), zap.Error(err))
	}

	h.logger.Info("✓ Abonnement enregistré", zap.String("recipient_id", recipientID), zap.Int64("devices", devices))
	utils.RespondSuccess(w, "Abonnement enregistré avec succès", map[string]interface{}{
		"subscription": subscription,
		"devices":      devices,
	})
}

// Unsubscribe supprime l'abonnement d'un appareil
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return
	}

	var req models.UnsubscribeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateRequired("endpoint", req.Endpoint); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subscription, err := h.subscriptions.FindByEndpoint(r.Context(), req.Endpoint)
	if err != nil {
		h.logger.Error("❌ Erreur lors de la recherche de l'abonnement", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	// Endpoint inconnu : déjà désabonné
	if subscription == nil {
		utils.RespondSuccess(w, "Désabonnement réussi", nil)
		return
	}
	if subscription.RecipientID != claims.RecipientID && !isPrivileged(claims) {
		h.logger.Warn("⚠️  Désabonnement refusé pour un autre destinataire",
			zap.String("caller", claims.RecipientID),
			zap.String("recipient_id", subscription.RecipientID),
		)
		utils.RespondError(w, http.StatusForbidden, constants.ErrForeignRecipient)
		return
	}

	if err := h.subscriptions.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		h.logger.Error("❌ Erreur lors de la suppression de l'abonnement", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondSuccess(w, "Désabonnement réussi", nil)
}

// Send envoie un lot de notifications (services internes)
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.SendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	h.send(w, r, req.RecipientIDs, req.Payload)
}

// SendTest envoie une notification de test aux appareils de l'appelant
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return
	}

	payload := models.PushPayload{
		Title: "🔔 Notification de test",
		Body:  "Les notifications fonctionnent sur cet appareil",
		Tag:   "test",
		Data:  models.PayloadData{"type": "test"},
	}
	h.send(w, r, []string{claims.RecipientID}, payload)
}

func (h *NotificationHandler) send(w http.ResponseWriter, r *http.Request, recipientIDs []string, payload models.PushPayload) {
	report, err := h.sender.SendPush(r.Context(), recipientIDs, payload)
	if err != nil {
		status, message := sendErrorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("❌ Erreur lors de l'envoi du lot", zap.Error(err))
		}
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondSuccess(w, "Lot traité", report)
}

// isPrivileged indique si l'appelant peut agir pour n'importe quel destinataire
func isPrivileged(claims *utils.Claims) bool {
	return claims.Role == constants.RoleService || claims.Role == constants.RoleAdmin
}

func sendErrorResponse(err error) (int, string) {
	switch {
	case webpush.IsKind(err, webpush.KindInputValidation):
		return http.StatusBadRequest, err.Error()
	case webpush.IsKind(err, webpush.KindConfiguration):
		return http.StatusInternalServerError, constants.ErrServerError
	default:
		return http.StatusServiceUnavailable, constants.ErrRegistryUnavailable
	}
}

// ListReports retourne les derniers rapports de lots
func (h *NotificationHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.reports == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, constants.ErrHistoryDisabled)
		return
	}

	limit := defaultReportsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit doit être un entier positif")
			return
		}
		limit = n
	}
	if limit > maxReportsLimit {
		limit = maxReportsLimit
	}

	reports, err := h.reports.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("❌ Erreur lors de la lecture des rapports", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
