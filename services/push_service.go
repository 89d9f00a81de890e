package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"adherence-push-backend/models"
	"adherence-push-backend/utils"
	"adherence-push-backend/webpush"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Valeurs par défaut du moteur d'envoi
const (
	DefaultConcurrency = 8
	DefaultSendTimeout = 10 * time.Second
	DefaultTTL         = 86400 // 24 heures en secondes
	DefaultUrgency     = "high"
	pruneTimeout       = 10 * time.Second
	maxErrorBodyBytes  = 512
	keyCacheSize       = 1024
)

// SubscriptionRegistry est le registre externe des abonnements push
type SubscriptionRegistry interface {
	GetSubscriptions(ctx context.Context, recipientIDs []string) ([]models.PushSubscription, error)
	DeleteSubscriptions(ctx context.Context, endpoints []string) error
}

// ReportSaver conserve les rapports de lots
type ReportSaver interface {
	Save(ctx context.Context, report models.BatchReport) error
}

// BatchAlerter prévient l'équipe quand un lot échoue massivement
type BatchAlerter interface {
	SendBatchAlert(report models.BatchReport) error
}

// PushService chiffre et livre les notifications Web Push
type PushService struct {
	registry    SubscriptionRegistry
	signer      *webpush.VAPIDSigner
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	sendTimeout time.Duration
	ttl         int
	urgency     string
	metrics     *Metrics
	reports     ReportSaver
	alerter     BatchAlerter
	alertRatio  float64
	logger      *zap.Logger
	keyCache    gcache.Cache
}

// Option configure un PushService
type Option func(*PushService)

// WithHTTPClient remplace le client HTTP utilisé pour joindre les push services
func WithHTTPClient(client *http.Client) Option {
	return func(s *PushService) { s.client = client }
}

// WithConcurrency fixe le nombre d'envois simultanés
func WithConcurrency(n int) Option {
	return func(s *PushService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSendTimeout fixe le délai maximal d'un envoi
func WithSendTimeout(d time.Duration) Option {
	return func(s *PushService) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// WithRateLimit limite le nombre d'envois par seconde (0 = illimité)
func WithRateLimit(perSecond int) Option {
	return func(s *PushService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithTTL fixe l'en-tête TTL en secondes
func WithTTL(seconds int) Option {
	return func(s *PushService) {
		if seconds >= 0 {
			s.ttl = seconds
		}
	}
}

// WithUrgency fixe l'en-tête Urgency (very-low, low, normal, high)
func WithUrgency(urgency string) Option {
	return func(s *PushService) {
		switch urgency {
		case "very-low", "low", "normal", "high":
			s.urgency = urgency
		}
	}
}

// WithMetrics branche les compteurs de l'application
func WithMetrics(m *Metrics) Option {
	return func(s *PushService) { s.metrics = m }
}

// WithReportStore active l'historique des rapports
func WithReportStore(r ReportSaver) Option {
	return func(s *PushService) { s.reports = r }
}

// WithAlerter déclenche une alerte au-delà du ratio d'échecs donné
func WithAlerter(a BatchAlerter, failureRatio float64) Option {
	return func(s *PushService) {
		s.alerter = a
		s.alertRatio = failureRatio
	}
}

// WithLogger remplace le logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *PushService) { s.logger = logger }
}

// NewPushService crée le moteur d'envoi. Le signataire VAPID doit avoir été
// construit au démarrage à partir de clés validées.
func NewPushService(registry SubscriptionRegistry, signer *webpush.VAPIDSigner, opts ...Option) *PushService {
	s := &PushService{
		registry:    registry,
		signer:      signer,
		client:      &http.Client{},
		concurrency: DefaultConcurrency,
		sendTimeout: DefaultSendTimeout,
		ttl:         DefaultTTL,
		urgency:     DefaultUrgency,
		metrics:     NewMetrics(),
		logger:      zap.NewNop(),
		keyCache:    gcache.New(keyCacheSize).LRU().Build(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VAPIDPublicKey retourne la clé publique à fournir aux navigateurs
func (s *PushService) VAPIDPublicKey() string {
	return s.signer.PublicKey()
}

// SendPush envoie payload à tous les appareils abonnés des destinataires.
// Seules les erreurs de validation, de configuration ou de registre interrompent le lot ;
// les échecs individuels sont reportés dans le rapport.
func (s *PushService) SendPush(ctx context.Context, recipientIDs []string, payload models.PushPayload) (models.BatchReport, error) {
	start := time.Now()

	if err := utils.ValidateIDs("recipient_ids", recipientIDs); err != nil {
		s.metrics.ValidationRejected.Add(1)
		return models.BatchReport{}, webpush.InputValidationError("lot refusé", err)
	}
	if err := payload.Validate(); err != nil {
		s.metrics.ValidationRejected.Add(1)
		return models.BatchReport{}, webpush.InputValidationError("payload refusé", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.metrics.ValidationRejected.Add(1)
		return models.BatchReport{}, webpush.InputValidationError("payload non sérialisable", err)
	}

	report := models.BatchReport{BatchID: uuid.NewString(), StartedAt: start}
	log := s.logger.With(zap.String("batch_id", report.BatchID))

	subscriptions, err := s.registry.GetSubscriptions(ctx, recipientIDs)
	if err != nil {
		log.Error("❌ Erreur lors de la récupération des abonnements", zap.Error(err))
		return report, webpush.DeliveryError("registre d'abonnements indisponible", 0, err)
	}

	if len(subscriptions) == 0 {
		report.Note = "Aucun abonnement trouvé pour ces destinataires"
		log.Info("⚠️  Aucun abonné trouvé", zap.Int("recipients", len(recipientIDs)))
		return s.finalize(ctx, report, log), nil
	}

	report = s.dispatch(ctx, subscriptions, body, report, log)
	report = s.prune(ctx, report, log)
	report = s.finalize(ctx, report, log)

	for _, o := range report.Outcomes {
		if o.ErrorKind == webpush.KindConfiguration.String() {
			return report, webpush.ConfigurationError("signature VAPID impossible", errors.New(o.Error))
		}
	}
	return report, nil
}

// dispatch lance les envois en parallèle (borné) et agrège les résultats
// dans une seule goroutine.
func (s *PushService) dispatch(ctx context.Context, subscriptions []models.PushSubscription, body []byte, report models.BatchReport, log *zap.Logger) models.BatchReport {
	results := make(chan models.DeliveryOutcome)
	aggregated := make(chan models.BatchReport, 1)

	go func() {
		b := models.NewReportBuilder(report)
		for o := range results {
			b.Add(o)
		}
		aggregated <- b.Report()
	}()

	// Les envois déjà lancés vont au bout (ou au timeout) même si le lot est annulé
	sendCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, sub := range subscriptions {
		if err := s.waitTurn(ctx); err != nil {
			log.Warn("🛑 Lot annulé, envois restants abandonnés", zap.Int("remaining", len(subscriptions)-i), zap.Error(err))
			for _, rest := range subscriptions[i:] {
				results <- cancelledOutcome(rest, err)
			}
			break
		}

		sub := sub
		g.Go(func() error {
			// Le créneau a pu se libérer après l'annulation du lot
			if err := ctx.Err(); err != nil {
				results <- cancelledOutcome(sub, err)
				return nil
			}
			results <- s.deliver(sendCtx, sub, body, log)
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	return <-aggregated
}

func (s *PushService) waitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return nil
}

// deliver chiffre et envoie le message à un abonnement
func (s *PushService) deliver(ctx context.Context, sub models.PushSubscription, body []byte, log *zap.Logger) models.DeliveryOutcome {
	start := time.Now()
	outcome := models.DeliveryOutcome{RecipientID: sub.RecipientID, Endpoint: sub.Endpoint}

	keys, err := s.subscriptionKeys(sub)
	if err != nil {
		return failedOutcome(outcome, start, err, log)
	}

	encrypted, err := webpush.Encrypt(body, keys)
	if err != nil {
		return failedOutcome(outcome, start, err, log)
	}

	authorization, err := s.signer.AuthorizationHeader(sub.Endpoint)
	if err != nil {
		return failedOutcome(outcome, start, err, log)
	}

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(encrypted))
	if err != nil {
		return failedOutcome(outcome, start, webpush.DeliveryError("requête invalide", 0, err), log)
	}
	req.Header.Set("TTL", strconv.Itoa(s.ttl))
	req.Header.Set("Urgency", s.urgency)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Authorization", authorization)

	resp, err := s.client.Do(req)
	if err != nil {
		return failedOutcome(outcome, start, webpush.DeliveryError("erreur réseau ou timeout", 0, err), log)
	}
	defer resp.Body.Close()

	outcome.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		outcome.Status = models.StatusDelivered
		outcome.DurationMs = time.Since(start).Milliseconds()
		log.Debug("✓ Notification envoyée", zap.String("recipient_id", sub.RecipientID), zap.Int("status", resp.StatusCode))
		return outcome

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_, _ = io.Copy(io.Discard, resp.Body)
		outcome.Status = models.StatusGone
		outcome.ErrorKind = webpush.KindDelivery.String()
		outcome.Error = "abonnement expiré"
		outcome.DurationMs = time.Since(start).Milliseconds()
		log.Info("🗑️  Abonnement expiré", zap.String("recipient_id", sub.RecipientID), zap.Int("status", resp.StatusCode))
		return outcome

	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		err := webpush.DeliveryError(fmt.Sprintf("réponse inattendue: %s", bytes.TrimSpace(detail)), resp.StatusCode, nil)
		return failedOutcome(outcome, start, err, log)
	}
}

// subscriptionKeys décode les clés d'un abonnement, en gardant les clés déjà validées en cache
func (s *PushService) subscriptionKeys(sub models.PushSubscription) (*webpush.SubscriptionKeys, error) {
	cacheKey := sub.Keys.P256dh + "." + sub.Keys.Auth
	if cached, err := s.keyCache.Get(cacheKey); err == nil {
		return cached.(*webpush.SubscriptionKeys), nil
	}

	keys, err := webpush.ParseSubscriptionKeys(sub.Keys.P256dh, sub.Keys.Auth)
	if err != nil {
		return nil, err
	}
	_ = s.keyCache.Set(cacheKey, keys)
	return keys, nil
}

func failedOutcome(outcome models.DeliveryOutcome, start time.Time, err error, log *zap.Logger) models.DeliveryOutcome {
	outcome.Status = models.StatusFailed
	outcome.Error = err.Error()
	outcome.ErrorKind = webpush.KindDelivery.String()
	var werr *webpush.Error
	if errors.As(err, &werr) {
		outcome.ErrorKind = werr.Kind.String()
		if werr.StatusCode != 0 {
			outcome.StatusCode = werr.StatusCode
		}
	}
	outcome.DurationMs = time.Since(start).Milliseconds()

	log.Warn("❌ Erreur lors de l'envoi de la notification",
		zap.String("recipient_id", outcome.RecipientID),
		zap.String("kind", outcome.ErrorKind),
		zap.Int("status", outcome.StatusCode),
		zap.Error(err),
	)
	return outcome
}

func cancelledOutcome(sub models.PushSubscription, cause error) models.DeliveryOutcome {
	return models.DeliveryOutcome{
		RecipientID: sub.RecipientID,
		Endpoint:    sub.Endpoint,
		Status:      models.StatusFailed,
		ErrorKind:   webpush.KindDelivery.String(),
		Error:       webpush.DeliveryError("envoi annulé", 0, cause).Error(),
	}
}

// prune supprime en un seul appel les abonnements expirés observés, même si le lot a été annulé
func (s *PushService) prune(ctx context.Context, report models.BatchReport, log *zap.Logger) models.BatchReport {
	gone := report.GoneEndpoints()
	if len(gone) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pruneTimeout)
	defer cancel()

	if err := s.registry.DeleteSubscriptions(ctx, gone); err != nil {
		log.Error("❌ Erreur lors de la suppression des abonnements expirés", zap.Int("count", len(gone)), zap.Error(err))
		report.PruneError = err.Error()
		return report
	}

	report.Pruned = len(gone)
	log.Info("🗑️  Abonnements expirés supprimés", zap.Int("count", len(gone)))
	return report
}

func (s *PushService) finalize(ctx context.Context, report models.BatchReport, log *zap.Logger) models.BatchReport {
	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	s.metrics.RecordBatch(report)

	log.Info("📊 Notifications envoyées",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("pruned", report.Pruned),
		zap.Int("total", report.Total),
		zap.Int64("duration_ms", report.DurationMs),
	)

	if s.reports != nil {
		if err := s.reports.Save(context.WithoutCancel(ctx), report); err != nil {
			log.Warn("⚠️  Rapport non enregistré", zap.Error(err))
		}
	}

	if s.alerter != nil && report.Failed > report.Gone && report.FailureRatio() >= s.alertRatio {
		if err := s.alerter.SendBatchAlert(report); err != nil {
			log.Warn("⚠️  Alerte Slack non envoyée", zap.Error(err))
		}
	}

	return report
}
