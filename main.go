package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adherence-push-backend/config"
	"adherence-push-backend/constants"
	"adherence-push-backend/database"
	"adherence-push-backend/handlers"
	"adherence-push-backend/middleware"
	"adherence-push-backend/services"
	"adherence-push-backend/utils"
	"adherence-push-backend/webpush"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Erreur lors de l'initialisation du logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Les clés VAPID sont validées une seule fois, au démarrage
	vapidKeys, err := webpush.ParseVAPIDKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		logger.Fatal("❌ Clés VAPID invalides", zap.Error(err))
	}
	signer, err := webpush.NewVAPIDSigner(vapidKeys, cfg.VAPIDSubject)
	if err != nil {
		logger.Fatal("❌ Sujet VAPID invalide", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		logger.Fatal("❌ Erreur de connexion à MongoDB", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			logger.Warn("⚠️  Erreur lors de la fermeture de MongoDB", zap.Error(err))
		}
	}()
	logger.Info("✓ Connecté à MongoDB", zap.String("database", cfg.MongoDB))

	subscriptionRepo := database.NewSubscriptionRepository(mongo.DB)
	metrics := services.NewMetrics()

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(metrics),
		services.WithConcurrency(cfg.PushConcurrency),
		services.WithSendTimeout(time.Duration(cfg.PushTimeoutSecs) * time.Second),
		services.WithRateLimit(cfg.PushRateLimit),
		services.WithTTL(cfg.PushTTLSeconds),
	}

	// Historique des rapports (optionnel)
	var (
		reportStore *database.ReportStore
		reports     handlers.ReportLister
		redisPinger handlers.Pinger
	)
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logger.Warn("⚠️  Redis indisponible - historique des rapports désactivé", zap.Error(err))
		} else {
			defer rdb.Close()
			reportStore = database.NewReportStore(rdb, cfg.ReportHistorySize)
			reports, redisPinger = reportStore, reportStore
			opts = append(opts, services.WithReportStore(reportStore))
			logger.Info("✓ Connecté à Redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	slackService := services.NewSlackService(cfg.SlackWebhookURL, logger)
	if slackService.Enabled() {
		opts = append(opts, services.WithAlerter(slackService, cfg.AlertFailureRatio))
	}

	pushService := services.NewPushService(subscriptionRepo, signer, opts...)

	metricsCron, err := services.NewMetricsCron(metrics, logger, cfg.MetricsSchedule)
	if err != nil {
		logger.Fatal("❌ METRICS_SCHEDULE invalide", zap.Error(err))
	}
	metricsCron.Start()
	defer metricsCron.Stop()

	// Handlers
	healthHandler := handlers.NewHealthHandler(cfg.Environment, mongo, redisPinger, metrics)
	notificationHandler := handlers.NewNotificationHandler(pushService, subscriptionRepo, reports, logger)

	router := mux.NewRouter()
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	api := router.PathPrefix("/api").Subrouter()

	// Routes publiques
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/notifications/vapid-public-key", notificationHandler.GetVAPIDPublicKey).Methods(http.MethodGet, http.MethodOptions)

	// Routes authentifiées
	authed := api.PathPrefix("/notifications").Subrouter()
	authed.Use(middleware.Auth(cfg.JWTSecret))
	authed.HandleFunc("/subscribe", notificationHandler.Subscribe).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/unsubscribe", notificationHandler.Unsubscribe).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/test", notificationHandler.SendTest).Methods(http.MethodPost, http.MethodOptions)

	// Routes des services internes
	internalOnly := middleware.RequireRole(constants.RoleService, constants.RoleAdmin)
	authed.Handle("/send", internalOnly(http.HandlerFunc(notificationHandler.Send))).Methods(http.MethodPost, http.MethodOptions)
	authed.Handle("/reports", internalOnly(http.HandlerFunc(notificationHandler.ListReports))).Methods(http.MethodGet, http.MethodOptions)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Serveur démarré",
			zap.String("addr", addr),
			zap.String("environment", cfg.Environment),
			zap.String("vapid_public_key", pushService.VAPIDPublicKey()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Erreur du serveur", zap.Error(err))
		}
	}()

	// Attendre le signal d'arrêt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Erreur lors de l'arrêt du serveur", zap.Error(err))
	}
	metrics.LogMetrics(logger)
	logger.Info("✓ Serveur arrêté proprement")
}
