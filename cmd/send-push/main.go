package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"adherence-push-backend/config"
	"adherence-push-backend/database"
	"adherence-push-backend/models"
	"adherence-push-backend/services"
	"adherence-push-backend/utils"
	"adherence-push-backend/webpush"

	"go.uber.org/zap"
)

// Envoie une notification aux appareils des destinataires donnés et affiche le rapport.
//
//	go run ./cmd/send-push -recipients patient-1,patient-2 -title "Rappel" -body "Dose de 8h"
func main() {
	recipients := flag.String("recipients", "", "identifiants des destinataires, séparés par des virgules")
	title := flag.String("title", "🔔 Notification de test", "titre de la notification")
	body := flag.String("body", "Les notifications fonctionnent sur cet appareil", "texte de la notification")
	tag := flag.String("tag", "test", "tag de regroupement")
	timeout := flag.Duration("timeout", time.Minute, "durée maximale du lot")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Erreur lors de l'initialisation du logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	vapidKeys, err := webpush.ParseVAPIDKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		logger.Fatal("❌ Clés VAPID invalides", zap.Error(err))
	}
	signer, err := webpush.NewVAPIDSigner(vapidKeys, cfg.VAPIDSubject)
	if err != nil {
		logger.Fatal("❌ Sujet VAPID invalide", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("❌ Erreur de connexion à MongoDB", zap.Error(err))
	}
	defer func() { _ = mongo.Close(context.Background()) }()

	pushService := services.NewPushService(database.NewSubscriptionRepository(mongo.DB), signer,
		services.WithLogger(logger),
		services.WithConcurrency(cfg.PushConcurrency),
		services.WithSendTimeout(time.Duration(cfg.PushTimeoutSecs)*time.Second),
		services.WithTTL(cfg.PushTTLSeconds),
	)

	payload := models.PushPayload{Title: *title, Body: *body, Tag: *tag}
	report, err := pushService.SendPush(ctx, splitRecipients(*recipients), payload)
	if err != nil {
		logger.Fatal("❌ Lot refusé", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatal("❌ Erreur lors de l'affichage du rapport", zap.Error(err))
	}
}

func splitRecipients(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
