package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"adherence-push-backend/constants"
	"adherence-push-backend/models"

	"go.uber.org/zap"
)

// SlackService gère l'envoi d'alertes Slack
type SlackService struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// SlackMessage représente un message Slack
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment représente une pièce jointe Slack
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field représente un champ dans une pièce jointe Slack
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackService crée une nouvelle instance de SlackService.
// Sans URL de webhook, le service est désactivé.
func NewSlackService(webhookURL string, logger *zap.Logger) *SlackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if webhookURL == "" {
		logger.Warn("⚠️  Slack webhook URL non configuré - alertes Slack désactivées")
	}

	return &SlackService{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Enabled indique si un webhook est configuré
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// SendBatchAlert signale un lot dont trop d'envois ont échoué
func (s *SlackService) SendBatchAlert(report models.BatchReport) error {
	if !s.Enabled() {
		return nil
	}

	color := "warning"
	if report.Sent == 0 {
		color = "danger"
	}

	attachment := Attachment{
		Color:     color,
		Title:     fmt.Sprintf("🚨 Lot de notifications en échec (%d/%d)", report.Failed-report.Gone, report.Total),
		Text:      fmt.Sprintf("Lot %s", report.BatchID),
		Timestamp: time.Now().Unix(),
		Footer:    "Adhérence - Push",
		Fields: []Field{
			{Title: "Envoyées", Value: fmt.Sprintf("%d", report.Sent), Short: true},
			{Title: "Échecs", Value: fmt.Sprintf("%d", report.Failed-report.Gone), Short: true},
			{Title: "Expirés", Value: fmt.Sprintf("%d", report.Gone), Short: true},
			{Title: "Supprimés", Value: fmt.Sprintf("%d", report.Pruned), Short: true},
			{Title: "Durée", Value: fmt.Sprintf("%d ms", report.DurationMs), Short: true},
		},
	}

	if len(report.Errors) > 0 {
		first := report.Errors[0]
		attachment.Fields = append(attachment.Fields, Field{
			Title: "Première erreur",
			Value: fmt.Sprintf("[%s] %s", first.Kind, first.Message),
			Short: false,
		})
	}

	if report.PruneError != "" {
		attachment.Fields = append(attachment.Fields, Field{
			Title: "Suppression",
			Value: report.PruneError,
			Short: false,
		})
	}

	return s.post(SlackMessage{Attachments: []Attachment{attachment}})
}

func (s *SlackService) post(msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du message Slack: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.HeaderApplicationJSON)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack a retourné un code d'erreur: %d", resp.StatusCode)
	}

	s.logger.Info("✓ Alerte Slack envoyée")
	return nil
}
