package models

import (
	"slices"
	"time"
)

// DeliveryStatus est l'état final d'une tentative d'envoi pour un destinataire
type DeliveryStatus string

const (
	// StatusDelivered : le push service a accepté le message (2xx)
	StatusDelivered DeliveryStatus = "delivered"
	// StatusGone : abonnement expiré (404/410), à supprimer du registre
	StatusGone DeliveryStatus = "gone"
	// StatusFailed : erreur de chiffrement, réponse inattendue, réseau ou timeout
	StatusFailed DeliveryStatus = "failed"
)

// DeliveryOutcome est le résultat d'une tentative d'envoi
type DeliveryOutcome struct {
	RecipientID string         `json:"recipient_id"`
	Endpoint    string         `json:"endpoint"`
	Status      DeliveryStatus `json:"status"`
	StatusCode  int            `json:"status_code,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

// Success indique si le message a été accepté par le push service
func (o DeliveryOutcome) Success() bool {
	return o.Status == StatusDelivered
}

// RecipientError décrit l'échec d'un destinataire dans le rapport
type RecipientError struct {
	RecipientID string `json:"recipient_id"`
	Endpoint    string `json:"endpoint"`
	Kind        string `json:"kind"`
	StatusCode  int    `json:"status_code,omitempty"`
	Message     string `json:"message"`
}

// BatchReport est le rapport agrégé d'un lot d'envois
type BatchReport struct {
	BatchID string `json:"batch_id"`
	Sent    int    `json:"sent"`
	// Failed inclut les abonnements expirés (Gone)
	Failed int `json:"failed"`
	Gone   int `json:"gone"`
	// Pruned vaut le nombre d'endpoints expirés transmis à la suppression
	// groupée, pas le nombre de lignes effectivement supprimées par le registre.
	Pruned     int               `json:"pruned"`
	Total      int               `json:"total"`
	Note       string            `json:"note,omitempty"`
	Outcomes   []DeliveryOutcome `json:"outcomes,omitempty"`
	Errors     []RecipientError  `json:"errors,omitempty"`
	PruneError string            `json:"prune_error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMs int64             `json:"duration_ms"`
}

// ReportBuilder accumule les résultats d'un lot. Il appartient à une seule
// goroutine ; Report en fige une copie indépendante.
type ReportBuilder struct {
	report BatchReport
}

// NewReportBuilder démarre l'agrégation à partir de base
func NewReportBuilder(base BatchReport) *ReportBuilder {
	return &ReportBuilder{report: base.clone()}
}

// Add ajoute un résultat au rapport en cours.
// Un abonnement expiré compte comme un échec de livraison.
func (b *ReportBuilder) Add(o DeliveryOutcome) {
	r := &b.report
	r.Outcomes = append(r.Outcomes, o)
	r.Total++

	if o.Success() {
		r.Sent++
		return
	}

	r.Failed++
	if o.Status == StatusGone {
		r.Gone++
	}
	r.Errors = append(r.Errors, RecipientError{
		RecipientID: o.RecipientID,
		Endpoint:    o.Endpoint,
		Kind:        o.ErrorKind,
		StatusCode:  o.StatusCode,
		Message:     o.Error,
	})
}

// Report retourne le rapport agrégé, sans partage de mémoire avec le builder
func (b *ReportBuilder) Report() BatchReport {
	return b.report.clone()
}

func (r BatchReport) clone() BatchReport {
	next := r
	next.Outcomes = slices.Clone(r.Outcomes)
	next.Errors = slices.Clone(r.Errors)
	return next
}

// GoneEndpoints liste les endpoints à supprimer du registre
func (r BatchReport) GoneEndpoints() []string {
	var endpoints []string
	for _, o := range r.Outcomes {
		if o.Status == StatusGone {
			endpoints = append(endpoints, o.Endpoint)
		}
	}
	return endpoints
}

// FailureRatio retourne la part d'échecs réels du lot (0 si aucun envoi).
// Les abonnements expirés sont un cycle de vie normal et n'y comptent pas.
func (r BatchReport) FailureRatio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Failed-r.Gone) / float64(r.Total)
}
