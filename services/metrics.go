package services

import (
	"sync/atomic"
	"time"

	"adherence-push-backend/models"
	"adherence-push-backend/webpush"

	"go.uber.org/zap"
)

// Metrics regroupe les compteurs du moteur d'envoi
type Metrics struct {
	Batches            atomic.Int64
	Sent               atomic.Int64
	Failed             atomic.Int64
	Gone               atomic.Int64
	Pruned             atomic.Int64
	PruneFailures      atomic.Int64
	CryptoErrors       atomic.Int64
	ValidationRejected atomic.Int64
	TotalBatchTimeMs   atomic.Int64
	StartTime          time.Time
}

// MetricsSnapshot est une copie figée des compteurs
type MetricsSnapshot struct {
	Batches            int64   `json:"batches"`
	Sent               int64   `json:"sent"`
	Failed             int64   `json:"failed"`
	Gone               int64   `json:"gone"`
	Pruned             int64   `json:"pruned"`
	PruneFailures      int64   `json:"prune_failures"`
	CryptoErrors       int64   `json:"crypto_errors"`
	ValidationRejected int64   `json:"validation_rejected"`
	AvgBatchTimeMs     float64 `json:"avg_batch_time_ms"`
	UptimeSeconds      int64   `json:"uptime_seconds"`
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RecordBatch ajoute un rapport aux compteurs
func (m *Metrics) RecordBatch(report models.BatchReport) {
	m.Batches.Add(1)
	m.Sent.Add(int64(report.Sent))
	m.Failed.Add(int64(report.Failed))
	m.Pruned.Add(int64(report.Pruned))
	m.TotalBatchTimeMs.Add(report.DurationMs)
	if report.PruneError != "" {
		m.PruneFailures.Add(1)
	}

	m.Gone.Add(int64(report.Gone))

	for _, o := range report.Outcomes {
		if o.ErrorKind == webpush.KindCrypto.String() {
			m.CryptoErrors.Add(1)
		}
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	batches := m.Batches.Load()
	var avg float64
	if batches > 0 {
		avg = float64(m.TotalBatchTimeMs.Load()) / float64(batches)
	}

	return MetricsSnapshot{
		Batches:            batches,
		Sent:               m.Sent.Load(),
		Failed:             m.Failed.Load(),
		Gone:               m.Gone.Load(),
		Pruned:             m.Pruned.Load(),
		PruneFailures:      m.PruneFailures.Load(),
		CryptoErrors:       m.CryptoErrors.Load(),
		ValidationRejected: m.ValidationRejected.Load(),
		AvgBatchTimeMs:     avg,
		UptimeSeconds:      int64(time.Since(m.StartTime).Seconds()),
	}
}

// LogMetrics écrit les compteurs dans les logs
func (m *Metrics) LogMetrics(logger *zap.Logger) {
	s := m.Snapshot()
	logger.Info("📈 Métriques push",
		zap.Int64("batches", s.Batches),
		zap.Int64("sent", s.Sent),
		zap.Int64("failed", s.Failed),
		zap.Int64("gone", s.Gone),
		zap.Int64("pruned", s.Pruned),
		zap.Int64("prune_failures", s.PruneFailures),
		zap.Int64("crypto_errors", s.CryptoErrors),
		zap.Int64("validation_rejected", s.ValidationRejected),
		zap.Float64("avg_batch_time_ms", s.AvgBatchTimeMs),
		zap.Int64("uptime_seconds", s.UptimeSeconds),
	)
}
