package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MetricsCron publie périodiquement les métriques dans les logs
type MetricsCron struct {
	metrics *Metrics
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewMetricsCron crée le cron job. schedule accepte la syntaxe robfig/cron (ex: "@every 5m").
func NewMetricsCron(metrics *Metrics, logger *zap.Logger, schedule string) (*MetricsCron, error) {
	mc := &MetricsCron{
		metrics: metrics,
		logger:  logger,
		cron:    cron.New(),
	}

	if _, err := mc.cron.AddFunc(schedule, mc.publish); err != nil {
		return nil, fmt.Errorf("erreur lors de la planification des métriques %q: %w", schedule, err)
	}
	return mc, nil
}

// Start démarre le cron job
func (mc *MetricsCron) Start() {
	mc.cron.Start()
	mc.logger.Info("✓ Cron job métriques démarré")
}

// Stop arrête le cron job et attend la fin d'une publication en cours
func (mc *MetricsCron) Stop() {
	<-mc.cron.Stop().Done()
}

func (mc *MetricsCron) publish() {
	mc.metrics.LogMetrics(mc.logger)
}
