package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adherence-push-backend/models"

	"github.com/redis/go-redis/v9"
)

const reportsKey = "push:reports"

// ReportStore conserve l'historique des rapports de lots dans Redis
type ReportStore struct {
	rdb     *redis.Client
	maxSize int64
}

// NewReportStore crée un ReportStore limité à maxSize rapports
func NewReportStore(rdb *redis.Client, maxSize int) *ReportStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &ReportStore{rdb: rdb, maxSize: int64(maxSize)}
}

// ConnectRedis ouvre le client Redis et vérifie la connexion
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("erreur lors du ping Redis: %w", err)
	}
	return rdb, nil
}

// Save ajoute un rapport en tête de liste et tronque l'historique
func (s *ReportStore) Save(ctx context.Context, report models.BatchReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du rapport: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, reportsKey, data)
		pipe.LTrim(ctx, reportsKey, 0, s.maxSize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement du rapport: %w", err)
	}
	return nil
}

// Recent retourne les n derniers rapports, du plus récent au plus ancien
func (s *ReportStore) Recent(ctx context.Context, n int) ([]models.BatchReport, error) {
	if n <= 0 || int64(n) > s.maxSize {
		n = int(s.maxSize)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	items, err := s.rdb.LRange(ctx, reportsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture des rapports: %w", err)
	}

	reports := make([]models.BatchReport, 0, len(items))
	for _, item := range items {
		var report models.BatchReport
		if err := json.Unmarshal([]byte(item), &report); err != nil {
			return nil, fmt.Errorf("erreur lors du décodage d'un rapport: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Ping vérifie que Redis répond
func (s *ReportStore) Ping(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("client Redis non initialisé")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
