package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"adherence-push-backend/utils"

	"github.com/joho/godotenv"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port              string
	Host              string
	Environment       string
	LogLevel          string
	MongoURI          string
	MongoDB           string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ReportHistorySize int
	JWTSecret         string
	CORSOrigins       []string
	VAPIDPublicKey    string
	VAPIDPrivateKey   string
	VAPIDSubject      string
	PushConcurrency   int
	PushTimeoutSecs   int
	PushRateLimit     int
	PushTTLSeconds    int
	MetricsSchedule   string
	SlackWebhookURL   string
	AlertFailureRatio float64
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8090"),
		Host:            getEnv("HOST", "0.0.0.0"), // 0.0.0.0 pour serveur cloud
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "adherence_db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""), // vide = historique des rapports désactivé
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:contact@example.com"),
		MetricsSchedule: getEnv("METRICS_SCHEDULE", "@every 5m"),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
	}

	var err error
	if config.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.ReportHistorySize, err = getEnvInt("REPORT_HISTORY_SIZE", 100); err != nil {
		return nil, err
	}
	if config.PushConcurrency, err = getEnvInt("PUSH_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	if config.PushTimeoutSecs, err = getEnvInt("PUSH_TIMEOUT_SECONDS", 10); err != nil {
		return nil, err
	}
	if config.PushRateLimit, err = getEnvInt("PUSH_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if config.PushTTLSeconds, err = getEnvInt("PUSH_TTL_SECONDS", 86400); err != nil {
		return nil, err
	}
	if config.AlertFailureRatio, err = getEnvFloat("ALERT_FAILURE_RATIO", 0.5); err != nil {
		return nil, err
	}

	// Parser les origines CORS
	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	originsList := strings.Split(origins, ",")
	config.CORSOrigins = make([]string, 0, len(originsList))
	for _, origin := range originsList {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			config.CORSOrigins = append(config.CORSOrigins, trimmed)
		}
	}

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	if config.VAPIDPublicKey == "" || config.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID_PUBLIC_KEY et VAPID_PRIVATE_KEY sont requis")
	}
	if err := utils.ValidateContactURI(config.VAPIDSubject); err != nil {
		return nil, fmt.Errorf("VAPID_SUBJECT invalide: %w", err)
	}
	if config.AlertFailureRatio < 0 || config.AlertFailureRatio > 1 {
		return nil, fmt.Errorf("ALERT_FAILURE_RATIO doit être compris entre 0 et 1")
	}

	return config, nil
}

// IsProduction indique si l'application tourne en production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s doit être un entier: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s doit être un nombre: %w", key, err)
	}
	return f, nil
}
