package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Temirlan00/league-system/models"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	Environment  string // "production" скрывает детали внутренних ошибок

	// Cloudflare R2 (доказательства для штрафов)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// SMTP для уведомлений игрокам
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Политика поздних отмен: окно в часах и дефолтная строгость штрафа,
	// если админ не указал её явно.
	LateCancelWindowHours  int
	DefaultPenaltySeverity models.PenaltySeverity

	// Интервал фонового диспетчера уведомлений, в секундах.
	NotifyDispatchInterval int
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load() // Ошибку отсутствия .env не считаем фатальной

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	windowHours, err := intEnv("LATE_CANCEL_WINDOW_HOURS", 24)
	if err != nil {
		return nil, err
	}
	if windowHours <= 0 {
		return nil, fmt.Errorf("LATE_CANCEL_WINDOW_HOURS must be positive, got %d", windowHours)
	}

	severity := models.PenaltySeverity(getEnvOrDefault("DEFAULT_PENALTY_SEVERITY", string(models.SeverityModerate)))
	if !severity.Valid() {
		return nil, fmt.Errorf("DEFAULT_PENALTY_SEVERITY is not a valid severity: %q", severity)
	}

	dispatchInterval, err := intEnv("NOTIFY_DISPATCH_INTERVAL_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	if dispatchInterval <= 0 {
		return nil, fmt.Errorf("NOTIFY_DISPATCH_INTERVAL_SECONDS must be positive, got %d", dispatchInterval)
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		Environment:  getEnvOrDefault("ENVIRONMENT", "development"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		LateCancelWindowHours:  windowHours,
		DefaultPenaltySeverity: severity,
		NotifyDispatchInterval: dispatchInterval,
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}
