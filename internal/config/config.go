package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	DBUrl                string
	JWTSecret            string
	AppEnv               string
	EnableDocs           bool
	ClinicTimezone       string
	RefundPolicyVersion  int
	RefundFullHours      int
	RefundPartialPercent int64
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBUrl:                getEnv("DB_URL", ""),
		JWTSecret:            jwtSecret,
		AppEnv:               normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:           getEnvBool("ENABLE_API_DOCS", false),
		ClinicTimezone:       getEnv("CLINIC_TIMEZONE", "UTC"),
		RefundPolicyVersion:  getEnvInt("REFUND_POLICY_VERSION", 1),
		RefundFullHours:      getEnvInt("REFUND_FULL_HOURS", 24),
		RefundPartialPercent: int64(getEnvInt("REFUND_PARTIAL_PERCENT", 50)),
	}

	if cfg.RefundPartialPercent < 0 || cfg.RefundPartialPercent > 100 {
		return nil, fmt.Errorf("REFUND_PARTIAL_PERCENT must be within [0, 100]")
	}
	if cfg.RefundFullHours <= 0 {
		return nil, fmt.Errorf("REFUND_FULL_HOURS must be positive")
	}
	if _, err := time.LoadLocation(cfg.ClinicTimezone); err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q is not a valid IANA zone: %w", cfg.ClinicTimezone, err)
	}

	return cfg, nil
}

// ClinicLocation resolves the clinic's IANA timezone. Zoneless timestamps
// received from clients are interpreted in this location.
func (c *Config) ClinicLocation() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}
