package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config collects every tunable the engine reads from the environment.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	RedisAddr   string

	// Scheduling tunables
	DefaultConsultMinutes int // queue ETA fallback before any consult completes
	NoShowGraceMinutes    int // grace after start before a no-show sweep fires
	AutoConfirmLeadHours  int // pending appointments confirm inside this window
	SlotHorizonDays       int // nightly generation covers this many days ahead
	SlotCleanupAfterDays  int

	// SMTP (reminder / notification delivery)
	SMTPHost  string
	SMTPPort  int
	EmailUser string
	EmailPass string
}

// Load reads .env if present and builds the Config with defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using environment variables directly")
	}

	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		DefaultConsultMinutes: getEnvInt("DEFAULT_CONSULT_MINUTES", 15),
		NoShowGraceMinutes:    getEnvInt("NO_SHOW_GRACE_MINUTES", 30),
		AutoConfirmLeadHours:  getEnvInt("AUTO_CONFIRM_LEAD_HOURS", 24),
		SlotHorizonDays:       getEnvInt("SLOT_HORIZON_DAYS", 7),
		SlotCleanupAfterDays:  getEnvInt("SLOT_CLEANUP_AFTER_DAYS", 30),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getEnvInt("SMTP_PORT", 587),
		EmailUser: os.Getenv("EMAIL_USER"),
		EmailPass: os.Getenv("EMAIL_PASS"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer in environment, using default")
		return fallback
	}
	return n
}
