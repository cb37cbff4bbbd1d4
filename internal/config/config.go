package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"daycheck/internal/model"
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	Location      *time.Location
	LogLevel      string
	// DigestTime is nil when the daily digest is disabled.
	DigestTime   *model.Clock
	MaxRangeDays int
	RangeWorkers int
	MetricsAddr  string
}

// ErrMissingToken is returned by RequireToken when TELEGRAM_TOKEN is unset.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is required")

// LoadDotEnv reads the given env files into the process environment when
// they exist. Variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   getEnvOrDefault("DATABASE_URL", "daycheck.db"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		MetricsAddr:   strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		Location:      time.Local,
	}

	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	digest, ok := os.LookupEnv("DIGEST_TIME")
	if !ok {
		digest = "08:00"
	}
	if digest = strings.TrimSpace(digest); digest != "" {
		clock, err := model.ParseClock(digest)
		if err != nil {
			return cfg, fmt.Errorf("DIGEST_TIME: %w", err)
		}
		cfg.DigestTime = &clock
	}

	var err error
	if cfg.MaxRangeDays, err = positiveInt("MAX_RANGE_DAYS", 366); err != nil {
		return cfg, err
	}
	if cfg.RangeWorkers, err = positiveInt("RANGE_WORKERS", 4); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// RequireToken checks the settings only the bot needs.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
