package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// StatsWindow names a most-recent-N slice used by /stats. Size 0 means all records.
type StatsWindow struct {
	Name string
	Size int
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL         string
	TableName           string
	DBMaxConns          int
	Port                string
	LogLevel            string
	Environment         string
	ReportURL           string
	MaxRequestBodyBytes int64
	StatsWindows        []StatsWindow
	OutboundTimeout     time.Duration

	ImgflipLogin    string
	ImgflipPassword string
	ImgflipAPIURL   string
	MemePoolFile    string // Optional YAML override of the pre-generated image pool

	RedisAddr     string // Empty disables the caption cache
	RedisPassword string
	RedisDB       int
	MemeCacheTTL  time.Duration

	KafkaBrokers []string // Empty disables event publishing
	KafkaTopic   string

	TelegramToken  string // Empty disables Telegram announcements
	TelegramChatID int64

	PromptWebhookURL string // Empty disables the daily prompt
	CronSpecPrompt   string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL, err = databaseURLFromParts()
		if err != nil {
			return nil, err
		}
	}

	cfg.TableName = getEnv("EXPORT_STATS_DB_TABLE", "exports")
	cfg.DBMaxConns, err = strconv.Atoi(getEnv("EXPORT_STATS_DB_MAX_CONNS", "10"))
	if err != nil || cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("invalid EXPORT_STATS_DB_MAX_CONNS: %q", os.Getenv("EXPORT_STATS_DB_MAX_CONNS"))
	}
	cfg.Port = getEnv("PORT", "3000")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.ReportURL = getEnv("REPORT_URL", "https://oecd.github.io/export-stats/")

	cfg.MaxRequestBodyBytes, err = strconv.ParseInt(getEnv("MAX_REQUEST_BODY_BYTES", "1000000"), 10, 64)
	if err != nil || cfg.MaxRequestBodyBytes <= 0 {
		return nil, fmt.Errorf("invalid MAX_REQUEST_BODY_BYTES: %q", os.Getenv("MAX_REQUEST_BODY_BYTES"))
	}

	cfg.StatsWindows, err = ParseStatsWindows(getEnv("STATS_WINDOWS", "month:30,hundred:100,alltime:0"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_WINDOWS: %w", err)
	}

	cfg.OutboundTimeout, err = time.ParseDuration(getEnv("OUTBOUND_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_TIMEOUT: %w", err)
	}

	cfg.ImgflipLogin = os.Getenv("IMGFLIP_LOGIN")
	cfg.ImgflipPassword = os.Getenv("IMGFLIP_PASSWORD")
	cfg.ImgflipAPIURL = getEnv("IMGFLIP_API_URL", "https://api.imgflip.com/caption_image")
	cfg.MemePoolFile = os.Getenv("MEME_POOL_FILE")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.MemeCacheTTL, err = time.ParseDuration(getEnv("MEME_CACHE_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEME_CACHE_TTL: %w", err)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "export-stats.recorded")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
		}
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	cfg.PromptWebhookURL = os.Getenv("PROMPT_WEBHOOK_URL")
	cfg.CronSpecPrompt = getEnv("CRON_SPEC_PROMPT", "0 9 * * 1-5") // 9 AM on weekdays

	return cfg, nil
}

// ParseStatsWindows parses "name:size,name:size".
func ParseStatsWindows(spec string) ([]StatsWindow, error) {
	var windows []StatsWindow
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, sizeStr, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("window %q must look like name:size", part)
		}
		size, err := strconv.Atoi(strings.TrimSpace(sizeStr))
		if err != nil || size < 0 {
			return nil, fmt.Errorf("window %q has an invalid size", part)
		}
		windows = append(windows, StatsWindow{Name: strings.TrimSpace(name), Size: size})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows defined")
	}
	return windows, nil
}

func databaseURLFromParts() (string, error) {
	host := os.Getenv("EXPORT_STATS_DB_HOST")
	if host == "" {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	u := &url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + getEnv("EXPORT_STATS_DB_NAME", "export_stats"),
		RawQuery: "sslmode=" + getEnv("EXPORT_STATS_DB_SSLMODE", "require"),
	}
	if user := os.Getenv("EXPORT_STATS_DB_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("EXPORT_STATS_DB_PWD"))
	}
	return u.String(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
