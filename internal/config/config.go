package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort         = "8080"
	defaultDatabasePath = "data/canteen.db"
	defaultExportPath   = "data/exports"
	defaultSessionTTL   = 120 * time.Minute
	defaultLogLevel     = "info"
)

// Config holds the configuration for the application.
type Config struct {
	Port          string
	DatabasePath  string
	CatalogPath   string
	ExportPath    string
	ExportS3      ExportS3Config
	PayloadSecret string
	SessionTTL    time.Duration
	LogLevel      string
	CORSOrigins   []string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	TelegramAdminID        int64
}

// ExportS3Config selects an S3 bucket for exports instead of ExportPath.
type ExportS3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	payloadSecret := os.Getenv("CANTEEN_PAYLOAD_SECRET")
	if payloadSecret == "" {
		return nil, fmt.Errorf("CANTEEN_PAYLOAD_SECRET environment variable not set")
	}

	sessionTTL := defaultSessionTTL
	if raw := os.Getenv("CANTEEN_SESSION_TTL_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("CANTEEN_SESSION_TTL_MINUTES must be a positive integer, got %q", raw)
		}
		sessionTTL = time.Duration(minutes) * time.Minute
	}

	// Telegram Config (Optional for the CLI, required for the bot)
	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	var adminID int64
	if raw := os.Getenv("TELEGRAM_ADMIN_ID"); raw != "" {
		adminID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_ID: %w", err)
		}
	}

	return &Config{
		Port:         getEnv("CANTEEN_PORT", defaultPort),
		DatabasePath: getEnv("CANTEEN_DATABASE_PATH", defaultDatabasePath),
		CatalogPath:  os.Getenv("CANTEEN_CATALOG_PATH"),
		ExportPath:   getEnv("CANTEEN_EXPORT_PATH", defaultExportPath),
		ExportS3: ExportS3Config{
			Bucket:    os.Getenv("CANTEEN_EXPORT_S3_BUCKET"),
			Region:    os.Getenv("CANTEEN_EXPORT_S3_REGION"),
			Endpoint:  os.Getenv("CANTEEN_EXPORT_S3_ENDPOINT"),
			Prefix:    os.Getenv("CANTEEN_EXPORT_S3_PREFIX"),
			PathStyle: strings.EqualFold(os.Getenv("CANTEEN_EXPORT_S3_PATH_STYLE"), "true"),
		},
		PayloadSecret:          payloadSecret,
		SessionTTL:             sessionTTL,
		LogLevel:               getEnv("CANTEEN_LOG_LEVEL", defaultLogLevel),
		CORSOrigins:            parseList(os.Getenv("CANTEEN_CORS_ORIGINS")),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		TelegramAdminID:        adminID,
	}, nil
}

// RequireTelegram checks the settings the bot cannot run without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// TelegramEnabled reports whether a bot token was provided.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
