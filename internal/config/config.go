package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the bot
type Config struct {
	// Mode
	DryRun bool
	Debug  bool

	// HTTP trigger API
	APIPort int

	// Sports to ingest/trade ("nba,nfl,mlb,nhl")
	Sports []string

	// Historical scores provider
	ScoresAPIURL     string
	ScoresAPIKey     string
	ScoresTimeout    time.Duration
	ScoresMaxRetries int
	ScoresRateLimit  float64 // requests per second
	IngestFanout     int     // concurrent date fetches per batch
	IngestBatchDelay time.Duration

	// Live line feed
	LinesWSURL   string
	LinesAPIURL  string
	LinesTimeout time.Duration

	// Trading venue
	VenueAPIURL     string
	VenueAPIKey     string
	VenuePrivateKey string // PEM-encoded RSA key
	VenueTimeout    time.Duration

	// Schedules
	TradeInterval  time.Duration // trading cycle cadence
	IngestInterval time.Duration // catch-up ingest cadence

	// Execution settings
	TradeLeadWindow  time.Duration   // only trade games starting within this window
	MinSampleCount   int             // confidence minimum for trading
	MaxPositionUSD   decimal.Decimal // max budget per position
	MaxOpenPositions int
	DailyLossCapUSD  decimal.Decimal
	MinPrice         decimal.Decimal // limit price band
	MaxPrice         decimal.Decimal

	// Edge strength tiers (edge magnitude thresholds, in points)
	StrongEdgePts   decimal.Decimal
	ModerateEdgePts decimal.Decimal
	WeakEdgePts     decimal.Decimal

	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Database
	DatabasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DryRun: getEnvBool("DRY_RUN", true),
		Debug:  getEnvBool("DEBUG", false),

		APIPort: getEnvInt("API_PORT", 8080),

		Sports: splitList(getEnv("SPORTS", "nba")),

		ScoresAPIURL:     getEnv("SCORES_API_URL", "https://api.sportscores.example.com"),
		ScoresAPIKey:     os.Getenv("SCORES_API_KEY"),
		ScoresTimeout:    getEnvDuration("SCORES_TIMEOUT", 15*time.Second),
		ScoresMaxRetries: getEnvInt("SCORES_MAX_RETRIES", 4),
		ScoresRateLimit:  getEnvFloat("SCORES_RATE_LIMIT", 5),
		IngestFanout:     getEnvInt("INGEST_FANOUT", 10),
		IngestBatchDelay: getEnvDuration("INGEST_BATCH_DELAY", 500*time.Millisecond),

		LinesWSURL:   getEnv("LINES_WS_URL", ""),
		LinesAPIURL:  getEnv("LINES_API_URL", ""),
		LinesTimeout: getEnvDuration("LINES_TIMEOUT", 10*time.Second),

		VenueAPIURL:     getEnv("VENUE_API_URL", "https://demo-api.kalshi.co/trade-api/v2"),
		VenueAPIKey:     os.Getenv("VENUE_API_KEY"),
		VenuePrivateKey: os.Getenv("VENUE_PRIVATE_KEY"),
		VenueTimeout:    getEnvDuration("VENUE_TIMEOUT", 10*time.Second),

		TradeInterval:  getEnvDuration("TRADE_INTERVAL", 15*time.Minute),
		IngestInterval: getEnvDuration("INGEST_INTERVAL", 6*time.Hour),

		TradeLeadWindow:  getEnvDuration("TRADE_LEAD_WINDOW", 8*time.Hour),
		MinSampleCount:   getEnvInt("MIN_SAMPLE_COUNT", 5),
		MaxPositionUSD:   getEnvDecimal("MAX_POSITION_USD", decimal.NewFromInt(100)),
		MaxOpenPositions: getEnvInt("MAX_OPEN_POSITIONS", 10),
		DailyLossCapUSD:  getEnvDecimal("DAILY_LOSS_CAP_USD", decimal.NewFromInt(200)),
		MinPrice:         getEnvDecimal("MIN_PRICE", decimal.NewFromFloat(0.40)),
		MaxPrice:         getEnvDecimal("MAX_PRICE", decimal.NewFromFloat(0.65)),

		StrongEdgePts:   getEnvDecimal("STRONG_EDGE_PTS", decimal.NewFromInt(8)),
		ModerateEdgePts: getEnvDecimal("MODERATE_EDGE_PTS", decimal.NewFromInt(4)),
		WeakEdgePts:     getEnvDecimal("WEAK_EDGE_PTS", decimal.NewFromInt(1)),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DatabasePath: getEnv("DATABASE_PATH", "data/edgebot.db"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// Live trading requires venue credentials; dry-run does not
	if !cfg.DryRun {
		if cfg.VenueAPIKey == "" || cfg.VenuePrivateKey == "" {
			return nil, fmt.Errorf("VENUE_API_KEY and VENUE_PRIVATE_KEY are required when DRY_RUN=false")
		}
	}

	if !cfg.MinPrice.LessThan(cfg.MaxPrice) {
		return nil, fmt.Errorf("MIN_PRICE must be below MAX_PRICE")
	}

	return cfg, nil
}

// Helper functions

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
