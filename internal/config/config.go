package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Feed struct {
		URL         string
		Interval    time.Duration
		TargetAreas []string
	}
	Gateway struct {
		BaseURL string
		APIKey  string
		Sender  string
		Timeout time.Duration
	}
	Scheduler struct {
		Interval    time.Duration
		FetchLimit  int
		MaxBatch    int
		MaxAttempts int
	}
	Warning struct {
		// ActiveHorizon caps how long a warning stays active when the alert
		// itself carries no usable expiry.
		ActiveHorizon time.Duration
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	API struct {
		Port string
	}
	App struct {
		Timezone string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Feed.URL = os.Getenv("FEED_URL")
	cfg.Feed.Interval = durationEnv("FEED_INTERVAL")
	if areas := os.Getenv("TARGET_AREAS"); areas != "" {
		for _, a := range strings.Split(areas, ",") {
			if a = strings.TrimSpace(a); a != "" {
				cfg.Feed.TargetAreas = append(cfg.Feed.TargetAreas, a)
			}
		}
	}

	cfg.Gateway.BaseURL = os.Getenv("GATEWAYAPI_BASE")
	cfg.Gateway.APIKey = strings.TrimSpace(os.Getenv("GATEWAYAPI_API_KEY"))
	cfg.Gateway.Sender = os.Getenv("REPLY_SENDER")
	cfg.Gateway.Timeout = durationEnv("GATEWAY_TIMEOUT")

	cfg.Scheduler.Interval = durationEnv("SCHEDULER_INTERVAL")
	cfg.Scheduler.FetchLimit = intEnv("SCHEDULER_FETCH_LIMIT")
	cfg.Scheduler.MaxBatch = intEnv("SCHEDULER_MAX_BATCH")
	cfg.Scheduler.MaxAttempts = intEnv("SCHEDULER_MAX_ATTEMPTS")

	cfg.Warning.ActiveHorizon = durationEnv("WARNING_ACTIVE_HORIZON")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.App.Timezone = os.Getenv("APP_TIMEZONE")
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Gateway.APIKey == "" {
		missing = append(missing, "GATEWAYAPI_API_KEY")
	}
	if cfg.Gateway.Sender == "" {
		missing = append(missing, "REPLY_SENDER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = "https://alerts.fmi.fi/cap/feed/rss_en-GB.rss"
	}
	if cfg.Feed.Interval == 0 {
		cfg.Feed.Interval = time.Minute
	}
	if len(cfg.Feed.TargetAreas) == 0 {
		cfg.Feed.TargetAreas = []string{"Uusimaa"}
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://gatewayapi.eu"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 15 * time.Second
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = time.Minute
	}
	if cfg.Scheduler.FetchLimit == 0 {
		cfg.Scheduler.FetchLimit = 5000
	}
	if cfg.Scheduler.MaxBatch == 0 {
		cfg.Scheduler.MaxBatch = 1000
	}
	if cfg.Scheduler.MaxAttempts == 0 {
		cfg.Scheduler.MaxAttempts = 5
	}
	if cfg.Warning.ActiveHorizon == 0 {
		cfg.Warning.ActiveHorizon = 7 * 24 * time.Hour
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "warning_events"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Europe/Helsinki"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

func durationEnv(key string) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return 0
}

func intEnv(key string) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return 0
}
