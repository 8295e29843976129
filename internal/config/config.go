package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// USGS summary feed.
	FeedBaseURL   string
	FeedTimeout   time.Duration
	DefaultFilter domain.Filter
	MarkerColor   string

	TimezoneEnabled bool

	// Optional snapshot publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeoutStr := sharedcfg.EnvOrDefault("FEED_TIMEOUT", "30s")
	feedTimeout, err := time.ParseDuration(feedTimeoutStr)
	if err != nil || feedTimeout <= 0 {
		return nil, errors.New("invalid FEED_TIMEOUT")
	}

	mag, err := domain.ParseMagnitude(sharedcfg.EnvOrDefault("DEFAULT_MIN_MAGNITUDE", string(domain.Magnitude2_5)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_MIN_MAGNITUDE: %w", err)
	}
	window, err := domain.ParseWindow(sharedcfg.EnvOrDefault("DEFAULT_WINDOW", string(domain.WindowWeek)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_WINDOW: %w", err)
	}
	filter := domain.Filter{MinMagnitude: mag, Window: window}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("DEFAULT_MIN_MAGNITUDE/DEFAULT_WINDOW: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedBaseURL:   sharedcfg.EnvOrDefault("FEED_BASE_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary"),
		FeedTimeout:   feedTimeout,
		DefaultFilter: filter,
		MarkerColor:   sharedcfg.EnvOrDefault("MARKER_COLOR", "#d7301f"),

		TimezoneEnabled: os.Getenv("TIMEZONE_ENABLED") != "false",

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "earthquake-events"),
	}

	if cfg.FeedBaseURL == "" {
		return nil, errors.New("FEED_BASE_URL is required")
	}
	if !hexColor.MatchString(cfg.MarkerColor) {
		return nil, fmt.Errorf("invalid MARKER_COLOR %q", cfg.MarkerColor)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}
