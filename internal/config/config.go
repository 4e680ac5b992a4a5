// Package config loads service settings from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// EnsoDelimiter is the ENSO file field separator: "auto", ",", ";", or
	// "tab". Source variants disagree, so it is configurable, not hardcoded.
	EnsoDelimiter string
	WarmThreshold float64
	ColdThreshold float64

	// SourceEPSG is the CRS assigned to geometry sources that declare none.
	SourceEPSG int

	MaxUploadBytes int64
	ParseCacheSize int

	// Grid defaults for the interpolated precipitation surface.
	GridNX int
	GridNY int

	// Kafka sink (optional, feature-flagged).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	warm, err := parseFloat("ENSO_WARM_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}
	cold, err := parseFloat("ENSO_COLD_THRESHOLD", -0.5)
	if err != nil {
		return nil, err
	}

	sourceEPSG, err := parseInt("SOURCE_EPSG", 9377)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parseInt("MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("PARSE_CACHE_SIZE", 32)
	if err != nil {
		return nil, err
	}
	gridNX, err := parseInt("GRID_NX", 40)
	if err != nil {
		return nil, err
	}
	gridNY, err := parseInt("GRID_NY", 40)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		EnsoDelimiter: envOrDefault("ENSO_DELIMITER", "auto"),
		WarmThreshold: warm,
		ColdThreshold: cold,

		SourceEPSG:     sourceEPSG,
		MaxUploadBytes: int64(maxUpload),
		ParseCacheSize: cacheSize,
		GridNX:         gridNX,
		GridNY:         gridNY,

		KafkaEnabled:   envOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:   splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "rainfall-analysis-rows"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WarmThreshold <= c.ColdThreshold {
		return errors.New("ENSO_WARM_THRESHOLD must exceed ENSO_COLD_THRESHOLD")
	}
	switch c.EnsoDelimiter {
	case "auto", ",", ";", "tab":
	default:
		return fmt.Errorf("invalid ENSO_DELIMITER %q (want auto, \",\", \";\", or tab)", c.EnsoDelimiter)
	}
	switch c.SourceEPSG {
	case 9377, 4326:
	default:
		return fmt.Errorf("unsupported SOURCE_EPSG %d (want 9377 or 4326)", c.SourceEPSG)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.ParseCacheSize <= 0 {
		return errors.New("PARSE_CACHE_SIZE must be positive")
	}
	if c.GridNX < 2 || c.GridNY < 2 {
		return errors.New("GRID_NX and GRID_NY must be at least 2")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	return nil
}

// EnsoDelimiterRune resolves the configured delimiter; 0 means auto-detect.
func (c *Config) EnsoDelimiterRune() rune {
	switch c.EnsoDelimiter {
	case ",":
		return ','
	case ";":
		return ';'
	case "tab":
		return '\t'
	default:
		return 0
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
