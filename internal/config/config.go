package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// PGN archive access.
	ArchiveBaseURL   string
	FetchTimeout     time.Duration
	ArchiveCacheSize int

	// L0 parsing.
	MarkerMinLength  int
	MarkerOccurrence int
	PixelBandWidth   int
	PixelMaxBands    int

	// Optional republishing of loaded records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseIntAtLeast("ARCHIVE_CACHE_SIZE", 16, 1)
	if err != nil {
		return nil, err
	}
	markerLen, err := parseIntAtLeast("MARKER_MIN_LENGTH", 87, 1)
	if err != nil {
		return nil, err
	}
	markerOccurrence, err := parseIntAtLeast("MARKER_OCCURRENCE", 1, 1)
	if err != nil {
		return nil, err
	}
	bandWidth, err := parseIntAtLeast("PIXEL_BAND_WIDTH", 200, 1)
	if err != nil {
		return nil, err
	}
	maxBands, err := parseIntAtLeast("PIXEL_MAX_BANDS", 0, 0)
	if err != nil {
		return nil, err
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ArchiveBaseURL:   sharedcfg.EnvOrDefault("ARCHIVE_BASE_URL", "https://data.ovh.pandonia-global-network.org/"),
		FetchTimeout:     fetchTimeout,
		ArchiveCacheSize: cacheSize,

		MarkerMinLength:  markerLen,
		MarkerOccurrence: markerOccurrence,
		PixelBandWidth:   bandWidth,
		PixelMaxBands:    maxBands,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "pgn-l0-records"),
		BatchSize:    batchSize,
	}

	if u, err := url.Parse(cfg.ArchiveBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid ARCHIVE_BASE_URL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// parseIntAtLeast reads an integer env var that must be >= lowest.
func parseIntAtLeast(key string, def, lowest int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lowest {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, lowest)
	}
	return n, nil
}

// ParseConfig returns the L0 parser settings.
func (c *Config) ParseConfig() domain.ParseConfig {
	return domain.ParseConfig{
		Scan: domain.ScanConfig{
			MinMarkerLength: c.MarkerMinLength,
			Occurrence:      c.MarkerOccurrence,
		},
		BandWidth: c.PixelBandWidth,
		MaxBands:  c.PixelMaxBands,
	}
}
