package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseURL string

	// Report run settings.
	MaxAttempts      int
	RetryDelay       time.Duration
	UpstreamTimeout  time.Duration
	ExhaustionPolicy domain.ExhaustionPolicy
	RatingStrategy   string

	DefaultLocation string
	Locations       []domain.Location

	// Upstream endpoints.
	NDBCBaseURL  string
	NWSBaseURL   string
	NWSUserAgent string
	NWSCacheSize int
	COOPSBaseURL string

	// Report event publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	// Per-key run lock. Disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DefaultLocation: sharedcfg.EnvOrDefault("DEFAULT_LOCATION", "ocean-beach"),

		NDBCBaseURL:  sharedcfg.EnvOrDefault("NDBC_BASE_URL", "https://www.ndbc.noaa.gov/data/realtime2"),
		NWSBaseURL:   sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent: sharedcfg.EnvOrDefault("NWS_USER_AGENT", "surf-report-service (ops@example.com)"),
		COOPSBaseURL: sharedcfg.EnvOrDefault("COOPS_BASE_URL", "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "surf-reports"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		return nil, &domain.ConfigurationError{Key: "DATABASE_URL", Reason: "is required"}
	}

	if cfg.MaxAttempts, err = envPositiveInt("MAX_ATTEMPTS", 60); err != nil {
		return nil, err
	}
	if cfg.NWSCacheSize, err = envPositiveInt("NWS_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = envNonNegativeInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = envDuration("RETRY_DELAY", "60s", true); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = envDuration("UPSTREAM_TIMEOUT", "15s", false); err != nil {
		return nil, err
	}

	if cfg.ExhaustionPolicy, err = domain.ParseExhaustionPolicy(os.Getenv("EXHAUSTION_POLICY")); err != nil {
		return nil, &domain.ConfigurationError{Key: "EXHAUSTION_POLICY", Reason: err.Error()}
	}

	cfg.RatingStrategy = strings.ToLower(sharedcfg.EnvOrDefault("RATING_STRATEGY", domain.RatingDirectional))
	if _, err := domain.RatingStrategyByName(cfg.RatingStrategy); err != nil {
		return nil, &domain.ConfigurationError{Key: "RATING_STRATEGY", Reason: err.Error()}
	}

	if cfg.Locations, err = loadLocations(cfg.DefaultLocation); err != nil {
		return nil, err
	}
	if _, ok := cfg.Location(cfg.DefaultLocation); !ok {
		return nil, &domain.ConfigurationError{Key: "DEFAULT_LOCATION", Reason: fmt.Sprintf("%q is not in the location catalog", cfg.DefaultLocation)}
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, &domain.ConfigurationError{Key: "KAFKA_BROKERS", Reason: "is required when KAFKA_ENABLED is true"}
	}

	return cfg, nil
}

// Location looks up a catalog entry by name.
func (c *Config) Location(name string) (domain.Location, bool) {
	for _, l := range c.Locations {
		if l.Name == name {
			return l, true
		}
	}
	return domain.Location{}, false
}

// loadLocations reads LOCATIONS_FILE when set; otherwise it builds a single
// entry for the default location from the BUOY_STATION / TIDE_STATION /
// LOCATION_* variables.
func loadLocations(defaultName string) ([]domain.Location, error) {
	if path := os.Getenv("LOCATIONS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.ConfigurationError{Key: "LOCATIONS_FILE", Reason: err.Error()}
		}
		var locs []domain.Location
		if err := json.Unmarshal(data, &locs); err != nil {
			return nil, &domain.ConfigurationError{Key: "LOCATIONS_FILE", Reason: err.Error()}
		}
		for _, l := range locs {
			if l.Name == "" || l.BuoyStation == "" {
				return nil, &domain.ConfigurationError{Key: "LOCATIONS_FILE", Reason: "every location needs name and buoy_station"}
			}
		}
		return locs, nil
	}

	lat, err := envFloat("LOCATION_LAT", 37.7594)
	if err != nil {
		return nil, err
	}
	lon, err := envFloat("LOCATION_LON", -122.5107)
	if err != nil {
		return nil, err
	}
	loc := domain.Location{
		Name:        defaultName,
		BuoyStation: sharedcfg.EnvOrDefault("BUOY_STATION", "46026"),
		TideStation: sharedcfg.EnvOrDefault("TIDE_STATION", "9414290"),
		Lat:         lat,
		Lon:         lon,
		Timezone:    sharedcfg.EnvOrDefault("LOCATION_TIMEZONE", "America/Los_Angeles"),
	}
	if _, err := time.LoadLocation(loc.Timezone); err != nil {
		return nil, &domain.ConfigurationError{Key: "LOCATION_TIMEZONE", Reason: err.Error()}
	}
	return []domain.Location{loc}, nil
}

func envPositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &domain.ConfigurationError{Key: key, Reason: "must be a positive integer"}
	}
	return n, nil
}

func envNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &domain.ConfigurationError{Key: key, Reason: "must be a non-negative integer"}
	}
	return n, nil
}

func envDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, &domain.ConfigurationError{Key: key, Reason: "must be a positive duration"}
	}
	return d, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &domain.ConfigurationError{Key: key, Reason: "must be a number"}
	}
	return v, nil
}
