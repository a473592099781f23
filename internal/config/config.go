package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sample sources.
const (
	SourceSynthetic = "synthetic"
	SourcePower     = "power"
	SourceOpenMeteo = "openmeteo"
)

// Artifact store backends.
const (
	StoreMemory     = "memory"
	StoreFilesystem = "filesystem"
	StoreMinio      = "minio"
	StoreValkey     = "valkey"
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// SampleSource selects the SampleProvider implementation.
	SampleSource     string
	SampleCount      int
	PowerBaseURL     string
	OpenMeteoBaseURL string
	HTTPTimeout      time.Duration

	// QueryWorkers bounds per-variable concurrency within one query.
	QueryWorkers int

	// VariableRegistryPath optionally overrides the built-in variables.
	VariableRegistryPath string

	GeocoderAPIKey    string
	GeocoderCacheSize int

	// JWTSecret enables bearer-token identities; empty means anonymous callers.
	JWTSecret string

	ArtifactStore   string
	ArtifactDir     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioRegion     string
	ValkeyAddr      string
	ValkeyKeyPrefix string

	// Pending-artifact audit.
	AuditInterval  time.Duration // 0 disables the audit
	AuditMaxAge    time.Duration
	ShutdownPeriod time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		LogLevel:             getenvDefault("LOG_LEVEL", "info"),
		LogFormat:            getenvDefault("LOG_FORMAT", "json"),
		SampleSource:         strings.ToLower(getenvDefault("SAMPLE_SOURCE", SourceSynthetic)),
		PowerBaseURL:         os.Getenv("POWER_BASE_URL"),
		OpenMeteoBaseURL:     os.Getenv("OPEN_METEO_BASE_URL"),
		VariableRegistryPath: os.Getenv("VARIABLE_REGISTRY_PATH"),
		GeocoderAPIKey:       os.Getenv("GEOCODER_API_KEY"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		ArtifactStore:        strings.ToLower(getenvDefault("ARTIFACT_STORE", StoreMemory)),
		ArtifactDir:          getenvDefault("ARTIFACT_DIR", "downloads"),
		MinioEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:          getenvDefault("MINIO_BUCKET", "weather-exports"),
		MinioRegion:          os.Getenv("MINIO_REGION"),
		ValkeyAddr:           os.Getenv("VALKEY_ADDR"),
		ValkeyKeyPrefix:      getenvDefault("VALKEY_KEY_PREFIX", "weather-odds:artifact"),
	}

	var err error
	if cfg.SampleCount, err = getenvInt("SAMPLE_COUNT", 10); err != nil {
		return nil, err
	}
	if cfg.QueryWorkers, err = getenvInt("QUERY_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.GeocoderCacheSize, err = getenvInt("GEOCODER_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.AuditInterval, err = getenvDuration("ORPHAN_AUDIT_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.AuditMaxAge, err = getenvDuration("ORPHAN_MAX_AGE", "1h"); err != nil {
		return nil, err
	}
	if cfg.ShutdownPeriod, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.SampleCount <= 0 {
		return fmt.Errorf("SAMPLE_COUNT must be positive")
	}
	if c.QueryWorkers <= 0 {
		return fmt.Errorf("QUERY_WORKERS must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.AuditInterval < 0 || c.AuditMaxAge < 0 {
		return fmt.Errorf("ORPHAN_AUDIT_INTERVAL and ORPHAN_MAX_AGE must not be negative")
	}

	switch c.SampleSource {
	case SourceSynthetic, SourcePower, SourceOpenMeteo:
	default:
		return fmt.Errorf("unknown SAMPLE_SOURCE %q", c.SampleSource)
	}

	switch c.ArtifactStore {
	case StoreMemory:
	case StoreFilesystem:
		if c.ArtifactDir == "" {
			return fmt.Errorf("ARTIFACT_DIR is required for the filesystem store")
		}
	case StoreMinio:
		if c.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio store")
		}
	case StoreValkey:
		if c.ValkeyAddr == "" {
			return fmt.Errorf("VALKEY_ADDR is required for the valkey store")
		}
	default:
		return fmt.Errorf("unknown ARTIFACT_STORE %q", c.ArtifactStore)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
