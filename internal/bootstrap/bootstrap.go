// Package bootstrap builds the components selected by configuration so the
// server and the CLI wire them the same way.
package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-odds/internal/config"
	"github.com/i474232898/weather-odds/internal/geocode"
	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/store"
	"github.com/i474232898/weather-odds/internal/weather"
	"github.com/i474232898/weather-odds/internal/weather/providers"
)

// Registry returns the built-in registry, overridden by the YAML file at
// cfg.VariableRegistryPath when set.
func Registry(cfg *config.AppConfig) (*weather.Registry, error) {
	if cfg.VariableRegistryPath == "" {
		return weather.DefaultRegistry(), nil
	}
	return weather.LoadRegistry(cfg.VariableRegistryPath)
}

// Provider selects the sample source.
func Provider(cfg *config.AppConfig, clock clockwork.Clock) (weather.SampleProvider, error) {
	switch cfg.SampleSource {
	case config.SourceSynthetic:
		return providers.NewSyntheticProvider(), nil
	case config.SourcePower:
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return providers.NewPowerProvider(client, cfg.PowerBaseURL, clock), nil
	case config.SourceOpenMeteo:
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return providers.NewOpenMeteoProvider(client, cfg.OpenMeteoBaseURL, clock), nil
	default:
		return nil, fmt.Errorf("unknown sample source %q", cfg.SampleSource)
	}
}

// Service assembles the query service, enabling named places when a
// geocoder key is configured.
func Service(cfg *config.AppConfig, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*weather.Service, error) {
	registry, err := Registry(cfg)
	if err != nil {
		return nil, fmt.Errorf("load variable registry: %w", err)
	}
	provider, err := Provider(cfg, clock)
	if err != nil {
		return nil, err
	}

	opts := []weather.Option{
		weather.WithSampleCount(cfg.SampleCount),
		weather.WithWorkers(cfg.QueryWorkers),
	}
	if cfg.GeocoderAPIKey != "" {
		opts = append(opts, weather.WithPlaceResolver(geocode.NewResolver(cfg.GeocoderAPIKey, cfg.GeocoderCacheSize)))
	}

	logger.Info("query service configured",
		"sample_source", provider.Name(),
		"sample_count", cfg.SampleCount,
		"variables", len(registry.Keys()),
		"named_places", cfg.GeocoderAPIKey != "",
	)
	return weather.NewService(registry, provider, logger, metrics, opts...), nil
}

// ArtifactStore opens the configured artifact backend. The returned close
// function releases backend connections and is never nil.
func ArtifactStore(cfg *config.AppConfig, clock clockwork.Clock, logger *slog.Logger) (store.ArtifactStore, func(), error) {
	noop := func() {}
	switch cfg.ArtifactStore {
	case config.StoreMemory:
		return store.NewMemoryStore(clock), noop, nil
	case config.StoreFilesystem:
		fs, err := store.NewFileStore(cfg.ArtifactDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case config.StoreMinio:
		obj, err := store.NewObjectStore(store.ObjectStoreConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return obj, noop, nil
	case config.StoreValkey:
		client, err := store.NewValkeyClient(cfg.ValkeyAddr)
		if err != nil {
			return nil, noop, err
		}
		return store.NewValkeyStore(client, cfg.ValkeyKeyPrefix, clock), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown artifact store %q", cfg.ArtifactStore)
	}
}
