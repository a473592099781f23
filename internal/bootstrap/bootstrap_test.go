package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-odds/internal/config"
	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/store"
	"github.com/i474232898/weather-odds/pkg/logger"
)

func TestProviderSelection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	for source, name := range map[string]string{
		config.SourceSynthetic: "synthetic",
		config.SourcePower:     "nasa-power",
		config.SourceOpenMeteo: "openmeteo",
	} {
		p, err := Provider(&config.AppConfig{SampleSource: source}, clock)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	_, err := Provider(&config.AppConfig{SampleSource: "oracle"}, clock)
	assert.Error(t, err)
}

func TestArtifactStoreSelection(t *testing.T) {
	log := logger.Discard()

	st, closeFn, err := ArtifactStore(&config.AppConfig{ArtifactStore: config.StoreMemory}, nil, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.MemoryStore{}, st)

	dir := filepath.Join(t.TempDir(), "exports")
	st, closeFn, err = ArtifactStore(&config.AppConfig{ArtifactStore: config.StoreFilesystem, ArtifactDir: dir}, nil, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.FileStore{}, st)
	assert.DirExists(t, dir)

	st, closeFn, err = ArtifactStore(&config.AppConfig{ArtifactStore: config.StoreMinio, MinioEndpoint: "localhost:9000", MinioBucket: "exports"}, nil, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.ObjectStore{}, st)

	_, _, err = ArtifactStore(&config.AppConfig{ArtifactStore: "tape"}, nil, log)
	assert.Error(t, err)
}

func TestServiceUsesRegistryOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variables:\n  - {key: snow_depth, unit: cm, synthetic: {min: 0, span: 10}}\n"), 0o644))

	cfg := &config.AppConfig{
		SampleSource:         config.SourceSynthetic,
		SampleCount:          5,
		QueryWorkers:         2,
		VariableRegistryPath: path,
	}
	svc, err := Service(cfg, nil, logger.Discard(), observability.NewUnregisteredMetrics())
	require.NoError(t, err)
	assert.Contains(t, svc.Registry().Keys(), "snow_depth")
	assert.Equal(t, 5, svc.SampleCount())

	cfg.VariableRegistryPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Service(cfg, nil, logger.Discard(), observability.NewUnregisteredMetrics())
	assert.Error(t, err)
}
