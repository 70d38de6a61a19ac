package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.Equal(t, 55*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 4, cfg.QueryMaxRetries)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 168*time.Hour, cfg.CacheTTLStatic)
	assert.Equal(t, 1000, cfg.GeoClusterThreshold)
	assert.Equal(t, []string{"Q23434", "Q188385", "Q229466"}, cfg.WarmAuthorQIDs)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("QUERY_TIMEOUT", "10s")
	t.Setenv("WARM_AUTHOR_QIDS", "Q1,Q2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, []string{"Q1", "Q2"}, cfg.WarmAuthorQIDs)
}

func TestClampLimit(t *testing.T) {
	cfg := &Config{DefaultQueryLimit: 50, MaxQueryLimit: 200}
	assert.Equal(t, 50, cfg.ClampLimit(0))
	assert.Equal(t, 50, cfg.ClampLimit(-3))
	assert.Equal(t, 10, cfg.ClampLimit(10))
	assert.Equal(t, 200, cfg.ClampLimit(500))
}

func TestLoadSnapshotRequiresBucket(t *testing.T) {
	t.Setenv("SNAPSHOT_S3_URL", "https://s3.example.org")
	t.Setenv("SNAPSHOT_S3_REGION", "eu-central-1")
	t.Setenv("SNAPSHOT_S3_KEY", "key")
	t.Setenv("SNAPSHOT_S3_SECRET", "secret")

	_, err := LoadSnapshot()
	assert.Error(t, err)

	t.Setenv("SNAPSHOT_S3_BUCKET", "lit-snapshots")
	cfg, err := LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Keep)
	assert.Equal(t, "snapshots/", cfg.Prefix)
}
