package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Wikidata Query Service
	WikidataEndpoint     string        `envconfig:"WIKIDATA_ENDPOINT" default:"https://query.wikidata.org/sparql"`
	WikidataUserAgent    string        `envconfig:"WIKIDATA_USER_AGENT" default:"LitExplorer/1.0 (https://github.com/lit-explorer; contact@lit-explorer.org)"`
	QueryTimeout         time.Duration `envconfig:"QUERY_TIMEOUT" default:"55s"`
	QueryMaxRetries      int           `envconfig:"QUERY_MAX_RETRIES" default:"4"`
	QueryRetryBaseDelay  time.Duration `envconfig:"QUERY_RETRY_BASE_DELAY" default:"2s"`
	QueryRetryMultiplier float64       `envconfig:"QUERY_RETRY_MULTIPLIER" default:"2"`
	QueryRetryMaxDelay   time.Duration `envconfig:"QUERY_RETRY_MAX_DELAY" default:"60s"`
	QueryRateLimit       float64       `envconfig:"QUERY_RATE_LIMIT" default:"5"`
	DefaultQueryLimit    int           `envconfig:"DEFAULT_QUERY_LIMIT" default:"50"`
	MaxQueryLimit        int           `envconfig:"MAX_QUERY_LIMIT" default:"200"`

	// Cache-Backend: redis, postgres, memory oder none
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"redis"`
	RedisURL     string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"lit_explorer"`

	CacheTTLStatic time.Duration `envconfig:"CACHE_TTL_STATIC" default:"168h"`
	CacheTTLSearch time.Duration `envconfig:"CACHE_TTL_SEARCH" default:"24h"`
	CacheTTLWarm   time.Duration `envconfig:"CACHE_TTL_WARM" default:"720h"`

	GeoClusterThreshold int     `envconfig:"GEO_CLUSTER_THRESHOLD" default:"1000"`
	GeoGridSize         float64 `envconfig:"GEO_GRID_SIZE" default:"2.0"`
	GeoSampleSize       int     `envconfig:"GEO_SAMPLE_SIZE" default:"5"`
	GeoQueryLimit       int     `envconfig:"GEO_QUERY_LIMIT" default:"2000"`

	GraphCentralTopK   int `envconfig:"GRAPH_CENTRAL_TOP_K" default:"5"`
	GraphHopLimit      int `envconfig:"GRAPH_HOP_LIMIT" default:"500"`
	GraphFrontierBatch int `envconfig:"GRAPH_FRONTIER_BATCH" default:"25"`

	RecommendationFeatureFanout  int `envconfig:"RECOMMENDATION_FEATURE_FANOUT" default:"5"`
	RecommendationCandidateLimit int `envconfig:"RECOMMENDATION_CANDIDATE_LIMIT" default:"100"`

	WarmSchedule   string   `envconfig:"WARM_SCHEDULE" default:"0 3 * * *"`
	WarmAuthorQIDs []string `envconfig:"WARM_AUTHOR_QIDS" default:"Q23434,Q188385,Q229466"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ClampLimit begrenzt ein angefragtes Limit auf (0, MaxQueryLimit]; 0 bedeutet Default.
func (c *Config) ClampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultQueryLimit
	}
	if limit > c.MaxQueryLimit {
		return c.MaxQueryLimit
	}
	return limit
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

// SnapshotConfig enthält die Parameter für den Snapshot-Export nach S3.
type SnapshotConfig struct {
	S3URL    string `envconfig:"SNAPSHOT_S3_URL" required:"true"`
	S3Region string `envconfig:"SNAPSHOT_S3_REGION" required:"true"`
	S3Key    string `envconfig:"SNAPSHOT_S3_KEY" required:"true"`
	S3Secret string `envconfig:"SNAPSHOT_S3_SECRET" required:"true"`
	S3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET" required:"true"`
	Prefix   string `envconfig:"SNAPSHOT_PREFIX" default:"snapshots/"`
	Keep     int    `envconfig:"SNAPSHOT_KEEP" default:"4"`
}

// LoadSnapshot lädt die Snapshot-Konfiguration aus den Umgebungsvariablen.
func LoadSnapshot() (*SnapshotConfig, error) {
	_ = godotenv.Load()
	var c SnapshotConfig
	err := envconfig.Process("", &c)
	return &c, err
}
