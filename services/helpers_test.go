package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"lit-explorer/cache"
	"lit-explorer/config"
	"lit-explorer/models"
	"lit-explorer/sparql"
)

// fakeExecutor beantwortet Queries über respond und zählt die Aufrufe je Template.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []string
	paginated int
	respond   func(template, query string) ([]models.Row, error)
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Execute(_ context.Context, query string) ([]models.Row, error) {
	tmpl := templateOf(query)
	f.mu.Lock()
	f.calls = append(f.calls, tmpl)
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(tmpl, query)
}

func (f *fakeExecutor) ExecutePaginated(ctx context.Context, query string, _, _ int) ([]models.Row, error) {
	f.mu.Lock()
	f.paginated++
	f.mu.Unlock()
	return f.Execute(ctx, query)
}

func (f *fakeExecutor) count(tmpl string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if tmpl == "" || c == tmpl {
			n++
		}
	}
	return n
}

func templateOf(q string) string {
	switch {
	case strings.Contains(q, "?relationType"):
		return "author_graph"
	case strings.Contains(q, "?coord ?entity"):
		return "geo_locations"
	case strings.Contains(q, "?birth WHERE"):
		return "author_features"
	case strings.Contains(q, "VALUES ?movement"):
		return "candidates_by_movement"
	case strings.Contains(q, "VALUES ?genre"):
		return "candidates_by_genre"
	case strings.Contains(q, "?authorDescription"):
		return "author_details"
	case strings.Contains(q, "?bookDescription"):
		return "book_details"
	case strings.Contains(q, "^wdt:P50"):
		return "author_books"
	default:
		return "search_books"
	}
}

var valuesPattern = regexp.MustCompile(`VALUES \?(\w+) \{([^}]*)\}`)

// valuesOf liefert die QIDs aus "VALUES ?name { wd:Q1 wd:Q2 }".
func valuesOf(query, name string) []string {
	for _, m := range valuesPattern.FindAllStringSubmatch(query, -1) {
		if m[1] != name {
			continue
		}
		var out []string
		for _, f := range strings.Fields(m[2]) {
			out = append(out, strings.TrimPrefix(f, "wd:"))
		}
		return out
	}
	return nil
}

// countingStore zählt Schreibzugriffe auf einen MemoryStore.
type countingStore struct {
	*cache.MemoryStore
	mu   sync.Mutex
	sets int
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryStore.Set(ctx, key, value, ttl)
}

func (c *countingStore) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultQueryLimit:            50,
		MaxQueryLimit:                200,
		CacheTTLStatic:               168 * time.Hour,
		CacheTTLSearch:               24 * time.Hour,
		CacheTTLWarm:                 720 * time.Hour,
		GeoClusterThreshold:          1000,
		GeoGridSize:                  2.0,
		GeoSampleSize:                5,
		GeoQueryLimit:                2000,
		GraphCentralTopK:             5,
		GraphHopLimit:                500,
		GraphFrontierBatch:           25,
		RecommendationFeatureFanout:  5,
		RecommendationCandidateLimit: 100,
	}
}

func newTestRetriever(t *testing.T, exec *fakeExecutor, store cache.Store) *Retriever {
	t.Helper()
	engine, err := sparql.NewEngine()
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	return NewRetriever(testConfig(), cache.New(store, logger), engine, exec, logger)
}

func ent(qid string) models.Value {
	return models.Value{Kind: models.KindEntity, Text: qid}
}

func lit(s string) models.Value {
	return models.Value{Kind: models.KindString, Text: s}
}

func num(n float64) models.Value {
	return models.Value{Kind: models.KindNumber, Num: n}
}

func point(lat, lon float64) models.Value {
	return models.Value{Kind: models.KindPoint, Point: &models.Point{Lat: lat, Lon: lon}}
}

func date(literal string) models.Value {
	d, err := models.ParseDateLiteral(literal, models.PrecisionDay)
	if err != nil {
		panic(err)
	}
	return models.Value{Kind: models.KindDate, Text: literal, Date: &d}
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
