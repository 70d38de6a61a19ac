package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lit-explorer/config"
	"lit-explorer/models"
)

var warmEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "cache_warm_entries_total",
	Help: "Anzahl erfolgreich vorgewärmter Operationen.",
})

func init() {
	prometheus.MustRegister(warmEntriesTotal)
}

// CacheWarmer lädt die Daten populärer Autoren vorab mit der Warm-TTL in den Cache.
type CacheWarmer struct {
	Config          *config.Config
	Search          *SearchService
	Graph           *GraphService
	Geo             *GeoService
	Recommendations *RecommendationService
	Logger          *zap.Logger
}

// NewCacheWarmer erstellt eine neue Instanz des CacheWarmer.
func NewCacheWarmer(cfg *config.Config, search *SearchService, graph *GraphService, geo *GeoService, recs *RecommendationService, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{
		Config:          cfg,
		Search:          search,
		Graph:           graph,
		Geo:             geo,
		Recommendations: recs,
		Logger:          logger.With(zap.String("component", "warmer")),
	}
}

// Run wärmt alle konfigurierten Autoren. Einzelne Fehler brechen den Lauf nicht ab,
// sondern werden gesammelt zurückgegeben. Rückgabe ist die Zahl erfolgreicher Operationen.
func (w *CacheWarmer) Run(ctx context.Context) (int, error) {
	start := time.Now()
	ctx = WithWarming(ctx)
	ok := 0
	var errList []error

	for _, qid := range w.Config.WarmAuthorQIDs {
		if err := models.ValidateQIDs(qid); err != nil {
			errList = append(errList, err)
			continue
		}
		steps := []struct {
			name string
			run  func() error
		}{
			{"author", func() error { _, err := w.Search.GetAuthor(ctx, qid); return err }},
			{"books", func() error { _, err := w.Search.AuthorBooks(ctx, qid, 0); return err }},
			{"network", func() error { _, err := w.Graph.BuildNetwork(ctx, []string{qid}, 2, false, true); return err }},
			{"locations", func() error { _, err := w.Geo.AuthorLocations(ctx, qid); return err }},
			{"similar", func() error {
				_, err := w.Recommendations.FindSimilar(ctx, qid, defaultRecommendationLimit)
				return err
			}},
		}
		for _, step := range steps {
			if ctx.Err() != nil {
				return ok, ctx.Err()
			}
			if err := step.run(); err != nil {
				w.Logger.Warn("Vorwärmen fehlgeschlagen", zap.String("qid", qid), zap.String("step", step.name), zap.Error(err))
				errList = append(errList, fmt.Errorf("%s %s: %w", step.name, qid, err))
				continue
			}
			ok++
			warmEntriesTotal.Inc()
		}
	}

	w.Logger.Info("Cache-Vorwärmen abgeschlossen",
		zap.Int("authors", len(w.Config.WarmAuthorQIDs)),
		zap.Int("succeeded", ok),
		zap.Int("failed", len(errList)),
		zap.Duration("took", time.Since(start)))
	return ok, errors.Join(errList...)
}
