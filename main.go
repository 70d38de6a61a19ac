package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lit-explorer/cache"
	"lit-explorer/config"
	"lit-explorer/providers"
	"lit-explorer/providers/wikidata"
	"lit-explorer/services"
	"lit-explorer/sparql"
)

// purgeSchedule ist der Takt, in dem abgelaufene Postgres-Einträge gelöscht werden.
const purgeSchedule = "@hourly"

// newApp verdrahtet Retriever und Domain-Services über dem gegebenen Executor.
func newApp(cfg *config.Config, c *cache.Cache, engine *sparql.Engine, executor providers.QueryExecutor, logger *zap.Logger) *app {
	retriever := services.NewRetriever(cfg, c, engine, executor, logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		search: services.NewSearchService(cfg, retriever, logger),
		graph:  services.NewGraphService(cfg, retriever, logger),
		geo:    services.NewGeoService(cfg, retriever, logger),
		recs:   services.NewRecommendationService(cfg, retriever, logger),
	}
}

// scheduleJobs registriert das Vorwärmen und, falls der Store es braucht, das
// stündliche Löschen abgelaufener Einträge. purger darf nil sein.
func scheduleJobs(ctx context.Context, c *cron.Cron, warmSchedule string, warmer *services.CacheWarmer, purger cache.Purger, logging *zap.Logger) error {
	if _, err := c.AddFunc(warmSchedule, func() {
		logging.Info("Running scheduled cache warm...")
		count, err := warmer.Run(ctx)
		if err != nil {
			logging.Error("Cache warm finished with errors", zap.Int("entries", count), zap.Error(err))
			return
		}
		logging.Info("Cache warm completed", zap.Int("entries", count))
	}); err != nil {
		return fmt.Errorf("warm schedule %q: %w", warmSchedule, err)
	}
	if purger == nil {
		return nil
	}
	if _, err := c.AddFunc(purgeSchedule, func() {
		n, err := purger.PurgeExpired(ctx)
		if err != nil {
			logging.Warn("Purging expired cache entries failed", zap.Error(err))
			return
		}
		logging.Info("Expired cache entries purged", zap.Int64("rows", n))
	}); err != nil {
		return fmt.Errorf("purge schedule %q: %w", purgeSchedule, err)
	}
	return nil
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := sparql.NewEngine()
	if err != nil {
		logging.Fatal("Failed to load query templates", zap.Error(err))
	}
	logging.Info("Query templates loaded", zap.Strings("templates", engine.Names()))

	resultCache := cache.Open(ctx, cfg, logging)
	defer resultCache.Close()

	fetcher := wikidata.NewFetcher(cfg, logging)
	a := newApp(cfg, resultCache, engine, fetcher, logging)

	// Setup Cron
	warmer := services.NewCacheWarmer(cfg, a.search, a.graph, a.geo, a.recs, logging)
	cronScheduler := cron.New()
	purger, _ := resultCache.Purger()
	if err := scheduleJobs(ctx, cronScheduler, cfg.WarmSchedule, warmer, purger, logging); err != nil {
		logging.Fatal("Failed to schedule cron jobs", zap.Error(err))
	}
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           setupRouter(a),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.QueryTimeout * 2,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down...")
	<-cronScheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
}
