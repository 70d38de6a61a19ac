package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lit-explorer/cache"
	"lit-explorer/config"
	"lit-explorer/providers/wikidata"
	"lit-explorer/services"
	"lit-explorer/sparql"
	"lit-explorer/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Snapshot-Export fehlgeschlagen", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	logger.Info("Starte Snapshot-Export...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("Konfiguration laden: %w", err)
	}
	snapCfg, err := config.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("Snapshot-Konfiguration laden: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Services aufbauen
	engine, err := sparql.NewEngine()
	if err != nil {
		return fmt.Errorf("Templates laden: %w", err)
	}
	resultCache := cache.Open(ctx, cfg, logger)
	defer resultCache.Close()
	fetcher := wikidata.NewFetcher(cfg, logger)
	retriever := services.NewRetriever(cfg, resultCache, engine, fetcher, logger)
	builder := services.NewSnapshotBuilder(
		services.NewGraphService(cfg, retriever, logger),
		services.NewGeoService(cfg, retriever, logger),
		logger,
	)

	// 2. Snapshot erzeugen
	snap, err := builder.Build(ctx, cfg.WarmAuthorQIDs)
	if err != nil {
		return fmt.Errorf("Snapshot erstellen: %w", err)
	}
	data, err := snap.Gzip()
	if err != nil {
		return fmt.Errorf("Snapshot serialisieren: %w", err)
	}

	// 3. Nach S3 hochladen
	client, err := storage.NewS3Client(ctx, snapCfg)
	if err != nil {
		return fmt.Errorf("S3-Client erstellen: %w", err)
	}
	key := fmt.Sprintf("%ssnapshot-%s.json.gz", snapCfg.Prefix, snap.GeneratedAt.Format("2006-01-02T15-04-05Z"))
	uctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	link, err := storage.UploadFile(uctx, client, snapCfg.S3Bucket, key, "application/gzip", data)
	if err != nil {
		return err
	}
	logger.Info("Snapshot hochgeladen",
		zap.String("link", link),
		zap.Int("authors", len(snap.Authors)),
		zap.Strings("failed", snap.Failed),
		zap.Int("bytes", len(data)))

	// 4. Alte Snapshots rotieren
	deleted, err := storage.RotateObjects(uctx, client, snapCfg.S3Bucket, snapCfg.Prefix, snapCfg.Keep, logger)
	if err != nil {
		return fmt.Errorf("Rotation: %w", err)
	}
	logger.Info("Snapshot-Export abgeschlossen", zap.Int("rotated", len(deleted)))
	return nil
}
