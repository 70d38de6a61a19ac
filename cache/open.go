package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lit-explorer/config"
)

// Open baut den Cache für das konfigurierte Backend. Lässt sich das Backend nicht
// initialisieren, läuft die Anwendung ohne Cache weiter.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) *Cache {
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Warn("Cache-Backend nicht verfügbar, starte ohne Cache",
			zap.String("backend", cfg.CacheBackend), zap.Error(err))
		return New(nil, log)
	}
	if store == nil {
		log.Info("Cache deaktiviert")
		return New(nil, log)
	}

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pctx); err != nil {
		log.Warn("Cache-Backend antwortet nicht, Zugriffe degradieren bis es erreichbar ist",
			zap.String("backend", store.Name()), zap.Error(err))
	} else {
		log.Info("Cache verbunden", zap.String("backend", store.Name()))
	}
	return New(store, log)
}

func openStore(_ context.Context, cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case "redis":
		return NewRedisStore(cfg.RedisURL)
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db)
	case "memory":
		return NewMemoryStore(nil), nil
	default:
		return nil, nil
	}
}

// Purger ist ein Store, der abgelaufene Einträge aktiv löschen muss.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Purger liefert den Store als Purger, falls das Backend das benötigt.
func (c *Cache) Purger() (Purger, bool) {
	p, ok := c.store.(Purger)
	return p, ok
}
