package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lit-explorer/models"
)

// PostgresStore legt Einträge in der Tabelle cache_entries ab. Abgelaufene Zeilen
// werden beim Lesen ignoriert und von PurgeExpired entfernt.
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostgresStore migriert die Tabelle und gibt den Store zurück.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.CacheEntry{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

func (p *PostgresStore) Name() string { return "postgres" }

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.CacheEntry
	err := p.selectLive(p.db.WithContext(ctx), key, &entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := p.now()
	entry := models.CacheEntry{Key: key, Value: value, ExpiresAt: now.Add(ttl), CreatedAt: now}
	return p.upsert(p.db.WithContext(ctx), &entry).Error
}

func (p *PostgresStore) DeleteAll(ctx context.Context) error {
	return p.deletePrefixed(p.db.WithContext(ctx)).Error
}

// PurgeExpired löscht abgelaufene Zeilen und gibt deren Anzahl zurück.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := p.deleteExpired(p.db.WithContext(ctx))
	return res.RowsAffected, res.Error
}

func (p *PostgresStore) selectLive(tx *gorm.DB, key string, dest *models.CacheEntry) *gorm.DB {
	return tx.Where("key = ? AND expires_at > ?", key, p.now()).Take(dest)
}

// upsert ersetzt einen vorhandenen Eintrag vollständig.
func (p *PostgresStore) upsert(tx *gorm.DB, entry *models.CacheEntry) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "created_at"}),
	}).Create(entry)
}

func (p *PostgresStore) deletePrefixed(tx *gorm.DB) *gorm.DB {
	return tx.Where("key LIKE ?", KeyPrefix+"%").Delete(&models.CacheEntry{})
}

func (p *PostgresStore) deleteExpired(tx *gorm.DB) *gorm.DB {
	return tx.Where("expires_at <= ?", p.now()).Delete(&models.CacheEntry{})
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
