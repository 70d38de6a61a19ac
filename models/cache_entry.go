package models

import "time"

// CacheEntry ist ein Eintrag des Postgres-Cache-Backends.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     []byte    `gorm:"type:bytea;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (CacheEntry) TableName() string {
	return "cache_entries"
}
