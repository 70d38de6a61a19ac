// Package cache implementiert den Ergebnis-Cache mit austauschbaren Backends.
// Fehler des Backends werden im Cache-Wrapper abgefangen und nie an die Services gereicht.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss meldet einen fehlenden oder abgelaufenen Eintrag.
var ErrMiss = errors.New("cache miss")

// Store ist ein Key-Value-Backend mit Ablaufzeit pro Eintrag.
type Store interface {
	// Get liefert ErrMiss, wenn kein gültiger Eintrag existiert. Jeder andere Fehler
	// bedeutet, dass das Backend nicht erreichbar ist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
	Name() string
}
