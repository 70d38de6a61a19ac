package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// KeyPrefix steht vor jedem Cache-Schlüssel dieser Anwendung.
const KeyPrefix = "lit:"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "result_cache_requests_total",
		Help: "Cache-Lesezugriffe nach Ergebnis (hit, miss, unavailable).",
	}, []string{"result"})

	writeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_write_failures_total",
		Help: "Fehlgeschlagene Cache-Schreibzugriffe.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, writeFailuresTotal)
}

// Cache kapselt einen Store und degradiert bei Backend-Fehlern zu Pass-Through.
// Ein Cache ohne Store (nil) ist gültig und liefert immer Miss.
type Cache struct {
	store  Store
	logger *zap.Logger
}

// New erstellt einen Cache über dem gegebenen Store. store darf nil sein.
func New(store Store, logger *zap.Logger) *Cache {
	return &Cache{store: store, logger: logger.With(zap.String("component", "cache"))}
}

// Backend gibt den Namen des Backends zurück oder "none".
func (c *Cache) Backend() string {
	if c.store == nil {
		return "none"
	}
	return c.store.Name()
}

// Get liefert den gespeicherten Wert. Ist das Backend nicht erreichbar, wird das als
// Miss behandelt und eine Warnung geloggt.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		requestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	v, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		requestsTotal.WithLabelValues("hit").Inc()
		c.logger.Debug("Cache hit", zap.String("key", key))
		return v, true
	case errors.Is(err, ErrMiss):
		requestsTotal.WithLabelValues("miss").Inc()
		c.logger.Debug("Cache miss", zap.String("key", key))
		return nil, false
	default:
		requestsTotal.WithLabelValues("unavailable").Inc()
		c.logger.Warn("Cache nicht erreichbar, lese am Cache vorbei", zap.String("key", key), zap.Error(err))
		return nil, false
	}
}

// Set speichert den Wert. Fehler werden nur geloggt.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		writeFailuresTotal.Inc()
		c.logger.Warn("Cache-Schreibzugriff fehlgeschlagen", zap.String("key", key), zap.Error(err))
	}
}

// DeleteAll leert den Cache. Anders als Get/Set wird der Fehler zurückgegeben,
// da der Aufruf eine explizite Admin-Aktion ist.
func (c *Cache) DeleteAll(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("flush %s cache: %w", c.store.Name(), err)
	}
	return nil
}

// Healthy meldet, ob das Backend erreichbar ist.
func (c *Cache) Healthy(ctx context.Context) bool {
	if c.store == nil {
		return false
	}
	return c.store.Ping(ctx) == nil
}

// Close schließt das Backend.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Key bildet den deterministischen Schlüssel aus Operation und Parametern.
// Die Reihenfolge der Parameter spielt keine Rolle; Listen werden in der übergebenen
// Reihenfolge verwendet und sollten vom Aufrufer sortiert sein.
func Key(op string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(op)
	for _, k := range names {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(formatParam(params[k]))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return KeyPrefix + op + ":" + hex.EncodeToString(sum[:])
}

func formatParam(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, ",")
	case *int:
		if t == nil {
			return ""
		}
		return fmt.Sprint(*t)
	default:
		return fmt.Sprint(t)
	}
}
