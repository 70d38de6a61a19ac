package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"lit-explorer/cache"
	"lit-explorer/config"
	"lit-explorer/models"
	"lit-explorer/providers"
	"lit-explorer/sparql"
)

// TTLClass ordnet eine Operation einer Cache-Lebensdauer zu.
type TTLClass int

const (
	// TTLStatic für Stammdaten (Autoren, Bücher, Orte, Netzwerke).
	TTLStatic TTLClass = iota
	// TTLSearch für Suchergebnisse und Empfehlungen.
	TTLSearch
)

type warmingKey struct{}

// WithWarming markiert den Kontext als Vorwärm-Lauf: Fetch liest nicht aus dem Cache
// und schreibt mit der Warm-TTL.
func WithWarming(ctx context.Context) context.Context {
	return context.WithValue(ctx, warmingKey{}, true)
}

func isWarming(ctx context.Context) bool {
	v, _ := ctx.Value(warmingKey{}).(bool)
	return v
}

// Retriever ist der einzige Weg der Services zum entfernten Endpunkt (Cache-Aside).
type Retriever struct {
	Config *config.Config
	Cache  *cache.Cache
	Engine *sparql.Engine
	Logger *zap.Logger

	executor providers.QueryExecutor
}

// NewRetriever erstellt eine neue Instanz des Retrievers.
func NewRetriever(cfg *config.Config, c *cache.Cache, engine *sparql.Engine, executor providers.QueryExecutor, logger *zap.Logger) *Retriever {
	return &Retriever{
		Config:   cfg,
		Cache:    c,
		Engine:   engine,
		Logger:   logger.With(zap.String("component", "retriever")),
		executor: executor,
	}
}

func (r *Retriever) ttl(ctx context.Context, class TTLClass) time.Duration {
	switch {
	case isWarming(ctx):
		return r.Config.CacheTTLWarm
	case class == TTLSearch:
		return r.Config.CacheTTLSearch
	default:
		return r.Config.CacheTTLStatic
	}
}

// Fetch liefert das Ergebnis von compute, zwischengespeichert unter (op, params).
// Fehler von compute werden unverändert weitergegeben und nicht gecacht.
func Fetch[T any](ctx context.Context, r *Retriever, op string, params map[string]any, class TTLClass, compute func(ctx context.Context) (T, error)) (T, error) {
	key := cache.Key(op, params)

	if !isWarming(ctx) {
		if raw, ok := r.Cache.Get(ctx, key); ok {
			var v T
			err := json.Unmarshal(raw, &v)
			if err == nil {
				return v, nil
			}
			r.Logger.Warn("Cache-Eintrag nicht lesbar, lade neu", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("Ergebnis nicht serialisierbar, wird nicht gecacht", zap.String("op", op), zap.Error(err))
		return v, nil
	}
	r.Cache.Set(ctx, key, raw, r.ttl(ctx, class))
	return v, nil
}

// Query rendert ein Template und führt es aus.
func (r *Retriever) Query(ctx context.Context, template string, b sparql.Bindings) ([]models.Row, error) {
	q, err := r.Engine.Render(template, b)
	if err != nil {
		return nil, err
	}
	return r.executor.Execute(ctx, q)
}

// QueryPaginated rendert ein Template und holt das Ergebnis seitenweise.
func (r *Retriever) QueryPaginated(ctx context.Context, template string, b sparql.Bindings, pageSize, maxPages int) ([]models.Row, error) {
	q, err := r.Engine.Render(template, b)
	if err != nil {
		return nil, err
	}
	return r.executor.ExecutePaginated(ctx, q, pageSize, maxPages)
}
