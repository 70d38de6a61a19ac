package services

import (
	"context"

	"go.uber.org/zap"

	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
	"lit-explorer/sparql"
)

// SearchService liefert Bücher und Autoren als typisierte Entitäten.
type SearchService struct {
	Config    *config.Config
	Retriever *Retriever
	Logger    *zap.Logger
}

// NewSearchService erstellt eine neue Instanz des SearchService.
func NewSearchService(cfg *config.Config, r *Retriever, logger *zap.Logger) *SearchService {
	return &SearchService{Config: cfg, Retriever: r, Logger: logger.With(zap.String("service", "search"))}
}

// Search sucht Bücher nach den gesetzten Filtern. Ergebnisse werden mit der Such-TTL gecacht.
func (s *SearchService) Search(ctx context.Context, f models.SearchFilters) ([]models.Book, error) {
	for _, q := range []string{f.Country, f.Genre, f.Location} {
		if q != "" {
			if err := models.ValidateQIDs(q); err != nil {
				return nil, err
			}
		}
	}
	if f.YearStart != nil && f.YearEnd != nil && *f.YearStart > *f.YearEnd {
		return nil, errs.Invalid("year_start %d is after year_end %d", *f.YearStart, *f.YearEnd)
	}
	if f.Offset < 0 {
		return nil, errs.Invalid("offset must not be negative")
	}
	f.Limit = s.Config.ClampLimit(f.Limit)

	b := sparql.Bindings{
		"year_start": f.YearStart,
		"year_end":   f.YearEnd,
		"limit":      f.Limit,
		"offset":     f.Offset,
	}
	if f.Country != "" {
		b["country"] = f.Country
	}
	if f.Genre != "" {
		b["genre"] = f.Genre
	}
	if f.Location != "" {
		b["location"] = f.Location
	}

	return Fetch(ctx, s.Retriever, "search_books", b, TTLSearch, func(ctx context.Context) ([]models.Book, error) {
		rows, err := s.Retriever.Query(ctx, "search_books", b)
		if err != nil {
			return nil, err
		}
		books := mapBooks(rows)
		s.Logger.Debug("Buchsuche abgeschlossen", zap.Int("rows", len(rows)), zap.Int("books", len(books)))
		return books, nil
	})
}

// GetBook lädt ein einzelnes Buch mit allen Details.
func (s *SearchService) GetBook(ctx context.Context, qid string) (*models.Book, error) {
	if err := models.ValidateQIDs(qid); err != nil {
		return nil, err
	}
	b := sparql.Bindings{"qid": qid}
	return Fetch(ctx, s.Retriever, "book_details", b, TTLStatic, func(ctx context.Context) (*models.Book, error) {
		rows, err := s.Retriever.Query(ctx, "book_details", b)
		if err != nil {
			return nil, err
		}
		return mapBook(qid, rows)
	})
}

// GetAuthor lädt einen Autor mit Biografie, Orten und Beziehungen.
func (s *SearchService) GetAuthor(ctx context.Context, qid string) (*models.Author, error) {
	if err := models.ValidateQIDs(qid); err != nil {
		return nil, err
	}
	b := sparql.Bindings{"qid": qid}
	return Fetch(ctx, s.Retriever, "author_details", b, TTLStatic, func(ctx context.Context) (*models.Author, error) {
		rows, err := s.Retriever.Query(ctx, "author_details", b)
		if err != nil {
			return nil, err
		}
		return mapAuthor(qid, rows)
	})
}

// AuthorBooks listet die Werke eines Autors chronologisch.
func (s *SearchService) AuthorBooks(ctx context.Context, qid string, limit int) ([]models.Book, error) {
	if err := models.ValidateQIDs(qid); err != nil {
		return nil, err
	}
	b := sparql.Bindings{"qid": qid, "limit": s.Config.ClampLimit(limit)}
	return Fetch(ctx, s.Retriever, "author_books", b, TTLStatic, func(ctx context.Context) ([]models.Book, error) {
		rows, err := s.Retriever.Query(ctx, "author_books", b)
		if err != nil {
			return nil, err
		}
		return mapBooks(rows), nil
	})
}
