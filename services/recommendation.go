package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
	"lit-explorer/sparql"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50
	featureBatchSize           = 50
)

// RecommendationService empfiehlt ähnliche Autoren anhand gemeinsamer Merkmale.
type RecommendationService struct {
	Config    *config.Config
	Retriever *Retriever
	Logger    *zap.Logger
}

// NewRecommendationService erstellt eine neue Instanz des RecommendationService.
func NewRecommendationService(cfg *config.Config, r *Retriever, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{Config: cfg, Retriever: r, Logger: logger.With(zap.String("service", "recommendation"))}
}

// FindSimilar liefert bis zu limit Autoren, absteigend nach Jaccard-Ähnlichkeit und
// bei Gleichstand nach QID. Ein Autor ohne Merkmale ergibt eine leere Liste.
func (s *RecommendationService) FindSimilar(ctx context.Context, qid string, limit int) ([]models.SimilarAuthor, error) {
	if err := models.ValidateQIDs(qid); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		return nil, errs.Invalid("limit must be at most %d", maxRecommendationLimit)
	}

	params := map[string]any{"qid": qid, "limit": limit}
	return Fetch(ctx, s.Retriever, "recommendations", params, TTLSearch, func(ctx context.Context) ([]models.SimilarAuthor, error) {
		return s.rank(ctx, qid, limit)
	})
}

func (s *RecommendationService) rank(ctx context.Context, qid string, limit int) ([]models.SimilarAuthor, error) {
	targets, err := s.features(ctx, []string{qid})
	if err != nil {
		return nil, err
	}
	target, ok := targets[qid]
	if !ok || target.empty() {
		return []models.SimilarAuthor{}, nil
	}

	candidates, err := s.candidates(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.SimilarAuthor{}, nil
	}

	feats, err := s.features(ctx, candidates)
	if err != nil {
		return nil, err
	}

	results := []models.SimilarAuthor{}
	for _, c := range candidates {
		f, ok := feats[c]
		if !ok || c == qid {
			continue
		}
		score := round3(similarity(target, f))
		if score <= 0 {
			continue
		}
		results = append(results, models.SimilarAuthor{
			QID:             c,
			Name:            f.Name,
			Similarity:      score,
			SharedMovements: sharedLabels(f.Movements, target.Movements),
			SharedGenres:    sharedLabels(f.Genres, target.Genres),
		})
	}
	sortSimilar(results)
	if len(results) > limit {
		results = results[:limit]
	}
	s.Logger.Debug("Empfehlungen berechnet",
		zap.String("qid", qid),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))
	return results, nil
}

func sortSimilar(results []models.SimilarAuthor) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].QID < results[j].QID
	})
}

// candidates sammelt Autoren mit gemeinsamer Bewegung oder gemeinsamem Genre.
// Beide Abfragen laufen nebenläufig; das Ergebnis ist sortiert und ohne den Zielautor.
func (s *RecommendationService) candidates(ctx context.Context, target *authorFeatures) ([]string, error) {
	fanout := s.Config.RecommendationFeatureFanout
	movements := firstSortedKeys(target.Movements, fanout)
	genres := firstSortedKeys(target.Genres, fanout)

	var mu sync.Mutex
	pool := map[string]bool{}
	collect := func(qids []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, q := range qids {
			if q != target.QID {
				pool[q] = true
			}
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	if len(movements) > 0 {
		eg.Go(func() error {
			qids, err := s.candidatePool(ctx, "candidates_by_movement", "movement_qids", movements, target.QID)
			if err == nil {
				collect(qids)
			}
			return err
		})
	}
	if len(genres) > 0 {
		eg.Go(func() error {
			qids, err := s.candidatePool(ctx, "candidates_by_genre", "genre_qids", genres, target.QID)
			if err == nil {
				collect(qids)
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(pool))
	for q := range pool {
		out = append(out, q)
	}
	sort.Strings(out)
	return out, nil
}

func (s *RecommendationService) candidatePool(ctx context.Context, template, listName string, qids []string, exclude string) ([]string, error) {
	b := sparql.Bindings{
		listName:  qids,
		"exclude": exclude,
		"limit":   s.Config.RecommendationCandidateLimit,
	}
	return Fetch(ctx, s.Retriever, template, b, TTLSearch, func(ctx context.Context) ([]string, error) {
		rows, err := s.Retriever.Query(ctx, template, b)
		if err != nil {
			return nil, err
		}
		out := []string{}
		for _, row := range rows {
			if q := row.QID("author"); q != "" {
				out = append(out, q)
			}
		}
		return out, nil
	})
}

// features lädt die Merkmale für qids in Batches; jeder Batch ist ein eigener Cache-Eintrag.
func (s *RecommendationService) features(ctx context.Context, qids []string) (map[string]*authorFeatures, error) {
	batches := chunk(qids, featureBatchSize)
	results := make([]map[string]*authorFeatures, len(batches))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, batch := range batches {
		eg.Go(func() error {
			b := sparql.Bindings{"author_qids": batch}
			m, err := Fetch(ctx, s.Retriever, "author_features", b, TTLStatic, func(ctx context.Context) (map[string]*authorFeatures, error) {
				rows, err := s.Retriever.Query(ctx, "author_features", b)
				if err != nil {
					return nil, err
				}
				return mapFeatures(rows), nil
			})
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*authorFeatures, len(qids))
	for _, m := range results {
		for k, v := range m {
			out[k] = v
		}
	}
	return out, nil
}

func mapFeatures(rows []models.Row) map[string]*authorFeatures {
	out := make(map[string]*authorFeatures)
	for _, row := range rows {
		qid := row.QID("author")
		if qid == "" {
			continue
		}
		f, ok := out[qid]
		if !ok {
			f = newAuthorFeatures(qid)
			out[qid] = f
		}
		if f.Name == "" || f.Name == qid {
			f.Name = labelOf(row, "author")
		}
		if m := row.QID("movement"); m != "" {
			f.Movements[m] = labelOf(row, "movement")
		}
		if g := row.QID("genre"); g != "" {
			f.Genres[g] = labelOf(row, "genre")
		}
		if a := row.QID("award"); a != "" {
			f.Awards[a] = labelOf(row, "award")
		}
		if d := row.Date("birth"); d != nil && f.BirthDecade == nil {
			decade := decadeOf(d.Year)
			f.BirthDecade = &decade
		}
	}
	return out
}

func firstSortedKeys(m map[string]string, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
