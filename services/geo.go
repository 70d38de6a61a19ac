package services

import (
	"context"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
	"lit-explorer/sparql"
)

const geoPageSize = 500

// GeoService liefert Orte einer Geo-Ebene und clustert große Ergebnismengen.
type GeoService struct {
	Config    *config.Config
	Retriever *Retriever
	Logger    *zap.Logger
}

// NewGeoService erstellt eine neue Instanz des GeoService.
func NewGeoService(cfg *config.Config, r *Retriever, logger *zap.Logger) *GeoService {
	return &GeoService{Config: cfg, Retriever: r, Logger: logger.With(zap.String("service", "geo"))}
}

// ValidateGeoRequest prüft Ebene, Identifier und die zur Ebene passenden Filter.
func ValidateGeoRequest(req models.GeoRequest) error {
	if !req.Layer.Valid() {
		return errs.Invalid("unknown layer %q", req.Layer)
	}
	if err := models.ValidateQIDs(req.AuthorQIDs...); err != nil {
		return err
	}
	if err := models.ValidateQIDs(req.BookQIDs...); err != nil {
		return err
	}
	switch req.Layer {
	case models.LayerBirthplaces, models.LayerDeathplaces:
		if len(req.BookQIDs) > 0 && len(req.AuthorQIDs) == 0 {
			return errs.Invalid("layer %s cannot be filtered by books", req.Layer)
		}
	default:
		if len(req.BookQIDs) == 0 && len(req.AuthorQIDs) == 0 {
			return errs.Invalid("layer %s requires an author or book filter", req.Layer)
		}
	}
	return nil
}

// GetPoints liefert die Punkte der Ebene. Ist Clustering aktiv und die Anzahl größer
// als GeoClusterThreshold, werden statt Punkten Gitter-Cluster geliefert.
func (g *GeoService) GetPoints(ctx context.Context, req models.GeoRequest) (*models.GeoResponse, error) {
	if err := ValidateGeoRequest(req); err != nil {
		return nil, err
	}
	points, err := g.points(ctx, req.Layer, sortedCopy(req.AuthorQIDs), sortedCopy(req.BookQIDs))
	if err != nil {
		return nil, err
	}
	return g.aggregate(req.Layer, points, req.Cluster), nil
}

// AuthorLocations liefert alle vier Ebenen eines Autors, nebenläufig abgefragt.
func (g *GeoService) AuthorLocations(ctx context.Context, qid string) (map[models.GeoLayer]*models.GeoResponse, error) {
	if err := models.ValidateQIDs(qid); err != nil {
		return nil, err
	}
	results := make([]*models.GeoResponse, len(models.AllLayers))
	eg, ctx := errgroup.WithContext(ctx)
	for i, layer := range models.AllLayers {
		eg.Go(func() error {
			resp, err := g.GetPoints(ctx, models.GeoRequest{Layer: layer, AuthorQIDs: []string{qid}, Cluster: true})
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := make(map[models.GeoLayer]*models.GeoResponse, len(results))
	for i, layer := range models.AllLayers {
		out[layer] = results[i]
	}
	return out, nil
}

func (g *GeoService) points(ctx context.Context, layer models.GeoLayer, authors, books []string) ([]models.GeoPoint, error) {
	b := sparql.Bindings{
		"layer":       string(layer),
		"author_qids": authors,
		"book_qids":   books,
		"limit":       g.Config.GeoQueryLimit,
	}
	return Fetch(ctx, g.Retriever, "geo_locations", b, TTLStatic, func(ctx context.Context) ([]models.GeoPoint, error) {
		var rows []models.Row
		var err error
		if len(authors) == 0 && len(books) == 0 {
			pageSize := min(geoPageSize, max(g.Config.GeoQueryLimit, 1))
			maxPages := (g.Config.GeoQueryLimit + pageSize - 1) / pageSize
			rows, err = g.Retriever.QueryPaginated(ctx, "geo_locations", b, pageSize, max(maxPages, 1))
		} else {
			rows, err = g.Retriever.Query(ctx, "geo_locations", b)
		}
		if err != nil {
			return nil, err
		}
		return mapGeoPoints(layer, rows), nil
	})
}

// mapGeoPoints verwirft Zeilen ohne gültige Koordinate und dedupliziert nach (Ort, Entität).
func mapGeoPoints(layer models.GeoLayer, rows []models.Row) []models.GeoPoint {
	points := make([]models.GeoPoint, 0, len(rows))
	seen := make(map[[2]string]bool, len(rows))
	for _, row := range rows {
		loc := row.QID("location")
		p := row.Point("coord")
		if loc == "" || p == nil || !p.Valid() {
			continue
		}
		entity := row.QID("entity")
		key := [2]string{loc, entity}
		if seen[key] {
			continue
		}
		seen[key] = true

		gp := models.GeoPoint{
			ID:    loc,
			Name:  labelOf(row, "location"),
			Lat:   p.Lat,
			Lon:   p.Lon,
			Layer: layer,
		}
		if entity != "" {
			gp.EntityQID = entity
			gp.EntityName = labelOf(row, "entity")
			gp.EntityType = layer.EntityType()
		}
		if y, ok := row.Int("year"); ok {
			gp.Year = &y
		}
		points = append(points, gp)
	}
	return points
}

func (g *GeoService) aggregate(layer models.GeoLayer, points []models.GeoPoint, cluster bool) *models.GeoResponse {
	resp := &models.GeoResponse{
		Points:     points,
		Clusters:   []models.GeoCluster{},
		TotalCount: len(points),
		Layer:      layer,
	}
	if cluster && len(points) > g.Config.GeoClusterThreshold {
		resp.Clusters = gridCluster(points, layer, g.Config.GeoGridSize, g.Config.GeoSampleSize)
		resp.Points = []models.GeoPoint{}
		resp.IsClustered = true
		g.Logger.Debug("Punkte geclustert",
			zap.String("layer", string(layer)),
			zap.Int("points", len(points)),
			zap.Int("clusters", len(resp.Clusters)))
	}
	return resp
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := uniqueOrdered(in)
	slices.Sort(out)
	return out
}
