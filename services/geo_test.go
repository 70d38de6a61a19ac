package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lit-explorer/cache"
	"lit-explorer/errs"
	"lit-explorer/models"
)

// geoRows erzeugt n Orte mit je eigener Entität, verteilt über mehrere Gitterzellen.
func geoRows(n int) []models.Row {
	rows := make([]models.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.Row{
			"location":      ent(fmt.Sprintf("Q%d", 1000+i)),
			"locationLabel": lit(fmt.Sprintf("Place %d", i)),
			"coord":         point(float64(i%60)-30, float64(i%120)-60),
			"entity":        ent(fmt.Sprintf("Q%d", 50000+i)),
			"entityLabel":   lit(fmt.Sprintf("Author %d", i)),
		})
	}
	return rows
}

func newGeoService(t *testing.T, exec *fakeExecutor) *GeoService {
	return NewGeoService(testConfig(), newTestRetriever(t, exec, cache.NewMemoryStore(nil)), testLogger(t))
}

func TestGetPointsClusteringThreshold(t *testing.T) {
	req := models.GeoRequest{Layer: models.LayerBirthplaces, AuthorQIDs: []string{"Q1"}, Cluster: true}

	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return geoRows(1001), nil }}
	resp, err := newGeoService(t, exec).GetPoints(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsClustered)
	assert.Equal(t, 1001, resp.TotalCount)
	assert.Empty(t, resp.Points)
	sum := 0
	for _, c := range resp.Clusters {
		sum += c.PointCount
		assert.LessOrEqual(t, len(c.SamplePoints), 5)
		assert.Equal(t, models.LayerBirthplaces, c.Layer)
	}
	assert.Equal(t, resp.TotalCount, sum)

	exec = &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return geoRows(999), nil }}
	resp, err = newGeoService(t, exec).GetPoints(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.IsClustered)
	assert.Len(t, resp.Points, 999)
	assert.Empty(t, resp.Clusters)
	assert.Equal(t, 999, resp.TotalCount)
}

func TestGetPointsClusterDisabled(t *testing.T) {
	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return geoRows(1500), nil }}
	resp, err := newGeoService(t, exec).GetPoints(context.Background(),
		models.GeoRequest{Layer: models.LayerDeathplaces, AuthorQIDs: []string{"Q1"}, Cluster: false})
	require.NoError(t, err)
	assert.False(t, resp.IsClustered)
	assert.Len(t, resp.Points, 1500)
}

func TestGetPointsDropsMissingCoordinatesAndDuplicates(t *testing.T) {
	rows := []models.Row{
		{"location": ent("Q1"), "coord": point(48.85, 2.35), "entity": ent("Q10"), "year": num(1900)},
		{"location": ent("Q1"), "coord": point(48.85, 2.35), "entity": ent("Q10")},
		{"location": ent("Q1"), "coord": point(48.85, 2.35), "entity": ent("Q11")},
		{"location": ent("Q2"), "entity": ent("Q10")},
		{"location": ent("Q3"), "coord": point(95, 2), "entity": ent("Q10")},
	}
	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return rows, nil }}
	resp, err := newGeoService(t, exec).GetPoints(context.Background(),
		models.GeoRequest{Layer: models.LayerSettings, BookQIDs: []string{"Q10", "Q11"}, Cluster: true})
	require.NoError(t, err)
	require.Len(t, resp.Points, 2)
	assert.Equal(t, "Q10", resp.Points[0].EntityQID)
	assert.Equal(t, "book", resp.Points[0].EntityType)
	require.NotNil(t, resp.Points[0].Year)
	assert.Equal(t, 1900, *resp.Points[0].Year)
	assert.Equal(t, "Q1", resp.Points[0].Name)
}

func TestGetPointsValidation(t *testing.T) {
	exec := &fakeExecutor{}
	svc := newGeoService(t, exec)
	cases := map[string]models.GeoRequest{
		"unknown layer":           {Layer: "rivers"},
		"birth by books only":     {Layer: models.LayerBirthplaces, BookQIDs: []string{"Q1"}},
		"settings without filter": {Layer: models.LayerSettings},
		"bad author id":           {Layer: models.LayerBirthplaces, AuthorQIDs: []string{"Q1x"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.GetPoints(context.Background(), req)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, exec.count(""))
}

func TestGetPointsUnfilteredLayerIsPaginated(t *testing.T) {
	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return geoRows(3), nil }}
	resp, err := newGeoService(t, exec).GetPoints(context.Background(), models.GeoRequest{Layer: models.LayerBirthplaces, Cluster: true})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 1, exec.paginated)
}

func TestAuthorLocationsReturnsAllLayers(t *testing.T) {
	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return geoRows(2), nil }}
	out, err := newGeoService(t, exec).AuthorLocations(context.Background(), "Q23434")
	require.NoError(t, err)
	require.Len(t, out, 4)
	for _, layer := range models.AllLayers {
		require.Contains(t, out, layer)
		assert.Equal(t, layer, out[layer].Layer)
		assert.Equal(t, 2, out[layer].TotalCount)
	}
	assert.Equal(t, 4, exec.count("geo_locations"))
}

func TestGridCluster(t *testing.T) {
	pts := []models.GeoPoint{
		{ID: "a", Lat: 0.5, Lon: 0.5},
		{ID: "b", Lat: 1.5, Lon: 1.5},
		{ID: "c", Lat: 1.0, Lon: 0.1},
		{ID: "d", Lat: -0.5, Lon: 0.5},
	}
	clusters := gridCluster(pts, models.LayerBirthplaces, 2.0, 2)
	require.Len(t, clusters, 2)

	big := clusters[0]
	assert.Equal(t, 3, big.PointCount)
	assert.InDelta(t, 1.0, big.CenterLat, 1e-9)
	assert.InDelta(t, 0.7, big.CenterLon, 1e-9)
	assert.Equal(t, [4]float64{0.5, 0.1, 1.5, 1.5}, big.Bounds)
	require.Len(t, big.SamplePoints, 2)
	assert.Equal(t, "a", big.SamplePoints[0].ID)

	small := clusters[1]
	assert.Equal(t, 1, small.PointCount)
	assert.Equal(t, "d", small.SamplePoints[0].ID)
	assert.Equal(t, [4]float64{-0.5, 0.5, -0.5, 0.5}, small.Bounds)
}
