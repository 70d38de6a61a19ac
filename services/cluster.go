package services

import (
	"math"
	"sort"

	"lit-explorer/models"
)

type gridCell struct{ row, col int }

// gridCluster fasst Punkte in Zellen der Kantenlänge size (Grad) zusammen. Jede
// nicht-leere Zelle ergibt genau einen Cluster; die Summe der PointCounts ist len(points).
func gridCluster(points []models.GeoPoint, layer models.GeoLayer, size float64, sampleSize int) []models.GeoCluster {
	if size <= 0 {
		size = 2.0
	}
	sampleSize = max(sampleSize, 0)
	members := make(map[gridCell][]int)
	var cells []gridCell
	for i, p := range points {
		c := gridCell{row: int(math.Floor(p.Lat / size)), col: int(math.Floor(p.Lon / size))}
		if _, ok := members[c]; !ok {
			cells = append(cells, c)
		}
		members[c] = append(members[c], i)
	}

	clusters := make([]models.GeoCluster, 0, len(cells))
	order := make([]gridCell, 0, len(cells))
	for _, c := range cells {
		idx := members[c]
		first := points[idx[0]]
		minLat, maxLat, minLon, maxLon := first.Lat, first.Lat, first.Lon, first.Lon
		var sumLat, sumLon float64
		for _, i := range idx {
			p := points[i]
			sumLat += p.Lat
			sumLon += p.Lon
			minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
			minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
		}
		n := len(idx)
		sample := make([]models.GeoPoint, 0, min(n, sampleSize))
		for _, i := range idx[:min(n, sampleSize)] {
			sample = append(sample, points[i])
		}
		clusters = append(clusters, models.GeoCluster{
			CenterLat:    sumLat / float64(n),
			CenterLon:    sumLon / float64(n),
			PointCount:   n,
			Layer:        layer,
			SamplePoints: sample,
			Bounds:       [4]float64{minLat, minLon, maxLat, maxLon},
		})
		order = append(order, c)
	}

	// Größte Cluster zuerst, bei Gleichstand nach Zelle, damit die Ausgabe stabil ist.
	perm := make([]int, len(clusters))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ca, cb := clusters[perm[a]], clusters[perm[b]]
		if ca.PointCount != cb.PointCount {
			return ca.PointCount > cb.PointCount
		}
		if order[perm[a]].row != order[perm[b]].row {
			return order[perm[a]].row < order[perm[b]].row
		}
		return order[perm[a]].col < order[perm[b]].col
	})
	sorted := make([]models.GeoCluster, len(clusters))
	for i, p := range perm {
		sorted[i] = clusters[p]
	}
	return sorted
}
