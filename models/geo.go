package models

type GeoLayer string

const (
	LayerBirthplaces  GeoLayer = "birthplaces"
	LayerDeathplaces  GeoLayer = "deathplaces"
	LayerPublications GeoLayer = "publications"
	LayerSettings     GeoLayer = "settings"
)

// AllLayers in der Reihenfolge, in der die Autorenansicht sie ausliefert.
var AllLayers = []GeoLayer{LayerBirthplaces, LayerDeathplaces, LayerPublications, LayerSettings}

func (l GeoLayer) Valid() bool {
	switch l {
	case LayerBirthplaces, LayerDeathplaces, LayerPublications, LayerSettings:
		return true
	}
	return false
}

// EntityType ist der Typ der Entität, zu der ein Punkt gehört.
func (l GeoLayer) EntityType() string {
	if l == LayerBirthplaces || l == LayerDeathplaces {
		return "author"
	}
	return "book"
}

type GeoPoint struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"latitude"`
	Lon        float64  `json:"longitude"`
	Layer      GeoLayer `json:"layer"`
	EntityQID  string   `json:"entity_qid,omitempty"`
	EntityName string   `json:"entity_name,omitempty"`
	EntityType string   `json:"entity_type,omitempty"`
	Year       *int     `json:"year,omitempty"`
}

// GeoCluster fasst alle Punkte einer Gitterzelle zusammen.
// Bounds: [min_lat, min_lon, max_lat, max_lon].
type GeoCluster struct {
	CenterLat    float64    `json:"center_lat"`
	CenterLon    float64    `json:"center_lon"`
	PointCount   int        `json:"point_count"`
	Layer        GeoLayer   `json:"layer"`
	SamplePoints []GeoPoint `json:"sample_points"`
	Bounds       [4]float64 `json:"bounds"`
}

type GeoResponse struct {
	Points      []GeoPoint   `json:"points"`
	Clusters    []GeoCluster `json:"clusters"`
	TotalCount  int          `json:"total_count"`
	IsClustered bool         `json:"is_clustered"`
	Layer       GeoLayer     `json:"layer"`
}

// GeoRequest beschreibt eine Abfrage einer Geo-Ebene.
type GeoRequest struct {
	Layer      GeoLayer
	AuthorQIDs []string
	BookQIDs   []string
	Cluster    bool
}
