package models

// Location ist ein Ort. Ohne Koordinaten (Lat/Lon nil) nimmt er an keiner Geo-Ebene teil.
type Location struct {
	QID     string   `json:"qid"`
	Name    string   `json:"name"`
	Lat     *float64 `json:"latitude,omitempty"`
	Lon     *float64 `json:"longitude,omitempty"`
	Country string   `json:"country,omitempty"`
}

func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}
