package wikidata

import (
	"fmt"
	"strconv"
	"strings"

	"lit-explorer/models"
)

// SPARQL 1.1 Query Results JSON Format
type sparqlResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

type binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

const (
	xsd        = "http://www.w3.org/2001/XMLSchema#"
	wktLiteral = "http://www.opengis.net/ont/geosparql#wktLiteral"
)

// toRows wandelt die Bindings in typisierte Zeilen um. Ungebundene Variablen fehlen in der Row.
func (r *sparqlResponse) toRows() []models.Row {
	rows := make([]models.Row, 0, len(r.Results.Bindings))
	for _, b := range r.Results.Bindings {
		row := make(models.Row, len(b))
		for name, v := range b {
			row[name] = decodeValue(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func decodeValue(b binding) models.Value {
	switch b.Type {
	case "uri":
		if qid := entityID(b.Value); qid != "" {
			return models.Value{Kind: models.KindEntity, Text: qid}
		}
		return models.Value{Kind: models.KindString, Text: b.Value}
	case "literal", "typed-literal":
		return decodeLiteral(b)
	default:
		return models.Value{Kind: models.KindString, Text: b.Value}
	}
}

func decodeLiteral(b binding) models.Value {
	v := models.Value{Kind: models.KindString, Text: b.Value}
	switch {
	case b.Datatype == "":
		return v
	case b.Datatype == wktLiteral:
		if p, err := parsePoint(b.Value); err == nil {
			v.Kind = models.KindPoint
			v.Point = &p
		}
	case b.Datatype == xsd+"dateTime" || b.Datatype == xsd+"date":
		if d, err := models.ParseDateLiteral(b.Value, models.PrecisionDay); err == nil {
			v.Kind = models.KindDate
			v.Date = &d
		}
	case strings.HasPrefix(b.Datatype, xsd):
		switch strings.TrimPrefix(b.Datatype, xsd) {
		case "integer", "int", "long", "short", "decimal", "double", "float",
			"nonNegativeInteger", "positiveInteger":
			if n, err := strconv.ParseFloat(b.Value, 64); err == nil {
				v.Kind = models.KindNumber
				v.Num = n
			}
		}
	}
	return v
}

// entityID reduziert eine Entitäts-URI wie http://www.wikidata.org/entity/Q42 auf "Q42".
func entityID(uri string) string {
	i := strings.LastIndex(uri, "entity/")
	if i < 0 {
		return ""
	}
	id := uri[i+len("entity/"):]
	if !models.ValidQID(id) {
		return ""
	}
	return id
}

// parsePoint liest WKT "Point(lon lat)", optional mit vorangestellter CRS-URI.
func parsePoint(s string) (models.Point, error) {
	if i := strings.Index(s, "Point("); i >= 0 {
		s = s[i+len("Point("):]
	} else {
		return models.Point{}, fmt.Errorf("not a WKT point: %q", s)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), ")")
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return models.Point{}, fmt.Errorf("not a WKT point: %q", s)
	}
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.Point{}, err
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return models.Point{}, err
	}
	return models.Point{Lat: lat, Lon: lon}, nil
}
