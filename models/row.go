package models

// ValueKind unterscheidet die Typen, in die SPARQL-Bindings dekodiert werden.
type ValueKind int

const (
	KindString ValueKind = iota
	KindEntity
	KindNumber
	KindDate
	KindPoint
)

// Value ist ein typisierter Zellenwert einer Ergebniszeile. Null-Werte werden
// nicht als Value abgebildet, sondern fehlen in der Row.
type Value struct {
	Kind  ValueKind    `json:"kind"`
	Text  string       `json:"text"`
	Num   float64      `json:"num,omitempty"`
	Date  *PartialDate `json:"date,omitempty"`
	Point *Point       `json:"point,omitempty"`
}

// Point ist eine WGS84-Koordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid prüft den Wertebereich von Breiten- und Längengrad.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Row bildet Variablennamen auf typisierte Werte ab.
type Row map[string]Value

// String liefert die lexikalische Form oder "" wenn die Variable ungebunden ist.
func (r Row) String(name string) string {
	return r[name].Text
}

// QID liefert den Identifier, falls die Variable an eine Wikidata-Entität gebunden ist.
func (r Row) QID(name string) string {
	v, ok := r[name]
	if !ok || v.Kind != KindEntity {
		return ""
	}
	return v.Text
}

func (r Row) Float(name string) (float64, bool) {
	v, ok := r[name]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (r Row) Int(name string) (int, bool) {
	f, ok := r.Float(name)
	return int(f), ok
}

func (r Row) Date(name string) *PartialDate {
	v, ok := r[name]
	if !ok {
		return nil
	}
	return v.Date
}

func (r Row) Point(name string) *Point {
	v, ok := r[name]
	if !ok {
		return nil
	}
	return v.Point
}
