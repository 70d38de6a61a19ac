package services

import (
	"math"
	"sort"
	"strconv"
)

// authorFeatures sind die Merkmale eines Autors für die Ähnlichkeitsberechnung.
// Die Maps bilden QID auf Label ab.
type authorFeatures struct {
	QID         string            `json:"qid"`
	Name        string            `json:"name"`
	Movements   map[string]string `json:"movements"`
	Genres      map[string]string `json:"genres"`
	Awards      map[string]string `json:"awards"`
	BirthDecade *int              `json:"birth_decade,omitempty"`
}

func newAuthorFeatures(qid string) *authorFeatures {
	return &authorFeatures{
		QID:       qid,
		Movements: map[string]string{},
		Genres:    map[string]string{},
		Awards:    map[string]string{},
	}
}

func (f *authorFeatures) empty() bool {
	return len(f.Movements) == 0 && len(f.Genres) == 0 && len(f.Awards) == 0 && f.BirthDecade == nil
}

// featureSet vereinigt alle Kategorien zu einer Menge mit Präfix je Kategorie.
// Das Geburtsjahrzehnt zählt nur, wenn withDecade gesetzt ist.
func (f *authorFeatures) featureSet(withDecade bool) map[string]struct{} {
	set := make(map[string]struct{}, len(f.Movements)+len(f.Genres)+len(f.Awards)+1)
	for q := range f.Movements {
		set["movement:"+q] = struct{}{}
	}
	for q := range f.Genres {
		set["genre:"+q] = struct{}{}
	}
	for q := range f.Awards {
		set["award:"+q] = struct{}{}
	}
	if withDecade && f.BirthDecade != nil {
		set["decade:"+strconv.Itoa(*f.BirthDecade)] = struct{}{}
	}
	return set
}

// similarity berechnet den Jaccard-Index über die vereinigten Merkmalsmengen.
// Das Jahrzehnt wird nur berücksichtigt, wenn beide Autoren eines haben.
func similarity(a, b *authorFeatures) float64 {
	withDecade := a.BirthDecade != nil && b.BirthDecade != nil
	return jaccard(a.featureSet(withDecade), b.featureSet(withDecade))
}

// jaccard liefert |A∩B| / |A∪B| in [0,1]; zwei leere Mengen ergeben 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// sharedLabels liefert die Labels der gemeinsamen Schlüssel, alphabetisch sortiert.
func sharedLabels(a, b map[string]string) []string {
	out := []string{}
	for q, label := range a {
		if _, ok := b[q]; ok {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// decadeOf rundet ein Jahr auf den Beginn seines Jahrzehnts ab, auch für negative Jahre.
func decadeOf(year int) int {
	return int(math.Floor(float64(year)/10)) * 10
}
