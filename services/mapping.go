package services

import (
	"fmt"
	"slices"

	"lit-explorer/errs"
	"lit-explorer/models"
)

// labelOf liefert das bereinigte Label der Variablen name+"Label" oder den QID,
// falls der Label-Service nichts geliefert hat.
func labelOf(row models.Row, name string) string {
	if l := cleanLabel(row.String(name + "Label")); l != "" {
		return l
	}
	return row.QID(name)
}

// dateOf liest ein Datum und wendet die mitgelieferte Wikidata-Präzision an.
// Präzisionen gröber als Jahr (Jahrzehnt, Jahrhundert) werden als Jahr behandelt.
func dateOf(row models.Row, dateVar, precisionVar string) *models.PartialDate {
	d := row.Date(dateVar)
	if d == nil {
		return nil
	}
	p, ok := row.Int(precisionVar)
	if !ok || p >= int(models.PrecisionDay) {
		out := *d
		return &out
	}
	precision := models.DatePrecision(max(p, int(models.PrecisionYear)))
	parsed, err := models.ParseDateLiteral(row.String(dateVar), precision)
	if err != nil {
		out := *d
		return &out
	}
	return &parsed
}

// locationOf baut einen Ort aus Entität, optionaler Koordinate und Land.
// Ungültige Koordinaten werden verworfen, nicht auf (0,0) gesetzt.
func locationOf(row models.Row, name, coordVar, countryVar string) *models.Location {
	qid := row.QID(name)
	if qid == "" {
		return nil
	}
	loc := &models.Location{QID: qid, Name: labelOf(row, name)}
	if countryVar != "" {
		loc.Country = cleanLabel(row.String(countryVar))
	}
	if p := row.Point(coordVar); p != nil && p.Valid() {
		lat, lon := p.Lat, p.Lon
		loc.Lat, loc.Lon = &lat, &lon
	}
	return loc
}

// appendPair hängt (qid, label) an zwei parallel geführte Listen an.
func appendPair(labels, qids *[]string, qid, label string) {
	if qid == "" || slices.Contains(*qids, qid) {
		return
	}
	if label == "" {
		label = qid
	}
	*qids = append(*qids, qid)
	*labels = append(*labels, label)
}

func appendUnique(list *[]string, s string) {
	if s == "" || slices.Contains(*list, s) {
		return
	}
	*list = append(*list, s)
}

// mapAuthor fasst die Zeilen von author_details zu einem Autor zusammen.
func mapAuthor(qid string, rows []models.Row) (*models.Author, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: author %s", errs.ErrNotFound, qid)
	}
	a := &models.Author{
		QID:              qid,
		Movements:        []string{},
		MovementQIDs:     []string{},
		NotableWorks:     []string{},
		NotableWorkQIDs:  []string{},
		InfluencedBy:     []string{},
		InfluencedByQIDs: []string{},
		Occupations:      []string{},
	}
	for _, row := range rows {
		if a.Name == "" {
			a.Name = cleanLabel(row.String("authorLabel"))
		}
		if a.Description == "" {
			a.Description = cleanLabel(row.String("authorDescription"))
		}
		if a.Image == "" {
			a.Image = row.String("image")
		}
		if a.BirthDate == nil {
			a.BirthDate = dateOf(row, "birthDate", "birthPrecision")
		}
		if a.DeathDate == nil {
			a.DeathDate = dateOf(row, "deathDate", "deathPrecision")
		}
		if a.BirthPlace == nil {
			a.BirthPlace = locationOf(row, "birthPlace", "birthCoord", "birthCountryLabel")
		}
		if a.DeathPlace == nil {
			a.DeathPlace = locationOf(row, "deathPlace", "deathCoord", "deathCountryLabel")
		}
		if a.NationalityQID == "" && row.QID("nationality") != "" {
			a.NationalityQID = row.QID("nationality")
			a.Nationality = labelOf(row, "nationality")
		}
		appendPair(&a.Movements, &a.MovementQIDs, row.QID("movement"), labelOf(row, "movement"))
		appendPair(&a.NotableWorks, &a.NotableWorkQIDs, row.QID("work"), labelOf(row, "work"))
		appendPair(&a.InfluencedBy, &a.InfluencedByQIDs, row.QID("influence"), labelOf(row, "influence"))
		appendUnique(&a.Occupations, labelOf(row, "occupation"))
	}
	if a.Name == "" {
		a.Name = qid
	}
	return a, nil
}

func newBook(qid, title string) models.Book {
	if title == "" {
		title = qid
	}
	return models.Book{
		QID:                qid,
		Title:              title,
		Authors:            []string{},
		AuthorQIDs:         []string{},
		Genres:             []string{},
		GenreQIDs:          []string{},
		NarrativeLocations: []models.Location{},
		Awards:             []string{},
		AwardQIDs:          []string{},
	}
}

// mapBooks gruppiert Zeilen nach ?book in Reihenfolge des ersten Auftretens.
func mapBooks(rows []models.Row) []models.Book {
	books := []models.Book{}
	index := make(map[string]int)
	for _, row := range rows {
		qid := row.QID("book")
		if qid == "" {
			continue
		}
		i, ok := index[qid]
		if !ok {
			books = append(books, newBook(qid, labelOf(row, "book")))
			i = len(books) - 1
			index[qid] = i
		}
		applyBookRow(&books[i], row)
	}
	return books
}

func applyBookRow(b *models.Book, row models.Row) {
	if b.Description == "" {
		b.Description = cleanLabel(row.String("bookDescription"))
	}
	if b.PublicationDate == nil {
		if d := dateOf(row, "pubDate", "pubPrecision"); d != nil {
			year := d.Year
			b.PublicationDate = d
			b.PublicationYear = &year
		}
	}
	b.AddAuthor(row.QID("author"), labelOf(row, "author"))
	b.AddGenre(row.QID("genre"), labelOf(row, "genre"))
	b.AddAward(row.QID("award"), labelOf(row, "award"))
	if b.PublicationPlace == nil {
		b.PublicationPlace = locationOf(row, "place", "placeCoord", "")
	}
	if setting := locationOf(row, "setting", "settingCoord", ""); setting != nil {
		b.AddSetting(*setting)
	}
	if b.LanguageQID == "" && row.QID("language") != "" {
		b.LanguageQID = row.QID("language")
		b.Language = labelOf(row, "language")
	}
}

// mapBook liefert genau ein Buch oder ErrNotFound.
func mapBook(qid string, rows []models.Row) (*models.Book, error) {
	for _, b := range mapBooks(rows) {
		if b.QID == qid {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: book %s", errs.ErrNotFound, qid)
}
