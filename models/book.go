package models

import "slices"

// Book repräsentiert ein literarisches Werk.
type Book struct {
	QID             string       `json:"qid"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	PublicationDate *PartialDate `json:"publication_date,omitempty"`
	PublicationYear *int         `json:"publication_year,omitempty"`

	// Authors und AuthorQIDs sind indexgleich, siehe AddAuthor.
	Authors    []string `json:"authors"`
	AuthorQIDs []string `json:"author_qids"`

	Genre     string   `json:"genre,omitempty"`
	GenreQID  string   `json:"genre_qid,omitempty"`
	Genres    []string `json:"genres"`
	GenreQIDs []string `json:"genre_qids"`

	PublicationPlace   *Location  `json:"publication_place,omitempty"`
	NarrativeLocations []Location `json:"narrative_locations"`

	Language    string   `json:"language,omitempty"`
	LanguageQID string   `json:"language_qid,omitempty"`
	Awards      []string `json:"awards"`
	AwardQIDs   []string `json:"award_qids"`
}

// AddAuthor hängt einen Autor an, sofern er noch nicht enthalten ist. Fehlt das
// Label, wird der QID als Anzeigename verwendet, damit beide Listen gleich lang bleiben.
func (b *Book) AddAuthor(qid, name string) {
	if qid == "" || slices.Contains(b.AuthorQIDs, qid) {
		return
	}
	if name == "" {
		name = qid
	}
	b.AuthorQIDs = append(b.AuthorQIDs, qid)
	b.Authors = append(b.Authors, name)
}

// AddGenre ergänzt die Genre-Liste; das erste Genre wird zum primären Genre.
func (b *Book) AddGenre(qid, name string) {
	if qid == "" || slices.Contains(b.GenreQIDs, qid) {
		return
	}
	if name == "" {
		name = qid
	}
	b.GenreQIDs = append(b.GenreQIDs, qid)
	b.Genres = append(b.Genres, name)
	if b.GenreQID == "" {
		b.GenreQID, b.Genre = qid, name
	}
}

// AddAward ergänzt einen Preis, doppelte Einträge werden ignoriert.
func (b *Book) AddAward(qid, name string) {
	if qid == "" || slices.Contains(b.AwardQIDs, qid) {
		return
	}
	if name == "" {
		name = qid
	}
	b.AwardQIDs = append(b.AwardQIDs, qid)
	b.Awards = append(b.Awards, name)
}

// AddSetting ergänzt einen Handlungsort.
func (b *Book) AddSetting(loc Location) {
	for _, l := range b.NarrativeLocations {
		if l.QID == loc.QID {
			return
		}
	}
	b.NarrativeLocations = append(b.NarrativeLocations, loc)
}
