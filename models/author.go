package models

// Author repräsentiert einen Autor mit biografischen Angaben aus Wikidata.
type Author struct {
	QID         string       `json:"qid"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	BirthDate   *PartialDate `json:"birth_date,omitempty"`
	DeathDate   *PartialDate `json:"death_date,omitempty"`
	BirthPlace  *Location    `json:"birth_place,omitempty"`
	DeathPlace  *Location    `json:"death_place,omitempty"`

	Nationality    string `json:"nationality,omitempty"`
	NationalityQID string `json:"nationality_qid,omitempty"`

	// Parallel geführte Listen: Label[i] gehört zu QIDs[i].
	Movements        []string `json:"movements"`
	MovementQIDs     []string `json:"movement_qids"`
	NotableWorks     []string `json:"notable_works"`
	NotableWorkQIDs  []string `json:"notable_work_qids"`
	InfluencedBy     []string `json:"influenced_by"`
	InfluencedByQIDs []string `json:"influenced_by_qids"`
	Occupations      []string `json:"occupations"`
}
