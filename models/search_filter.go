package models

// SearchFilters sind die optionalen Filter der Buchsuche. Leere Felder erzeugen
// keine Filterklausel in der Query.
type SearchFilters struct {
	Country   string `form:"country" json:"country,omitempty" binding:"omitempty,qid"`
	Genre     string `form:"genre" json:"genre,omitempty" binding:"omitempty,qid"`
	Location  string `form:"location" json:"location,omitempty" binding:"omitempty,qid"`
	YearStart *int   `form:"year_start" json:"year_start,omitempty" binding:"omitempty,min=-3000,max=2100"`
	YearEnd   *int   `form:"year_end" json:"year_end,omitempty" binding:"omitempty,min=-3000,max=2100"`
	Limit     int    `form:"limit" json:"limit,omitempty" binding:"omitempty,min=1"`
	Offset    int    `form:"offset" json:"offset,omitempty" binding:"omitempty,min=0"`
}
