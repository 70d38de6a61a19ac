package models

// SimilarAuthor ist ein Empfehlungsergebnis mit Jaccard-Score in [0,1].
type SimilarAuthor struct {
	QID             string   `json:"qid"`
	Name            string   `json:"name"`
	Similarity      float64  `json:"similarity"`
	SharedMovements []string `json:"shared_movements"`
	SharedGenres    []string `json:"shared_genres"`
}
