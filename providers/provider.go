package providers

import (
	"context"

	"lit-explorer/models"
)

// QueryExecutor ist das Interface, das jeder entfernte SPARQL-Endpunkt implementieren muss.
// Die Services sprechen ihn nie direkt an, sondern nur über den services.Retriever.
type QueryExecutor interface {
	// Execute führt einen fertig gerenderten Query aus und gibt die typisierten Ergebniszeilen zurück.
	Execute(ctx context.Context, query string) ([]models.Row, error)

	// ExecutePaginated holt bis zu maxPages Seiten à pageSize Zeilen und hängt sie aneinander.
	ExecutePaginated(ctx context.Context, query string, pageSize, maxPages int) ([]models.Row, error)

	// Name gibt den eindeutigen Namen des Endpunkts zurück (z.B. "wikidata").
	Name() string
}
