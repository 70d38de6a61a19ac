package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lit-explorer/models"
)

// AuthorSnapshot bündelt Netzwerk und Orte eines Autors.
type AuthorSnapshot struct {
	QID       string                                  `json:"qid"`
	Network   *models.GraphData                       `json:"network"`
	Locations map[models.GeoLayer]*models.GeoResponse `json:"locations"`
}

// Snapshot ist das Dokument, das der Export nach S3 schreibt.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Authors     []AuthorSnapshot `json:"authors"`
	Failed      []string         `json:"failed,omitempty"`
}

// SnapshotBuilder erzeugt Snapshots aus Graph- und Geo-Daten.
type SnapshotBuilder struct {
	Graph  *GraphService
	Geo    *GeoService
	Logger *zap.Logger
	now    func() time.Time
}

// NewSnapshotBuilder erstellt eine neue Instanz des SnapshotBuilder.
func NewSnapshotBuilder(graph *GraphService, geo *GeoService, logger *zap.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{Graph: graph, Geo: geo, Logger: logger, now: time.Now}
}

// Build sammelt die Daten für alle Autoren. Fehlschläge einzelner Autoren landen in
// Failed; nur wenn kein Autor gelingt, wird ein Fehler zurückgegeben.
func (b *SnapshotBuilder) Build(ctx context.Context, qids []string) (*Snapshot, error) {
	snap := &Snapshot{GeneratedAt: b.now().UTC()}
	var errList []error

	for _, qid := range qids {
		network, err := b.Graph.BuildNetwork(ctx, []string{qid}, 2, false, true)
		if err != nil {
			b.Logger.Warn("Netzwerk für Snapshot fehlgeschlagen", zap.String("qid", qid), zap.Error(err))
			snap.Failed = append(snap.Failed, qid)
			errList = append(errList, fmt.Errorf("%s: %w", qid, err))
			continue
		}
		locations, err := b.Geo.AuthorLocations(ctx, qid)
		if err != nil {
			b.Logger.Warn("Orte für Snapshot fehlgeschlagen", zap.String("qid", qid), zap.Error(err))
			snap.Failed = append(snap.Failed, qid)
			errList = append(errList, fmt.Errorf("%s: %w", qid, err))
			continue
		}
		snap.Authors = append(snap.Authors, AuthorSnapshot{QID: qid, Network: network, Locations: locations})
	}

	if len(snap.Authors) == 0 && len(errList) > 0 {
		return nil, errors.Join(errList...)
	}
	return snap, nil
}

// Gzip serialisiert den Snapshot als gzip-komprimiertes JSON.
func (s *Snapshot) Gzip() ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(s); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
