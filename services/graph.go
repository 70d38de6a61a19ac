package services

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
	"lit-explorer/sparql"
)

const (
	minDepth = 1
	maxDepth = 3
)

// relation ist eine Zeile aus author_graph, Source ist immer der abgefragte Autor.
type relation struct {
	Source      string          `json:"source"`
	SourceLabel string          `json:"source_label"`
	Target      string          `json:"target"`
	TargetLabel string          `json:"target_label"`
	Type        models.EdgeType `json:"type"`
	Via         string          `json:"via,omitempty"`
	ViaLabel    string          `json:"via_label,omitempty"`
}

// GraphService baut Einfluss-Netzwerke zwischen Autoren.
type GraphService struct {
	Config    *config.Config
	Retriever *Retriever
	Logger    *zap.Logger
}

// NewGraphService erstellt eine neue Instanz des GraphService.
func NewGraphService(cfg *config.Config, r *Retriever, logger *zap.Logger) *GraphService {
	return &GraphService{Config: cfg, Retriever: r, Logger: logger.With(zap.String("service", "graph"))}
}

// BuildNetwork traversiert ab den Seeds bis zu depth Hops (1-3) und berechnet die Zentralität.
// Fehlgeschlagene Batches werden übersprungen; nur wenn alle Abrufe scheitern, wird der
// letzte Fehler zurückgegeben.
func (g *GraphService) BuildNetwork(ctx context.Context, seeds []string, depth int, coauthor, movements bool) (*models.GraphData, error) {
	if err := models.ValidateQIDs(seeds...); err != nil {
		return nil, err
	}
	seeds = uniqueOrdered(seeds)
	if len(seeds) == 0 {
		return &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}, CentralNodes: []string{}}, nil
	}
	depth = min(max(depth, minDepth), maxDepth)

	b := newGraphBuilder()
	visited := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		b.addNode(s, "", 0)
		b.nodes[s].Metadata["seed"] = true
		visited[s] = true
	}

	frontier := slices.Clone(seeds)
	var lastErr error
	succeeded := 0
	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		sort.Strings(frontier)
		var next []string
		for i, batch := range chunk(frontier, g.Config.GraphFrontierBatch) {
			rels, err := g.fetchHop(ctx, batch, coauthor, movements)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				lastErr = err
				g.Logger.Warn("Traversal-Zweig aufgegeben",
					zap.Int("hop", hop),
					zap.Int("batch", i),
					zap.Strings("authors", batch),
					zap.Error(fmt.Errorf("%w: %w", errs.ErrPartialFailure, err)))
				continue
			}
			succeeded++
			for _, rel := range rels {
				b.addRelation(rel, hop)
				if !visited[rel.Target] {
					visited[rel.Target] = true
					next = append(next, rel.Target)
				}
			}
		}
		frontier = next
	}
	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}

	data := b.finish(g.Config.GraphCentralTopK)
	g.Logger.Debug("Netzwerk erstellt",
		zap.Int("seeds", len(seeds)),
		zap.Int("depth", depth),
		zap.Int("nodes", len(data.Nodes)),
		zap.Int("edges", len(data.Edges)))
	return data, nil
}

// fetchHop holt die Beziehungen eines Frontier-Batches über den Retriever.
func (g *GraphService) fetchHop(ctx context.Context, batch []string, coauthor, movements bool) ([]relation, error) {
	b := sparql.Bindings{
		"author_qids":          batch,
		"include_coauthorship": coauthor,
		"include_movements":    movements,
		"limit":                g.Config.GraphHopLimit,
	}
	return Fetch(ctx, g.Retriever, "author_graph", b, TTLStatic, func(ctx context.Context) ([]relation, error) {
		rows, err := g.Retriever.Query(ctx, "author_graph", b)
		if err != nil {
			return nil, err
		}
		return mapRelations(rows), nil
	})
}

func mapRelations(rows []models.Row) []relation {
	rels := make([]relation, 0, len(rows))
	for _, row := range rows {
		src, tgt := row.QID("source"), row.QID("target")
		t := models.EdgeType(row.String("relationType"))
		if src == "" || tgt == "" || src == tgt || !t.Valid() {
			continue
		}
		rels = append(rels, relation{
			Source:      src,
			SourceLabel: labelOf(row, "source"),
			Target:      tgt,
			TargetLabel: labelOf(row, "target"),
			Type:        t,
			Via:         row.QID("via"),
			ViaLabel:    labelOf(row, "via"),
		})
	}
	return rels
}

type edgeKey struct {
	source, target string
	typ            models.EdgeType
}

// canonicalEdge bildet inverse Beziehungen auf ihre Grundform ab und ordnet
// symmetrische Paare, sodass jede Tatsache genau einen Schlüssel hat.
func canonicalEdge(source, target string, t models.EdgeType) edgeKey {
	switch t {
	case models.EdgeInfluenced:
		return edgeKey{source: target, target: source, typ: models.EdgeInfluencedBy}
	case models.EdgeTeacherOf:
		return edgeKey{source: target, target: source, typ: models.EdgeStudentOf}
	}
	if t.Symmetric() && target < source {
		source, target = target, source
	}
	return edgeKey{source: source, target: target, typ: t}
}

type graphBuilder struct {
	nodes     map[string]*models.GraphNode
	nodeOrder []string
	edges     map[edgeKey]*models.GraphEdge
	edgeOrder []edgeKey
	vias      map[edgeKey]map[string]bool
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodes: make(map[string]*models.GraphNode),
		edges: make(map[edgeKey]*models.GraphEdge),
		vias:  make(map[edgeKey]map[string]bool),
	}
}

func (b *graphBuilder) addNode(id, label string, hop int) {
	if n, ok := b.nodes[id]; ok {
		if (n.Label == "" || n.Label == id) && label != "" {
			n.Label = label
		}
		return
	}
	if label == "" {
		label = id
	}
	b.nodes[id] = &models.GraphNode{
		ID:       id,
		Label:    label,
		Type:     models.NodeAuthor,
		Metadata: map[string]any{"hop": hop},
	}
	b.nodeOrder = append(b.nodeOrder, id)
}

func (b *graphBuilder) addRelation(rel relation, hop int) {
	b.addNode(rel.Source, rel.SourceLabel, hop-1)
	b.addNode(rel.Target, rel.TargetLabel, hop)

	key := canonicalEdge(rel.Source, rel.Target, rel.Type)
	e, ok := b.edges[key]
	if !ok {
		e = &models.GraphEdge{Source: key.source, Target: key.target, Type: key.typ, Weight: 1}
		b.edges[key] = e
		b.edgeOrder = append(b.edgeOrder, key)
		b.vias[key] = make(map[string]bool)
		if rel.Via != "" {
			b.vias[key][rel.Via] = true
			e.Label = rel.ViaLabel
		}
		return
	}
	// Weitere gemeinsame Bewegungen oder Werke erhöhen das Gewicht derselben Kante.
	if rel.Via != "" && !b.vias[key][rel.Via] {
		b.vias[key][rel.Via] = true
		e.Weight++
		if e.Label == "" {
			e.Label = rel.ViaLabel
		} else {
			e.Label += ", " + rel.ViaLabel
		}
	}
}

// finish berechnet Grad und Betweenness auf der ungerichteten Projektion und wählt
// die topK zentralsten Knoten (Gleichstand: Grad absteigend, dann ID).
func (b *graphBuilder) finish(topK int) *models.GraphData {
	ids := slices.Clone(b.nodeOrder)
	sort.Strings(ids)
	adj := undirectedAdjacency(ids, b.edgeOrder)
	centrality := betweenness(ids, adj)

	data := &models.GraphData{
		Nodes:        make([]models.GraphNode, 0, len(b.nodeOrder)),
		Edges:        make([]models.GraphEdge, 0, len(b.edgeOrder)),
		CentralNodes: []string{},
	}
	for _, id := range b.nodeOrder {
		n := b.nodes[id]
		c := centrality[id]
		d := len(adj[id])
		n.Centrality = &c
		n.Degree = &d
		data.Nodes = append(data.Nodes, *n)
	}
	for _, k := range b.edgeOrder {
		data.Edges = append(data.Edges, *b.edges[k])
	}

	ranked := slices.Clone(ids)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, c := ranked[i], ranked[j]
		if centrality[a] != centrality[c] {
			return centrality[a] > centrality[c]
		}
		if len(adj[a]) != len(adj[c]) {
			return len(adj[a]) > len(adj[c])
		}
		return a < c
	})
	if topK < 0 {
		topK = 0
	}
	data.CentralNodes = append(data.CentralNodes, ranked[:min(topK, len(ranked))]...)
	return data
}

// undirectedAdjacency liefert sortierte Nachbarlisten ohne Mehrfachkanten.
func undirectedAdjacency(ids []string, edges []edgeKey) map[string][]string {
	sets := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		sets[id] = make(map[string]bool)
	}
	for _, e := range edges {
		sets[e.source][e.target] = true
		sets[e.target][e.source] = true
	}
	adj := make(map[string][]string, len(ids))
	for id, set := range sets {
		list := make([]string, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		sort.Strings(list)
		adj[id] = list
	}
	return adj
}

func uniqueOrdered(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func chunk(in []string, size int) [][]string {
	if size <= 0 {
		size = len(in)
	}
	var out [][]string
	for size < len(in) {
		in, out = in[size:], append(out, in[0:size:size])
	}
	if len(in) > 0 {
		out = append(out, in)
	}
	return out
}
