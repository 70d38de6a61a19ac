package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lit-explorer/cache"
	"lit-explorer/errs"
	"lit-explorer/models"
)

func rel(src, tgt string, typ models.EdgeType, via string) models.Row {
	r := models.Row{
		"source":       ent(src),
		"sourceLabel":  lit("Author " + src),
		"target":       ent(tgt),
		"targetLabel":  lit("Author " + tgt),
		"relationType": lit(string(typ)),
	}
	if via != "" {
		r["via"] = ent(via)
		r["viaLabel"] = lit("Movement " + via)
	}
	return r
}

// graphFixture beantwortet author_graph aus einer festen Kantenliste pro Quelle.
func graphFixture(edges map[string][]models.Row) *fakeExecutor {
	return &fakeExecutor{respond: func(tmpl, q string) ([]models.Row, error) {
		var out []models.Row
		for _, src := range valuesOf(q, "source") {
			out = append(out, edges[src]...)
		}
		return out, nil
	}}
}

func newGraphService(t *testing.T, exec *fakeExecutor) *GraphService {
	return NewGraphService(testConfig(), newTestRetriever(t, exec, cache.NewMemoryStore(nil)), testLogger(t))
}

func nodeIDs(d *models.GraphData) []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestBuildNetworkEmptySeeds(t *testing.T) {
	exec := &fakeExecutor{}
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), nil, 2, true, true)
	require.NoError(t, err)
	assert.NotNil(t, data.Nodes)
	assert.NotNil(t, data.Edges)
	assert.NotNil(t, data.CentralNodes)
	assert.Empty(t, data.Nodes)
	assert.Empty(t, data.Edges)
	assert.Empty(t, data.CentralNodes)
	assert.Equal(t, 0, exec.count(""))
}

func TestBuildNetworkRejectsInvalidSeed(t *testing.T) {
	_, err := newGraphService(t, &fakeExecutor{}).BuildNetwork(context.Background(), []string{"Q1", "Hemingway"}, 1, false, false)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBuildNetworkSymmetricEdgeDedup(t *testing.T) {
	exec := graphFixture(map[string][]models.Row{
		"Q1": {rel("Q1", "Q2", models.EdgeSameMovement, "Q37068")},
		"Q2": {rel("Q2", "Q1", models.EdgeSameMovement, "Q37068")},
	})
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1", "Q2"}, 1, false, true)
	require.NoError(t, err)

	same := 0
	for _, e := range data.Edges {
		if e.Type == models.EdgeSameMovement {
			same++
			assert.Equal(t, "Q1", e.Source)
			assert.Equal(t, "Q2", e.Target)
			assert.Equal(t, 1.0, e.Weight)
		}
	}
	assert.Equal(t, 1, same)
	assert.Len(t, data.Nodes, 2)
}

func TestBuildNetworkCanonicalisesInverseRelations(t *testing.T) {
	exec := graphFixture(map[string][]models.Row{
		"Q1": {rel("Q1", "Q2", models.EdgeInfluencedBy, ""), rel("Q1", "Q3", models.EdgeTeacherOf, "")},
		"Q2": {rel("Q2", "Q1", models.EdgeInfluenced, "")},
		"Q3": {rel("Q3", "Q1", models.EdgeStudentOf, "")},
	})
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 2, false, false)
	require.NoError(t, err)

	require.Len(t, data.Edges, 2)
	assert.Equal(t, models.GraphEdge{Source: "Q1", Target: "Q2", Type: models.EdgeInfluencedBy, Weight: 1}, data.Edges[0])
	assert.Equal(t, models.GraphEdge{Source: "Q3", Target: "Q1", Type: models.EdgeStudentOf, Weight: 1}, data.Edges[1])
}

func TestBuildNetworkKeepsIsolatedSeedsAndCentralSubset(t *testing.T) {
	exec := graphFixture(map[string][]models.Row{
		"Q1": {rel("Q1", "Q2", models.EdgeInfluencedBy, ""), rel("Q1", "Q3", models.EdgeInfluencedBy, "")},
		"Q2": {rel("Q2", "Q4", models.EdgeInfluencedBy, "")},
	})
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1", "Q99"}, 3, false, false)
	require.NoError(t, err)

	ids := nodeIDs(data)
	assert.Contains(t, ids, "Q99")
	for _, n := range data.Nodes {
		require.NotNil(t, n.Degree)
		require.NotNil(t, n.Centrality)
		assert.GreaterOrEqual(t, *n.Centrality, 0.0)
		assert.LessOrEqual(t, *n.Centrality, 1.0)
		if n.ID == "Q99" {
			assert.Equal(t, 0, *n.Degree)
			assert.Equal(t, true, n.Metadata["seed"])
		}
	}
	for _, c := range data.CentralNodes {
		assert.Contains(t, ids, c)
	}
	require.NotEmpty(t, data.CentralNodes)
	// Q1 und Q2 liegen auf allen kürzesten Wegen der Kette Q3-Q1-Q2-Q4.
	assert.ElementsMatch(t, []string{"Q1", "Q2"}, data.CentralNodes[:2])
}

func TestBuildNetworkClampsDepth(t *testing.T) {
	chain := map[string][]models.Row{}
	for i := 1; i <= 10; i++ {
		src, tgt := fmt.Sprintf("Q%d", i), fmt.Sprintf("Q%d", i+1)
		chain[src] = []models.Row{rel(src, tgt, models.EdgeInfluencedBy, "")}
	}
	exec := graphFixture(chain)
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 10, false, false)
	require.NoError(t, err)
	assert.Equal(t, 3, exec.count("author_graph"))
	assert.Len(t, data.Nodes, 4)

	exec = graphFixture(chain)
	_, err = newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.count("author_graph"))
}

func TestBuildNetworkPartialFailure(t *testing.T) {
	exec := &fakeExecutor{respond: func(_, q string) ([]models.Row, error) {
		srcs := valuesOf(q, "source")
		if len(srcs) == 1 && srcs[0] == "Q1" {
			return []models.Row{rel("Q1", "Q2", models.EdgeInfluencedBy, "")}, nil
		}
		return nil, errs.ErrUnavailable
	}}
	data, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 2, false, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Q1", "Q2"}, nodeIDs(data))
	assert.Len(t, data.Edges, 1)
}

func TestBuildNetworkTotalFailure(t *testing.T) {
	exec := &fakeExecutor{respond: func(string, string) ([]models.Row, error) { return nil, errs.ErrTimeout }}
	_, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 2, false, false)
	assert.ErrorIs(t, err, errs.ErrTimeout)
}

func TestBuildNetworkBatchesFrontier(t *testing.T) {
	edges := map[string][]models.Row{}
	for i := 2; i <= 61; i++ {
		edges["Q1"] = append(edges["Q1"], rel("Q1", fmt.Sprintf("Q%d", i), models.EdgeInfluencedBy, ""))
	}
	exec := graphFixture(edges)
	_, err := newGraphService(t, exec).BuildNetwork(context.Background(), []string{"Q1"}, 2, false, false)
	require.NoError(t, err)
	// 1 Abruf für den Seed, 60 neue Knoten in Batches zu 25.
	assert.Equal(t, 1+3, exec.count("author_graph"))
}

func TestBetweenness(t *testing.T) {
	path := betweenness([]string{"a", "b", "c"}, map[string][]string{"a": {"b"}, "b": {"a", "c"}, "c": {"b"}})
	assert.InDelta(t, 1.0, path["b"], 1e-9)
	assert.InDelta(t, 0.0, path["a"], 1e-9)

	star := betweenness([]string{"c", "x", "y", "z"}, map[string][]string{
		"c": {"x", "y", "z"}, "x": {"c"}, "y": {"c"}, "z": {"c"},
	})
	assert.InDelta(t, 1.0, star["c"], 1e-9)
	assert.InDelta(t, 0.0, star["x"], 1e-9)

	square := betweenness([]string{"a", "b", "c", "d"}, map[string][]string{
		"a": {"b", "d"}, "b": {"a", "c"}, "c": {"b", "d"}, "d": {"a", "c"},
	})
	for _, v := range square {
		assert.InDelta(t, 1.0/6.0, v, 1e-9)
	}

	two := betweenness([]string{"a", "b"}, map[string][]string{"a": {"b"}, "b": {"a"}})
	assert.Equal(t, 0.0, two["a"])
}
