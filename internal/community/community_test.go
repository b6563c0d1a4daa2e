package community

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

func projectWithGraph(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.New("acme|demo", "https://github.com/acme/demo")
	require.NoError(t, err)

	m := graphmodel.NewModel()
	for _, id := range []graphmodel.NodeID{"a", "b", "c"} {
		m.Nodes[id] = graphmodel.Attributes{"name": string(id)}
	}
	m.Edges = append(m.Edges,
		graphmodel.Edge{Source: "a", Target: "b"},
		graphmodel.Edge{Source: "b", Target: "c"},
	)
	p.DepGraph = m
	return p
}

func TestExtractorAssignsCommunities(t *testing.T) {
	e, err := NewExtractor(config.CommunityConfig{}, logging.NewNop())
	require.NoError(t, err)

	p := projectWithGraph(t)
	got, err := e.Extract(context.Background(), p)
	require.NoError(t, err)

	require.True(t, got.HasCommunities("louvain"))
	assert.Len(t, got.Communities["louvain"], 3)
}

func TestExtractorRequiresGraph(t *testing.T) {
	e, err := NewExtractor(config.CommunityConfig{}, logging.NewNop())
	require.NoError(t, err)

	p, err := project.New("acme|demo", "https://github.com/acme/demo")
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), p)
	assert.ErrorIs(t, err, project.ErrNoGraph)
}

func TestExtractorSkipsExistingAssignment(t *testing.T) {
	e, err := NewExtractor(config.CommunityConfig{}, logging.NewNop())
	require.NoError(t, err)

	p := projectWithGraph(t)
	existing := map[graphmodel.NodeID]int{"a": 7}
	p.SetCommunities("louvain", existing)

	got, err := e.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, existing, got.Communities["louvain"], "existing assignment recomputed")
}

func TestExtractorForceRecomputes(t *testing.T) {
	e, err := NewExtractor(config.CommunityConfig{ForceRun: true}, logging.NewNop())
	require.NoError(t, err)

	p := projectWithGraph(t)
	p.SetCommunities("louvain", map[graphmodel.NodeID]int{"a": 7})

	got, err := e.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, got.Communities["louvain"], 3)
}

func TestExtractorRunsAllConfiguredAlgorithms(t *testing.T) {
	cfg := config.CommunityConfig{Algorithms: []string{"louvain", "label_propagation"}}
	e, err := NewExtractor(cfg, logging.NewNop())
	require.NoError(t, err)

	got, err := e.Extract(context.Background(), projectWithGraph(t))
	require.NoError(t, err)
	assert.True(t, got.HasCommunities("louvain"))
	assert.True(t, got.HasCommunities("label_propagation"))
}

func TestExtractorCleanLeavesGraphUntouched(t *testing.T) {
	cfg := config.CommunityConfig{CleanGraph: true, RemoveEdgeLabels: []string{"isChildOf"}}
	e, err := NewExtractor(cfg, logging.NewNop())
	require.NoError(t, err)

	p := projectWithGraph(t)
	p.DepGraph.Edges[0].Attributes = graphmodel.Attributes{graphmodel.EdgeLabelAttr: "isChildOf"}
	edgesBefore := p.DepGraph.Size()

	got, err := e.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, edgesBefore, got.DepGraph.Size(), "clustering mutated the stored graph")
	assert.True(t, got.HasCommunities("louvain"))
}

func TestExtractorUnknownAlgorithm(t *testing.T) {
	_, err := NewExtractor(config.CommunityConfig{Algorithms: []string{"nope"}}, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestExtractorCancelledContext(t *testing.T) {
	e, err := NewExtractor(config.CommunityConfig{}, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Extract(ctx, projectWithGraph(t))
	assert.True(t, errors.Is(err, context.Canceled))
}