package graphmodel

import (
	"errors"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddVertex("n1",
		graph.VertexAttribute("name", "Parser.java"),
		graph.VertexAttribute(FilePathAttr, "src/Parser.java"),
	))
	require.NoError(t, g.AddVertex("n2",
		graph.VertexAttribute("name", "util"),
	))
	require.NoError(t, g.AddVertex("n3"))
	require.NoError(t, g.AddEdge("n1", "n2",
		graph.EdgeAttribute(EdgeLabelAttr, BelongsToLabel),
		graph.EdgeAttribute("Weight", "3"),
	))
	require.NoError(t, g.AddEdge("n2", "n3"))

	m, err := FromGraph(g)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Order())
	assert.Equal(t, 2, m.Size())

	back, err := m.ToGraph()
	require.NoError(t, err)

	// Same node set with attribute-equal data.
	adjacency, err := back.AdjacencyMap()
	require.NoError(t, err)
	require.Len(t, adjacency, 3)
	for id, want := range m.Nodes {
		_, props, err := back.VertexWithProperties(id)
		require.NoError(t, err)
		if len(want) == 0 {
			assert.Empty(t, props.Attributes)
			continue
		}
		assert.Equal(t, map[string]string(want), props.Attributes, "node %s", id)
	}

	// Same edge multiset with attribute-equal data.
	edges, err := back.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		found := false
		for _, orig := range m.Edges {
			if (orig.Source == e.Source && orig.Target == e.Target) ||
				(orig.Source == e.Target && orig.Target == e.Source) {
				found = true
				if len(orig.Attributes) > 0 {
					assert.Equal(t, map[string]string(orig.Attributes), e.Properties.Attributes)
				}
			}
		}
		assert.True(t, found, "edge %s->%s not in original", e.Source, e.Target)
	}
}

func TestRoundTripEmptyGraph(t *testing.T) {
	m, err := FromGraph(NewGraph())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Order())
	assert.Equal(t, 0, m.Size())

	back, err := m.ToGraph()
	require.NoError(t, err)
	order, err := back.Order()
	require.NoError(t, err)
	assert.Equal(t, 0, order)
}

func TestNodeForFile(t *testing.T) {
	tests := []struct {
		name    string
		nodes   map[NodeID]Attributes
		path    string
		want    NodeID
		wantErr error
	}{
		{
			name: "unique match",
			nodes: map[NodeID]Attributes{
				"n1": {FilePathAttr: "src/A.java"},
				"n2": {FilePathAttr: "src/B.java"},
			},
			path: "src/B.java",
			want: "n2",
		},
		{
			name: "no match is not an error condition for non-code files",
			nodes: map[NodeID]Attributes{
				"n1": {FilePathAttr: "src/A.java"},
			},
			path:    "README.md",
			wantErr: ErrNodeNotFound,
		},
		{
			name: "aliased path is ambiguous",
			nodes: map[NodeID]Attributes{
				"n1": {FilePathAttr: "src/A.java"},
				"n2": {FilePathAttr: "src/A.java"},
			},
			path:    "src/A.java",
			wantErr: ErrAmbiguousFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{Nodes: tt.nodes}
			got, err := m.NodeForFile(tt.path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackageForNode(t *testing.T) {
	m := NewModel()
	m.Nodes["f1"] = Attributes{FilePathAttr: "src/A.java"}
	m.Nodes["p1"] = Attributes{"name": "com.example"}
	m.Nodes["f2"] = Attributes{FilePathAttr: "src/B.java"}
	m.Edges = []Edge{
		{Source: "f1", Target: "p1", Attributes: Attributes{EdgeLabelAttr: BelongsToLabel}},
		{Source: "f1", Target: "f2", Attributes: Attributes{EdgeLabelAttr: "dependsOn"}},
	}

	pkg, err := m.PackageForNode("f1")
	require.NoError(t, err)
	assert.Equal(t, NodeID("p1"), pkg)

	pkg, err = m.PackageForNode("f2")
	require.NoError(t, err)
	assert.Equal(t, NodeID(""), pkg)

	m.Edges = append(m.Edges, Edge{Source: "f1", Target: "f2", Attributes: Attributes{EdgeLabelAttr: BelongsToLabel}})
	_, err = m.PackageForNode("f1")
	assert.Error(t, err)
}

func TestToGraphCollapsesParallelEdges(t *testing.T) {
	m := NewModel()
	m.Nodes["a"] = nil
	m.Nodes["b"] = nil
	m.Edges = []Edge{
		{Source: "a", Target: "b", Attributes: Attributes{EdgeLabelAttr: "dependsOn"}},
		{Source: "a", Target: "b", Attributes: Attributes{EdgeLabelAttr: BelongsToLabel}},
	}

	g, err := m.ToGraph()
	require.NoError(t, err)
	edges, err := g.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "dependsOn", edges[0].Properties.Attributes[EdgeLabelAttr])

	// The model keeps the full multiset regardless.
	assert.Equal(t, 2, m.Size())
}
