// Package graphmodel defines the lossless interchange format for
// node/edge-attributed dependency graphs.
//
// A Model is the unit exchanged between the in-memory graph library
// (github.com/dominikbraun/graph) and persisted project state. Converting a
// native graph to a Model and back reproduces the same node set, the same
// edge multiset, and attribute-equal node/edge data.
package graphmodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// FilePathAttr is the node attribute that links a graph node to a source
// file. At most one node per graph may carry a given value.
const FilePathAttr = "filePathRelative"

// EdgeLabelAttr is the edge attribute carrying the relationship type
// emitted by the extraction tool (e.g. "belongsTo", "dependsOn").
const EdgeLabelAttr = "labelE"

// BelongsToLabel marks containment edges between a file node and its
// enclosing package node.
const BelongsToLabel = "belongsTo"

var (
	// ErrNodeNotFound indicates no node carries the requested file path.
	ErrNodeNotFound = errors.New("graphmodel: no node for file path")

	// ErrAmbiguousFile indicates two or more nodes carry the same file
	// path, making file-to-node cross-referencing ambiguous.
	ErrAmbiguousFile = errors.New("graphmodel: file path maps to multiple nodes")
)

// NodeID is the opaque identifier assigned to a node by the extraction
// tool. It is stable across the extraction, annotation and community
// stages of a project but carries no meaning beyond equality.
type NodeID string

// Attributes holds string-keyed scalar attributes of a node or edge.
type Attributes map[string]string

// Clone returns an independent copy of the attribute map.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Edge is one attributed edge. The graph is treated as undirected for
// analysis, but the source/target order emitted by the extractor is
// preserved.
type Edge struct {
	Source     NodeID     `json:"source"`
	Target     NodeID     `json:"target"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Model is the serializable graph representation.
type Model struct {
	Nodes map[NodeID]Attributes `json:"nodes"`
	Edges []Edge                `json:"edges"`
}

// NewModel returns an empty model with allocated containers.
func NewModel() *Model {
	return &Model{Nodes: make(map[NodeID]Attributes)}
}

// Order returns the number of nodes.
func (m *Model) Order() int { return len(m.Nodes) }

// Size returns the number of edges.
func (m *Model) Size() int { return len(m.Edges) }

// Graph is the native in-memory representation used by clustering
// algorithms. Vertices are keyed by NodeID and carry their attributes as
// vertex properties.
type Graph = graph.Graph[NodeID, NodeID]

// NewGraph returns an empty undirected native graph keyed by NodeID.
func NewGraph() Graph {
	return graph.New(func(id NodeID) NodeID { return id })
}

// FromGraph converts a native graph into a Model. No node or edge is
// dropped or duplicated, and attributes are copied verbatim.
func FromGraph(g Graph) (*Model, error) {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("graphmodel: reading adjacency: %w", err)
	}

	m := NewModel()
	for id := range adjacency {
		_, props, err := g.VertexWithProperties(id)
		if err != nil {
			return nil, fmt.Errorf("graphmodel: reading vertex %q: %w", id, err)
		}
		m.Nodes[id] = Attributes(props.Attributes).Clone()
	}

	edges, err := g.Edges()
	if err != nil {
		return nil, fmt.Errorf("graphmodel: reading edges: %w", err)
	}
	for _, e := range edges {
		m.Edges = append(m.Edges, Edge{
			Source:     e.Source,
			Target:     e.Target,
			Attributes: Attributes(e.Properties.Attributes).Clone(),
		})
	}

	return m, nil
}

// ToGraph converts the model into a native undirected graph. Parallel edges
// in the model (distinct attribute sets between the same node pair) are
// collapsed to the first occurrence, since the native representation keeps
// one edge per node pair; the model itself remains the lossless form.
func (m *Model) ToGraph() (Graph, error) {
	g := NewGraph()

	for _, id := range m.sortedNodeIDs() {
		opts := make([]func(*graph.VertexProperties), 0, len(m.Nodes[id]))
		for _, k := range sortedKeys(m.Nodes[id]) {
			opts = append(opts, graph.VertexAttribute(k, m.Nodes[id][k]))
		}
		if err := g.AddVertex(id, opts...); err != nil {
			return nil, fmt.Errorf("graphmodel: adding node %q: %w", id, err)
		}
	}

	for _, e := range m.Edges {
		opts := make([]func(*graph.EdgeProperties), 0, len(e.Attributes))
		for _, k := range sortedKeys(e.Attributes) {
			opts = append(opts, graph.EdgeAttribute(k, e.Attributes[k]))
		}
		err := g.AddEdge(e.Source, e.Target, opts...)
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("graphmodel: adding edge %q->%q: %w", e.Source, e.Target, err)
		}
	}

	return g, nil
}

// NodeForFile returns the one node whose FilePathAttr equals path, matched
// by exact string equality.
//
// Zero matching nodes yields ErrNodeNotFound (legitimate for non-code
// files). More than one match yields ErrAmbiguousFile, because downstream
// file-to-node cross-referencing would be ambiguous.
func (m *Model) NodeForFile(path string) (NodeID, error) {
	var (
		found   NodeID
		matches int
	)
	for _, id := range m.sortedNodeIDs() {
		if m.Nodes[id][FilePathAttr] == path {
			found = id
			matches++
		}
	}
	switch matches {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNodeNotFound, path)
	case 1:
		return found, nil
	default:
		return "", fmt.Errorf("%w: %q matches %d nodes", ErrAmbiguousFile, path, matches)
	}
}

// PackageForNode returns the package node connected to id by a belongsTo
// edge. Returns "" with no error when the node has no containment edge; an
// error when more than one exists.
func (m *Model) PackageForNode(id NodeID) (NodeID, error) {
	var (
		pkg     NodeID
		matches int
	)
	for _, e := range m.Edges {
		if e.Attributes[EdgeLabelAttr] != BelongsToLabel {
			continue
		}
		switch id {
		case e.Source:
			pkg = e.Target
			matches++
		case e.Target:
			pkg = e.Source
			matches++
		}
	}
	if matches > 1 {
		return "", fmt.Errorf("graphmodel: node %q has %d belongsTo edges", id, matches)
	}
	return pkg, nil
}

func (m *Model) sortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(m.Nodes))
	for id := range m.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys(a Attributes) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
