package graphmodel

import "strings"

// CleanOptions controls the pre-clustering cleaning pass.
type CleanOptions struct {
	// RemoveEdgeLabels drops edges whose EdgeLabelAttr matches.
	RemoveEdgeLabels []string
}

// Clean derives a reduced copy of the model for clustering input. The
// original model is left untouched; a project's dep_graph is never mutated
// in place.
//
// The pass mirrors what the extraction tool's consumers expect:
//   - the tool's "Weight" attribute is copied to "weight" on each edge,
//   - nodes whose "name" contains '$' (compiler-generated inner entities)
//     are dropped together with their edges,
//   - edges with a removed label are dropped,
//   - isolated nodes are dropped.
func Clean(m *Model, opts CleanOptions) *Model {
	removeLabel := make(map[string]bool, len(opts.RemoveEdgeLabels))
	for _, l := range opts.RemoveEdgeLabels {
		removeLabel[l] = true
	}

	out := NewModel()
	for id, attrs := range m.Nodes {
		if strings.Contains(attrs["name"], "$") {
			continue
		}
		out.Nodes[id] = attrs.Clone()
	}

	connected := make(map[NodeID]bool)
	for _, e := range m.Edges {
		if removeLabel[e.Attributes[EdgeLabelAttr]] {
			continue
		}
		if _, ok := out.Nodes[e.Source]; !ok {
			continue
		}
		if _, ok := out.Nodes[e.Target]; !ok {
			continue
		}
		attrs := e.Attributes.Clone()
		if w, ok := attrs["Weight"]; ok {
			attrs["weight"] = w
		}
		out.Edges = append(out.Edges, Edge{Source: e.Source, Target: e.Target, Attributes: attrs})
		connected[e.Source] = true
		connected[e.Target] = true
	}

	for id := range out.Nodes {
		if !connected[id] {
			delete(out.Nodes, id)
		}
	}

	return out
}
