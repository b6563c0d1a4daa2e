package community

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

// DefaultAlgorithm is run when no algorithms are configured.
const DefaultAlgorithm = "louvain"

// registry maps configurable algorithm names to implementations.
var registry = map[string]Algorithm{
	"louvain":           Louvain,
	"label_propagation": LabelPropagation,
}

// BuildAlgorithms resolves configured names against the registry. An empty
// list selects the default algorithm.
func BuildAlgorithms(names []string) (map[string]Algorithm, error) {
	if len(names) == 0 {
		names = []string{DefaultAlgorithm}
	}
	algos := make(map[string]Algorithm, len(names))
	for _, name := range names {
		algo, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown community algorithm %q", name)
		}
		algos[name] = algo
	}
	return algos, nil
}

// weightedGraph is the undirected weighted view the algorithms operate on.
// Edge direction in the dependency graph carries no meaning for community
// structure, so weights are symmetrized.
type weightedGraph struct {
	nodes []graphmodel.NodeID
	adj   map[graphmodel.NodeID]map[graphmodel.NodeID]float64
	deg   map[graphmodel.NodeID]float64
	total float64 // 2m, the sum of all degrees
}

func buildWeightedGraph(g graphmodel.Graph) (*weightedGraph, error) {
	am, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("reading adjacency: %w", err)
	}

	wg := &weightedGraph{
		adj: make(map[graphmodel.NodeID]map[graphmodel.NodeID]float64, len(am)),
		deg: make(map[graphmodel.NodeID]float64, len(am)),
	}
	for id := range am {
		wg.nodes = append(wg.nodes, id)
		wg.adj[id] = make(map[graphmodel.NodeID]float64)
	}
	sort.Slice(wg.nodes, func(i, j int) bool { return wg.nodes[i] < wg.nodes[j] })

	edges, err := g.Edges()
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}
	for _, edge := range edges {
		w := 1.0
		if raw, ok := edge.Properties.Attributes["weight"]; ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
				w = parsed
			}
		}
		wg.adj[edge.Source][edge.Target] += w
		if edge.Source != edge.Target {
			wg.adj[edge.Target][edge.Source] += w
		}
	}
	for id, neighbors := range wg.adj {
		for other, w := range neighbors {
			if id == other {
				wg.deg[id] += 2 * w
			} else {
				wg.deg[id] += w
			}
		}
		wg.total += wg.deg[id]
	}
	return wg, nil
}

// Louvain is a modularity-maximizing clustering in the classic two-phase
// shape: greedy local moves until no node improves modularity, then
// aggregation of communities into super-nodes, repeated until the
// partition stabilizes. Nodes are visited in sorted order so the result
// is reproducible.
func Louvain(g graphmodel.Graph) (map[graphmodel.NodeID]int, error) {
	wg, err := buildWeightedGraph(g)
	if err != nil {
		return nil, err
	}

	// membership of the original nodes, refined level by level
	final := make(map[graphmodel.NodeID]graphmodel.NodeID, len(wg.nodes))
	for _, id := range wg.nodes {
		final[id] = id
	}

	for {
		comm, moved := localMove(wg)
		if !moved {
			break
		}
		super := aggregate(wg, comm)
		for id, c := range final {
			final[id] = super.rename[comm[c]]
		}
		wg = super.graph
	}

	return compactAssignment(final), nil
}

// localMove runs greedy modularity moves until a full sweep changes
// nothing. Returns each node's community and whether anything moved at all.
func localMove(wg *weightedGraph) (map[graphmodel.NodeID]graphmodel.NodeID, bool) {
	comm := make(map[graphmodel.NodeID]graphmodel.NodeID, len(wg.nodes))
	sumTot := make(map[graphmodel.NodeID]float64, len(wg.nodes))
	for _, id := range wg.nodes {
		comm[id] = id
		sumTot[id] = wg.deg[id]
	}
	if wg.total == 0 {
		return comm, false
	}

	anyMoved := false
	for {
		movedThisSweep := false
		for _, id := range wg.nodes {
			current := comm[id]

			// weight from id into each neighboring community
			links := map[graphmodel.NodeID]float64{current: 0}
			for nbr, w := range wg.adj[id] {
				if nbr == id {
					continue
				}
				links[comm[nbr]] += w
			}

			sumTot[current] -= wg.deg[id]

			best := current
			bestGain := links[current] - sumTot[current]*wg.deg[id]/wg.total
			candidates := make([]graphmodel.NodeID, 0, len(links))
			for c := range links {
				candidates = append(candidates, c)
			}
			sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
			for _, c := range candidates {
				if c == current {
					continue
				}
				gain := links[c] - sumTot[c]*wg.deg[id]/wg.total
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}

			sumTot[best] += wg.deg[id]
			if best != current {
				comm[id] = best
				movedThisSweep = true
				anyMoved = true
			}
		}
		if !movedThisSweep {
			break
		}
	}
	return comm, anyMoved
}

type aggregated struct {
	graph  *weightedGraph
	rename map[graphmodel.NodeID]graphmodel.NodeID
}

// aggregate collapses each community into a single node. Intra-community
// weight becomes a self-loop so modularity is preserved across levels.
func aggregate(wg *weightedGraph, comm map[graphmodel.NodeID]graphmodel.NodeID) aggregated {
	rename := make(map[graphmodel.NodeID]graphmodel.NodeID, len(comm))
	for _, id := range wg.nodes {
		rename[comm[id]] = comm[id]
	}

	out := &weightedGraph{
		adj: make(map[graphmodel.NodeID]map[graphmodel.NodeID]float64),
		deg: make(map[graphmodel.NodeID]float64),
	}
	for c := range rename {
		out.nodes = append(out.nodes, c)
		out.adj[c] = make(map[graphmodel.NodeID]float64)
	}
	sort.Slice(out.nodes, func(i, j int) bool { return out.nodes[i] < out.nodes[j] })

	// wg.adj is symmetric, so each unordered pair is taken once.
	for _, id := range wg.nodes {
		ci := comm[id]
		for nbr, w := range wg.adj[id] {
			if id > nbr {
				continue
			}
			cj := comm[nbr]
			switch {
			case id == nbr, ci == cj:
				out.adj[ci][ci] += w
			default:
				out.adj[ci][cj] += w
				out.adj[cj][ci] += w
			}
		}
	}
	for id, neighbors := range out.adj {
		for other, w := range neighbors {
			if id == other {
				out.deg[id] += 2 * w
			} else {
				out.deg[id] += w
			}
		}
		out.total += out.deg[id]
	}
	return aggregated{graph: out, rename: rename}
}

// LabelPropagation assigns each node the label carrying the most neighbor
// weight, sweeping nodes in sorted order until a fixed point. Ties prefer
// the smallest label so runs are reproducible.
func LabelPropagation(g graphmodel.Graph) (map[graphmodel.NodeID]int, error) {
	wg, err := buildWeightedGraph(g)
	if err != nil {
		return nil, err
	}

	labels := make(map[graphmodel.NodeID]graphmodel.NodeID, len(wg.nodes))
	for _, id := range wg.nodes {
		labels[id] = id
	}

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		changed := false
		for _, id := range wg.nodes {
			votes := make(map[graphmodel.NodeID]float64)
			for nbr, w := range wg.adj[id] {
				if nbr == id {
					continue
				}
				votes[labels[nbr]] += w
			}
			if len(votes) == 0 {
				continue
			}

			// Keep the current label on ties; otherwise the smallest
			// maximal label wins, since options are sorted and only a
			// strictly better vote displaces the incumbent.
			best := labels[id]
			bestWeight := votes[best]
			options := make([]graphmodel.NodeID, 0, len(votes))
			for l := range votes {
				options = append(options, l)
			}
			sort.Slice(options, func(i, j int) bool { return options[i] < options[j] })
			for _, l := range options {
				if votes[l] > bestWeight {
					best, bestWeight = l, votes[l]
				}
			}
			if best != labels[id] {
				labels[id] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return compactAssignment(labels), nil
}

// compactAssignment renumbers community representatives into dense ints,
// ordered by the representatives' node ids.
func compactAssignment(membership map[graphmodel.NodeID]graphmodel.NodeID) map[graphmodel.NodeID]int {
	reps := make([]graphmodel.NodeID, 0, len(membership))
	seen := make(map[graphmodel.NodeID]bool)
	for _, rep := range membership {
		if !seen[rep] {
			seen[rep] = true
			reps = append(reps, rep)
		}
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i] < reps[j] })

	index := make(map[graphmodel.NodeID]int, len(reps))
	for i, rep := range reps {
		index[rep] = i
	}

	out := make(map[graphmodel.NodeID]int, len(membership))
	for id, rep := range membership {
		out[id] = index[rep]
	}
	return out
}
