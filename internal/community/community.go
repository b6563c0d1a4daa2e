// Package community assigns dependency-graph nodes to communities with
// configurable clustering algorithms.
package community

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

// Algorithm computes a node-to-community assignment over a graph.
// Implementations must be deterministic for a given graph.
type Algorithm func(g graphmodel.Graph) (map[graphmodel.NodeID]int, error)

// Extractor runs a fixed set of algorithms over a project's dependency
// graph. Assignments existing per algorithm are preserved unless force
// recomputation is configured.
type Extractor struct {
	algorithms map[string]Algorithm
	force      bool
	clean      bool
	dropLabels []string
	logger     *logging.Logger
}

// NewExtractor builds an extractor from config. Unknown algorithm names
// are a configuration error.
func NewExtractor(cfg config.CommunityConfig, logger *logging.Logger) (*Extractor, error) {
	algos, err := BuildAlgorithms(cfg.Algorithms)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		algorithms: algos,
		force:      cfg.ForceRun,
		clean:      cfg.CleanGraph,
		dropLabels: cfg.RemoveEdgeLabels,
		logger:     logger.Named("community"),
	}, nil
}

// Extract runs every pending algorithm and records its assignment on the
// project. The project's dependency graph is never mutated; the cleaning
// pass works on a copy.
func (e *Extractor) Extract(ctx context.Context, p *project.Project) (*project.Project, error) {
	if p.DepGraph == nil {
		return nil, fmt.Errorf("project %q: %w", p.Name, project.ErrNoGraph)
	}

	var pending []string
	for name := range e.algorithms {
		if p.HasCommunities(name) && !e.force {
			continue
		}
		pending = append(pending, name)
	}
	if len(pending) == 0 {
		e.logger.Info(ctx, "all community assignments present, skipping")
		return p, nil
	}
	sort.Strings(pending)

	model := p.DepGraph
	if e.clean {
		model = graphmodel.Clean(model, graphmodel.CleanOptions{RemoveEdgeLabels: e.dropLabels})
		e.logger.Debug(ctx, "cleaned graph for clustering",
			zap.Int("nodes", model.Order()), zap.Int("edges", model.Size()))
	}

	g, err := model.ToGraph()
	if err != nil {
		return nil, fmt.Errorf("project %q: building graph for clustering: %w", p.Name, err)
	}

	for _, name := range pending {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		assignment, err := e.algorithms[name](g)
		if err != nil {
			return nil, fmt.Errorf("project %q: algorithm %s: %w", p.Name, name, err)
		}
		p.SetCommunities(name, assignment)
		e.logger.Info(ctx, "computed community assignment",
			zap.String("algorithm", name),
			zap.Int("communities", countCommunities(assignment)))
	}
	return p, nil
}

func countCommunities(assignment map[graphmodel.NodeID]int) int {
	seen := make(map[int]bool, len(assignment))
	for _, c := range assignment {
		seen[c] = true
	}
	return len(seen)
}
