// Package pipeline orchestrates the mining run: discover projects, then
// push each one through annotation, graph extraction, community detection,
// and export. A failing project never takes the batch down with it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/annotator"
	"github.com/fyrsmithlabs/archminer/internal/exporter"
	"github.com/fyrsmithlabs/archminer/internal/extractor"
	"github.com/fyrsmithlabs/archminer/internal/finder"
	"github.com/fyrsmithlabs/archminer/internal/loader"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// CommunityExtractor assigns dependency-graph nodes to communities.
type CommunityExtractor interface {
	Extract(ctx context.Context, p *project.Project) (*project.Project, error)
}

// Stages collects the pipeline's collaborators. Finder, Annotator,
// Extractor and Community are required; Loader and Exporters are optional.
type Stages struct {
	Finder    finder.Finder
	Loader    loader.Loader
	Annotator annotator.Annotator
	Extractor extractor.GraphExtractor
	Community CommunityExtractor
	Exporters []exporter.Exporter
}

func (s Stages) validate() error {
	if s.Finder == nil {
		return errors.New("pipeline: finder is required")
	}
	if s.Annotator == nil {
		return errors.New("pipeline: annotator is required")
	}
	if s.Extractor == nil {
		return errors.New("pipeline: graph extractor is required")
	}
	if s.Community == nil {
		return errors.New("pipeline: community extractor is required")
	}
	return nil
}

// ProjectFailure records one project that did not make it to export.
type ProjectFailure struct {
	Project string
	Stage   string
	Err     error
}

// RunReport summarizes a finished run.
type RunReport struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	CacheHits int
	Failures  []ProjectFailure
	Duration  time.Duration

	// DiscoveryErr is set when discovery itself failed and no project
	// work happened.
	DiscoveryErr error
}

// Pipeline runs the full mining flow over a batch of projects.
type Pipeline struct {
	stages Stages
	logger *logging.Logger
}

// New validates the wiring and builds a pipeline.
func New(stages Stages, logger *logging.Logger) (*Pipeline, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{stages: stages, logger: logger.Named("pipeline")}, nil
}

// Run discovers up to count projects and processes them with the given
// worker parallelism. Zero parallelism uses all execution units; one runs
// fully sequential. Per-project failures land in the report, not in the
// returned error.
func (p *Pipeline) Run(ctx context.Context, count, parallelism int) (*RunReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	report := &RunReport{RunID: runID}

	p.logger.Info(ctx, "starting run",
		zap.Int("count", count), zap.Int("parallelism", parallelism))

	projects, err := p.stages.Finder.FindProjects(ctx, count)
	if err != nil {
		report.DiscoveryErr = &DiscoveryError{Err: err}
		report.Duration = time.Since(start)
		p.logger.Error(ctx, "discovery failed, nothing to process", zap.Error(err))
		return report, nil
	}
	report.Total = len(projects)

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(projects) {
		parallelism = len(projects)
	}

	type outcome struct {
		project  string
		cacheHit bool
		stage    string
		err      error
	}

	jobs := make(chan *project.Project)
	results := make(chan outcome, len(projects))

	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for proj := range jobs {
				projectsInFlight.Inc()
				hit, stage, err := p.processProject(logging.WithProject(ctx, proj.Name), proj)
				projectsInFlight.Dec()
				results <- outcome{
					project:  proj.Name,
					cacheHit: hit,
					stage:    stage,
					err:      err,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, proj := range projects {
			select {
			case jobs <- proj:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.cacheHit {
			report.CacheHits++
			cacheHits.Inc()
		}
		if res.err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ProjectFailure{
				Project: res.project,
				Stage:   res.stage,
				Err:     res.err,
			})
			projectsTotal.WithLabelValues("failure").Inc()
			stageFailures.WithLabelValues(res.stage).Inc()
			p.logger.Error(ctx, "project failed",
				zap.String("project", res.project),
				zap.String("stage", res.stage),
				zap.Error(res.err))
			continue
		}
		report.Succeeded++
		projectsTotal.WithLabelValues("success").Inc()
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Project < report.Failures[j].Project
	})

	report.Duration = time.Since(start)
	p.logger.Info(ctx, "run finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("cache_hits", report.CacheHits),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// processProject runs all stages for one project, reporting the stage a
// failure belongs to. A panic in any stage is contained here so the rest
// of the batch keeps going.
func (p *Pipeline) processProject(ctx context.Context, proj *project.Project) (cacheHit bool, stage string, err error) {
	defer func() {
		if r := recover(); r != nil {
			stage = "unknown"
			err = &UnexpectedError{
				Project: proj.Name,
				Stage:   stage,
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if p.stages.Loader != nil {
		loaded, lerr := timedStage(ctx, "load", proj, p.stages.Loader.Load)
		if lerr != nil {
			return false, "load", lerr
		}
		cacheHit = loaded != proj
		proj = loaded
	}

	// Annotation already present from the cache is not repeated.
	if len(proj.Files) == 0 {
		annotated, aerr := timedStage(ctx, "annotate", proj, p.stages.Annotator.AnnotateProject)
		if aerr != nil {
			return cacheHit, "annotate", aerr
		}
		proj = annotated
	}

	proj, err = timedStage(ctx, "extract", proj, p.stages.Extractor.ExtractGraph)
	if err != nil {
		return cacheHit, "extract", err
	}

	proj, err = timedStage(ctx, "communities", proj, p.stages.Community.Extract)
	if err != nil {
		return cacheHit, "communities", err
	}

	if err = p.export(ctx, proj); err != nil {
		return cacheHit, "export", err
	}
	return cacheHit, "", nil
}

// export fans the finished record out to every sink. One sink failing does
// not stop the others; the project only fails when no sink accepted it.
func (p *Pipeline) export(ctx context.Context, proj *project.Project) error {
	if len(p.stages.Exporters) == 0 {
		return nil
	}

	sinks := make([]exporter.Exporter, len(p.stages.Exporters))
	copy(sinks, p.stages.Exporters)
	sort.Slice(sinks, func(i, j int) bool { return sinks[i].Name() < sinks[j].Name() })

	var lastErr error
	succeeded := 0
	for _, sink := range sinks {
		timer := time.Now()
		err := sink.Export(ctx, proj)
		stageDuration.WithLabelValues("export").Observe(time.Since(timer).Seconds())
		if err != nil {
			lastErr = err
			stageFailures.WithLabelValues("export").Inc()
			p.logger.Warn(ctx, "export sink failed",
				zap.String("sink", sink.Name()), zap.Error(err))
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return lastErr
	}
	return nil
}

// timedStage runs one stage function with duration tracking.
func timedStage(ctx context.Context, name string, proj *project.Project,
	fn func(context.Context, *project.Project) (*project.Project, error)) (*project.Project, error) {

	timer := time.Now()
	out, err := fn(ctx, proj)
	stageDuration.WithLabelValues(name).Observe(time.Since(timer).Seconds())
	return out, err
}

