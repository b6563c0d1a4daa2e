package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

// graphExtension distinguishes the tool's graph artifact. Exactly one such
// file is expected per project output directory.
const graphExtension = ".graphml"

// runScript is the tool's entry point under its install directory.
const runScript = "run-arcan.sh"

// CommandRunner executes the external tool. Injected so tests can observe
// invocations without a tool install.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// Cloner materializes a working copy of a repository for the tool.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// Arcan drives the Arcan dependency-graph tool as a subprocess and
// converts its GraphML artifact into the interchange model.
//
// Invocation is idempotent: a completion marker (or a previously produced
// artifact directory) gates re-running the tool, so extraction never runs
// twice for the same project unless forced.
type Arcan struct {
	cfg    config.ArcanConfig
	runner CommandRunner
	cloner Cloner
	logger *logging.Logger
}

// Option customizes an Arcan extractor.
type Option func(*Arcan)

// WithRunner replaces the subprocess runner.
func WithRunner(r CommandRunner) Option {
	return func(a *Arcan) { a.runner = r }
}

// WithCloner replaces the repository cloner.
func WithCloner(c Cloner) Option {
	return func(a *Arcan) { a.cloner = c }
}

// NewArcan creates an extractor from config.
func NewArcan(cfg config.ArcanConfig, logger *logging.Logger, opts ...Option) *Arcan {
	a := &Arcan{
		cfg:    cfg,
		runner: &execRunner{logsPath: cfg.LogsPath},
		cloner: gitCloner{},
		logger: logger.Named("extractor"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExtractGraph returns the project with DepGraph populated. A previously
// produced artifact is reused unless force re-run is configured.
func (a *Arcan) ExtractGraph(ctx context.Context, p *project.Project) (*project.Project, error) {
	if p.DepGraph != nil && !a.cfg.ForceRun {
		a.logger.Info(ctx, "dependency graph already present, skipping extraction")
		return p, nil
	}

	if a.completed(p.Name) && !a.cfg.ForceRun {
		a.logger.Info(ctx, "reusing existing extraction artifact",
			zap.String("dir", a.artifactDir(p.Name)))
	} else {
		if a.cfg.ForceRun {
			a.logger.Info(ctx, "force re-running extraction tool")
		}
		if err := a.run(ctx, p); err != nil {
			return nil, err
		}
	}

	model, err := a.loadArtifact(p)
	if err != nil {
		return nil, err
	}

	if err := a.writeMarker(p.Name); err != nil {
		a.logger.Warn(ctx, "failed to write completion marker", zap.Error(err))
	}

	p.DepGraph = model
	a.logger.Info(ctx, "extracted dependency graph",
		zap.Int("nodes", model.Order()), zap.Int("edges", model.Size()))
	return p, nil
}

// run invokes the tool once. The cloned working copy is removed on every
// exit path (success, failure, or timeout) to bound disk usage across a
// batch run.
func (a *Arcan) run(ctx context.Context, p *project.Project) (err error) {
	cloneDir := filepath.Join(a.cfg.RepositoryPath, p.Name)
	defer func() {
		if rmErr := os.RemoveAll(cloneDir); rmErr != nil {
			a.logger.Warn(ctx, "failed to remove working copy",
				zap.String("dir", cloneDir), zap.Error(rmErr))
		}
	}()

	if timeout := a.cfg.Timeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := a.cloner.Clone(ctx, p.Remote, cloneDir); err != nil {
		return &ExtractionError{Project: p.Name, Reason: "cloning working copy", Err: err}
	}

	script := filepath.Join(a.cfg.ToolPath, runScript)
	args := []string{
		p.Remote,
		p.Name,
		NormalizeLanguage(p.Language),
		a.cfg.ToolPath,
		cloneDir,
		a.cfg.OutputPath,
		filepath.Join(a.cfg.LogsPath, "arcan"),
	}

	a.logger.Info(ctx, "running extraction tool",
		zap.String("script", script), zap.Strings("args", args))

	if err := a.runner.Run(ctx, script, args...); err != nil {
		return &ExtractionError{Project: p.Name, Reason: "tool execution failed", Err: err}
	}
	return nil
}

// loadArtifact converts the single graph file under the project's output
// directory. Zero or multiple candidates are both extraction failures.
func (a *Arcan) loadArtifact(p *project.Project) (*graphmodel.Model, error) {
	dir := a.artifactDir(p.Name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ExtractionError{
			Project:     p.Name,
			Reason:      "output directory missing after tool invocation",
			ArtifactDir: dir,
			Err:         err,
		}
	}

	var graphFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), graphExtension) {
			graphFiles = append(graphFiles, entry.Name())
		}
	}

	switch len(graphFiles) {
	case 0:
		return nil, &ExtractionError{
			Project:     p.Name,
			Reason:      "no graph file in output directory",
			ArtifactDir: dir,
		}
	case 1:
	default:
		return nil, &ExtractionError{
			Project:     p.Name,
			Reason:      fmt.Sprintf("ambiguous artifact: %d graph files", len(graphFiles)),
			ArtifactDir: dir,
		}
	}

	f, err := os.Open(filepath.Join(dir, graphFiles[0]))
	if err != nil {
		return nil, &ExtractionError{Project: p.Name, Reason: "opening graph file", ArtifactDir: dir, Err: err}
	}
	defer f.Close()

	model, err := graphmodel.DecodeGraphML(f)
	if err != nil {
		return nil, &ExtractionError{Project: p.Name, Reason: "decoding graph file", ArtifactDir: dir, Err: err}
	}
	return model, nil
}

// completed reports whether the tool already ran for this project, judged
// by the completion marker or a surviving artifact directory.
func (a *Arcan) completed(name string) bool {
	if _, err := os.Stat(a.markerPath(name)); err == nil {
		return true
	}
	if _, err := os.Stat(a.artifactDir(name)); err == nil {
		return true
	}
	return false
}

// writeMarker drops the existence-only completion sentinel.
func (a *Arcan) writeMarker(name string) error {
	path := a.markerPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}

func (a *Arcan) artifactDir(name string) string {
	return filepath.Join(a.cfg.OutputPath, "arcanOutput", name)
}

func (a *Arcan) markerPath(name string) string {
	return filepath.Join(a.cfg.OutputPath, "markers", name+".done")
}

// gitCloner clones with go-git. A shallow clone suffices; the tool only
// needs the checked-out tree.
type gitCloner struct{}

func (gitCloner) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}
