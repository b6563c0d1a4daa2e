package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

const minimalGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="name" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="n0"><data key="d0">a.A</data></node>
    <node id="n1"><data key="d0">a.B</data></node>
    <edge source="n0" target="n1"/>
  </graph>
</graphml>`

// fakeRunner counts invocations and optionally plants an artifact the way
// the real tool would.
type fakeRunner struct {
	calls    int
	args     []string
	artifact string
	dir      string
	err      error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls++
	r.args = append([]string{name}, args...)
	if r.err != nil {
		return r.err
	}
	if r.artifact != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(r.dir, "dep-graph.graphml"), []byte(r.artifact), 0o644)
	}
	return nil
}

type fakeCloner struct {
	calls int
	err   error
}

func (c *fakeCloner) Clone(ctx context.Context, url, dir string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return os.MkdirAll(dir, 0o755)
}

func testConfig(t *testing.T) config.ArcanConfig {
	t.Helper()
	root := t.TempDir()
	return config.ArcanConfig{
		ToolPath:       filepath.Join(root, "tool"),
		RepositoryPath: filepath.Join(root, "repos"),
		OutputPath:     filepath.Join(root, "out"),
		LogsPath:       filepath.Join(root, "logs"),
		Timeout:        config.Duration(time.Minute),
	}
}

func testProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.New(project.Sanitize("apache/kafka"), "https://github.com/apache/kafka")
	require.NoError(t, err)
	p.Language = "Java"
	return p
}

func graphFromGraphML(t *testing.T, doc string) *graphmodel.Model {
	t.Helper()
	m, err := graphmodel.DecodeGraphML(strings.NewReader(doc))
	require.NoError(t, err)
	return m
}

func TestArcanExtractGraph(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	runner := &fakeRunner{artifact: minimalGraphML}
	runner.dir = filepath.Join(cfg.OutputPath, "arcanOutput", p.Name)
	cloner := &fakeCloner{}

	a := NewArcan(cfg, logging.NewNop(), WithRunner(runner), WithCloner(cloner))

	got, err := a.ExtractGraph(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, got.DepGraph)
	assert.Equal(t, 2, got.DepGraph.Order())
	assert.Equal(t, 1, got.DepGraph.Size())

	assert.Equal(t, 1, cloner.calls)
	require.Len(t, runner.args, 8)
	assert.Equal(t, filepath.Join(cfg.ToolPath, "run-arcan.sh"), runner.args[0])
	assert.Equal(t, p.Remote, runner.args[1])
	assert.Equal(t, p.Name, runner.args[2])
	assert.Equal(t, "JAVA", runner.args[3])

	// Working copy removed regardless of outcome.
	_, statErr := os.Stat(filepath.Join(cfg.RepositoryPath, p.Name))
	assert.True(t, os.IsNotExist(statErr))
}

func TestArcanExtractGraphIdempotent(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	runner := &fakeRunner{artifact: minimalGraphML}
	runner.dir = filepath.Join(cfg.OutputPath, "arcanOutput", p.Name)

	a := NewArcan(cfg, logging.NewNop(), WithRunner(runner), WithCloner(&fakeCloner{}))

	_, err := a.ExtractGraph(context.Background(), p)
	require.NoError(t, err)

	// Second call for the same project reuses the artifact.
	p2 := testProject(t)
	_, err = a.ExtractGraph(context.Background(), p2)
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
}

func TestArcanExtractGraphForceRerun(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForceRun = true
	p := testProject(t)

	runner := &fakeRunner{artifact: minimalGraphML}
	runner.dir = filepath.Join(cfg.OutputPath, "arcanOutput", p.Name)

	a := NewArcan(cfg, logging.NewNop(), WithRunner(runner), WithCloner(&fakeCloner{}))

	_, err := a.ExtractGraph(context.Background(), p)
	require.NoError(t, err)
	_, err = a.ExtractGraph(context.Background(), testProject(t))
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestArcanExtractGraphSkipsExistingGraph(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)
	p.DepGraph = graphFromGraphML(t, minimalGraphML)

	runner := &fakeRunner{}
	a := NewArcan(cfg, logging.NewNop(), WithRunner(runner), WithCloner(&fakeCloner{}))

	got, err := a.ExtractGraph(context.Background(), p)
	require.NoError(t, err)
	assert.Same(t, p.DepGraph, got.DepGraph)
	assert.Zero(t, runner.calls)
}

func TestArcanExtractGraphMissingArtifact(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	// Runner succeeds but produces nothing.
	a := NewArcan(cfg, logging.NewNop(), WithRunner(&fakeRunner{}), WithCloner(&fakeCloner{}))

	_, err := a.ExtractGraph(context.Background(), p)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, p.Name, extErr.Project)
}

func TestArcanExtractGraphAmbiguousArtifact(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	dir := filepath.Join(cfg.OutputPath, "arcanOutput", p.Name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.graphml"), []byte(minimalGraphML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.graphml"), []byte(minimalGraphML), 0o644))

	a := NewArcan(cfg, logging.NewNop(), WithRunner(&fakeRunner{}), WithCloner(&fakeCloner{}))

	_, err := a.ExtractGraph(context.Background(), p)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Reason, "ambiguous")
}

func TestArcanExtractGraphCloneFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	cloneErr := errors.New("remote unreachable")
	runner := &fakeRunner{}
	a := NewArcan(cfg, logging.NewNop(), WithRunner(runner), WithCloner(&fakeCloner{err: cloneErr}))

	_, err := a.ExtractGraph(context.Background(), p)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, cloneErr)
	assert.Zero(t, runner.calls)
}

func TestArcanExtractGraphRunnerFailure(t *testing.T) {
	cfg := testConfig(t)
	p := testProject(t)

	runErr := errors.New("exit status 2")
	a := NewArcan(cfg, logging.NewNop(),
		WithRunner(&fakeRunner{err: runErr}), WithCloner(&fakeCloner{}))

	_, err := a.ExtractGraph(context.Background(), p)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, runErr)

	// The working copy must not survive a failed run.
	_, statErr := os.Stat(filepath.Join(cfg.RepositoryPath, p.Name))
	assert.True(t, os.IsNotExist(statErr))
}
