// Package loader rehydrates previously exported project records so
// finished stages are not repeated across runs.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// Loader merges cached state into a freshly discovered project.
type Loader interface {
	// Load returns the cached record for the project, or the project
	// unchanged when no cache entry exists. A cache miss is not an error.
	Load(ctx context.Context, p *project.Project) (*project.Project, error)
}

// FileLoader reads records previously written by the JSON exporter.
type FileLoader struct {
	dir    string
	logger *logging.Logger
}

// NewFileLoader creates a loader over the export directory.
func NewFileLoader(dir string, logger *logging.Logger) *FileLoader {
	return &FileLoader{dir: dir, logger: logger.Named("loader")}
}

// Load rehydrates the cached record, keeping the fresh discovery metadata
// authoritative for identity fields.
func (l *FileLoader) Load(ctx context.Context, p *project.Project) (*project.Project, error) {
	path := filepath.Join(l.dir, p.Name+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		l.logger.Debug(ctx, "no cached record", zap.String("path", path))
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached record %s: %w", path, err)
	}

	cached, err := project.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding cached record %s: %w", path, err)
	}

	cached.Name = p.Name
	cached.Remote = p.Remote
	cached.Description = p.Description
	cached.Stars = p.Stars
	cached.Language = p.Language
	cached.Archived = p.Archived
	cached.PushedAt = p.PushedAt

	l.logger.Info(ctx, "rehydrated cached record",
		zap.Bool("graph", cached.DepGraph != nil),
		zap.Int("files", len(cached.Files)),
		zap.Int("assignments", len(cached.Communities)))
	return cached, nil
}
