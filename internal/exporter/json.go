package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// JSONExporter writes one <name>.json record per project. Writes go
// through a temp file and rename, so a crashed run never leaves a record
// the cache loader could half-read.
type JSONExporter struct {
	dir    string
	opts   project.ExportOptions
	logger *logging.Logger
}

// NewJSONExporter creates an exporter writing into dir.
func NewJSONExporter(dir string, opts project.ExportOptions, logger *logging.Logger) *JSONExporter {
	return &JSONExporter{
		dir:    dir,
		opts:   opts,
		logger: logger.Named("exporter.json"),
	}
}

func (e *JSONExporter) Name() string { return "json" }

// Export serializes the project and atomically replaces any previous
// record for the same name.
func (e *JSONExporter) Export(ctx context.Context, p *project.Project) error {
	data, err := p.Marshal(e.opts)
	if err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}

	final := filepath.Join(e.dir, p.Name+".json")
	tmp, err := os.CreateTemp(e.dir, p.Name+".*.tmp")
	if err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}
	if err := os.Rename(tmpName, final); err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: fmt.Errorf("replacing record: %w", err)}
	}

	e.logger.Info(ctx, "exported project record",
		zap.String("path", final), zap.Int("bytes", len(data)))
	return nil
}
