// Package exporter persists finished project records.
package exporter

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/archminer/internal/project"
)

// Exporter writes a finished project record to one sink.
type Exporter interface {
	// Name identifies the sink in logs and reports.
	Name() string

	Export(ctx context.Context, p *project.Project) error
}

// ExportError means a sink rejected a project record. Failures are scoped
// to one project and one sink.
type ExportError struct {
	Project string
	Sink    string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting project %q to %s: %v", e.Project, e.Sink, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
