// Package finder discovers candidate repositories for the pipeline.
package finder

import (
	"context"

	"github.com/fyrsmithlabs/archminer/internal/project"
)

// Finder discovers up to count eligible projects. Implementations return
// identity records only; later stages enrich them.
type Finder interface {
	FindProjects(ctx context.Context, count int) ([]*project.Project, error)
}
