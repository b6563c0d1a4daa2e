// Package extractor obtains a project's dependency graph by driving an
// external extraction tool, exactly once per project.
package extractor

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/archminer/internal/project"
)

// GraphExtractor populates a project's DepGraph.
type GraphExtractor interface {
	ExtractGraph(ctx context.Context, p *project.Project) (*project.Project, error)
}

// ExtractionError means the external tool failed to execute or produced no
// usable artifact. It is terminal for that project only and is never
// retried automatically.
type ExtractionError struct {
	Project string
	Reason  string

	// ArtifactDir points at the expected artifact location, when known.
	ArtifactDir string

	Err error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extracting graph for project %q: %s", e.Project, e.Reason)
	if e.ArtifactDir != "" {
		msg += fmt.Sprintf(" (expected artifact under %s)", e.ArtifactDir)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }
