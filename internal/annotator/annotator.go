// Package annotator attaches weak semantic labels to a project's files via
// an external classification service.
package annotator

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/archminer/internal/project"
)

// Annotator populates a project's Files from the labeling service. The
// call is made at most once per project per pipeline run; retry policy, if
// any, belongs to the HTTP transport, not to this contract.
type Annotator interface {
	AnnotateProject(ctx context.Context, p *project.Project) (*project.Project, error)
}

// AnnotationError means the labeling service returned no usable result for
// a project. It is terminal for that project only.
type AnnotationError struct {
	Project string
	Reason  string
	Err     error
}

func (e *AnnotationError) Error() string {
	msg := fmt.Sprintf("annotating project %q: %s", e.Project, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnnotationError) Unwrap() error { return e.Err }
