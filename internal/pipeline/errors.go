package pipeline

import "fmt"

// DiscoveryError means repository discovery itself failed. It aborts the
// run before any project work starts.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering projects: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// UnexpectedError wraps a failure no stage claimed, including recovered
// panics. Like stage errors it is scoped to a single project.
type UnexpectedError struct {
	Project string
	Stage   string
	Err     error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("project %q failed in stage %s: %v", e.Project, e.Stage, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
