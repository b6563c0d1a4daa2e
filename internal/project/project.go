// Package project defines the aggregate record a pipeline run enriches:
// repository identity, per-file metadata, the dependency graph, and
// per-algorithm community assignments.
package project

import (
	"errors"
	"strings"
	"time"

	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

// Common errors.
var (
	ErrEmptyName   = errors.New("project name cannot be empty")
	ErrEmptyRemote = errors.New("project remote cannot be empty")
	ErrNoGraph     = errors.New("project has no dependency graph")
)

// Project is the unit of work flowing through the pipeline. It is created
// with identity fields only and progressively enriched: the loader may
// rehydrate it from cache, the annotator populates Files, the graph
// extractor sets DepGraph, and the community extractor appends to
// Communities. No stage removes previously set fields, and DepGraph is
// never mutated once set.
type Project struct {
	// Name is the collision-free identifier derived from the repository
	// owner/name pair (see Sanitize).
	Name string `json:"name"`

	// Remote is the repository's source location URL.
	Remote string `json:"remote"`

	// Descriptive metadata, informational only.
	Description string     `json:"description,omitempty"`
	Stars       int        `json:"stargazers_count,omitempty"`
	Language    string     `json:"language,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
	PushedAt    *time.Time `json:"pushed_at,omitempty"`

	// Files maps file path to its metadata; set by annotation.
	Files map[string]*File `json:"files,omitempty"`

	// DepGraph is the extracted dependency graph; set by extraction.
	DepGraph *graphmodel.Model `json:"dep_graph,omitempty"`

	// Communities maps algorithm name to a node-to-community assignment.
	// It only ever grows; one entry is added per algorithm run. Community
	// ids are arbitrary integers with no stability across runs.
	Communities map[string]map[graphmodel.NodeID]int `json:"communities"`
}

// New creates a project with identity fields only.
func New(name, remote string) (*Project, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if remote == "" {
		return nil, ErrEmptyRemote
	}
	return &Project{
		Name:        name,
		Remote:      remote,
		Communities: make(map[string]map[graphmodel.NodeID]int),
	}, nil
}

// Sanitize derives a collision-free project name from a repository
// "owner/name" pair. The separator cannot occur in either component, so
// distinct repositories never alias. The result is safe as a path segment.
func Sanitize(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "|")
}

// Validate checks the identity invariants.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Remote == "" {
		return ErrEmptyRemote
	}
	return nil
}

// HasCommunities reports whether the named algorithm already produced an
// assignment for this project.
func (p *Project) HasCommunities(algorithm string) bool {
	_, ok := p.Communities[algorithm]
	return ok
}

// SetCommunities records an algorithm's node-to-community assignment.
// Existing entries for other algorithms are untouched.
func (p *Project) SetCommunities(algorithm string, assignment map[graphmodel.NodeID]int) {
	if p.Communities == nil {
		p.Communities = make(map[string]map[graphmodel.NodeID]int)
	}
	p.Communities[algorithm] = assignment
}
