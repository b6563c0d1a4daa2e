package project

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

// ExportOptions selects fields to omit on write. Lightweight exports can
// drop the raw graph or file contents; the full record is always
// reconstructable from an unfiltered export.
type ExportOptions struct {
	ExcludeGraph       bool
	ExcludeFileContent bool
}

// Marshal serializes the project as a single self-contained JSON record,
// applying the export options. The project itself is not modified.
func (p *Project) Marshal(opts ExportOptions) ([]byte, error) {
	out := *p

	if opts.ExcludeGraph {
		out.DepGraph = nil
	}
	if opts.ExcludeFileContent && len(p.Files) > 0 {
		files := make(map[string]*File, len(p.Files))
		for path, f := range p.Files {
			stripped := *f
			stripped.Content = ""
			files[path] = &stripped
		}
		out.Files = files
	}

	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("project: marshaling %q: %w", p.Name, err)
	}
	return data, nil
}

// Unmarshal reconstructs a project from a persisted record.
func Unmarshal(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project: unmarshaling record: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project: invalid record: %w", err)
	}
	if p.Communities == nil {
		p.Communities = make(map[string]map[graphmodel.NodeID]int)
	}
	return &p, nil
}
