package project

import (
	"testing"

	"github.com/fyrsmithlabs/archminer/pkg/graphmodel"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		projName string
		remote   string
		wantErr  bool
	}{
		{
			name:     "valid project",
			projName: "Waikato|weka-3.8",
			remote:   "https://github.com/Waikato/weka-3.8",
			wantErr:  false,
		},
		{
			name:    "empty name",
			remote:  "https://github.com/Waikato/weka-3.8",
			wantErr: true,
		},
		{
			name:     "empty remote",
			projName: "Waikato|weka-3.8",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.projName, tt.remote)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.Name != tt.projName {
				t.Errorf("Name = %q, want %q", p.Name, tt.projName)
			}
			if p.Communities == nil {
				t.Error("Communities should be initialized")
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Waikato/weka-3.8", "Waikato|weka-3.8"},
		{"owner/repo", "owner|repo"},
		{"no-slash", "no-slash"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeCollisionFree(t *testing.T) {
	// Distinct owner/name pairs must never sanitize to the same name.
	a := Sanitize("ab/c")
	b := Sanitize("a/bc")
	if a == b {
		t.Fatalf("Sanitize collision: %q == %q", a, b)
	}
}

func TestSetCommunitiesGrowsOnly(t *testing.T) {
	p, err := New("owner|repo", "https://github.com/owner/repo")
	if err != nil {
		t.Fatal(err)
	}

	louvain := map[graphmodel.NodeID]int{"n1": 0, "n2": 1}
	p.SetCommunities("louvain", louvain)
	p.SetCommunities("labelprop", map[graphmodel.NodeID]int{"n1": 0})

	if len(p.Communities) != 2 {
		t.Fatalf("Communities has %d entries, want 2", len(p.Communities))
	}
	if p.Communities["louvain"]["n2"] != 1 {
		t.Error("louvain assignment was disturbed by a later algorithm")
	}
}
