// Package config provides configuration loading for archminer.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/archminer/internal/logging"
)

// Config is the process-wide configuration, built once at startup and
// passed by reference into the pipeline constructor. No ambient globals.
type Config struct {
	Logging   logging.Config  `koanf:"logging"`
	GitHub    GitHubConfig    `koanf:"github"`
	Arcan     ArcanConfig     `koanf:"arcan"`
	Annotator AnnotatorConfig `koanf:"annotator"`
	Community CommunityConfig `koanf:"community"`
	Export    ExportConfig    `koanf:"export"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
}

// GitHubConfig drives repository discovery.
type GitHubConfig struct {
	// Token authenticates search requests. Optional; unauthenticated
	// requests are heavily rate limited by GitHub.
	Token Secret `koanf:"token"`

	// MinStars is the minimum stargazer count for eligibility.
	MinStars int `koanf:"min_stars"`

	// PushedBefore (YYYY-MM-DD) is the last-activity cutoff; repositories
	// pushed after this date are not considered abandoned.
	PushedBefore string `koanf:"pushed_before"`

	// Language restricts discovery to one primary language.
	Language string `koanf:"language"`

	// ArchivedOnly restricts discovery to archived repositories.
	ArchivedOnly bool `koanf:"archived_only"`
}

// ArcanConfig drives the external graph-extraction tool.
type ArcanConfig struct {
	// ToolPath is the Arcan installation directory. The run script is
	// expected at <tool_path>/run-arcan.sh.
	ToolPath string `koanf:"tool_path"`

	// RepositoryPath is where working copies are cloned. Each project
	// clones into its own subdirectory, removed after extraction.
	RepositoryPath string `koanf:"repository_path"`

	// OutputPath is where Arcan writes artifacts; the graph for a project
	// lands under <output_path>/arcanOutput/<project-name>/.
	OutputPath string `koanf:"output_path"`

	// LogsPath receives the tool's own logs.
	LogsPath string `koanf:"logs_path"`

	// ForceRun re-invokes the tool even when a completion marker or a
	// previous artifact exists.
	ForceRun bool `koanf:"force_run"`

	// Timeout bounds one tool invocation. Extraction can take from
	// seconds to tens of minutes depending on repository size.
	Timeout Duration `koanf:"timeout"`
}

// AnnotatorConfig drives the external weak-labeling service.
type AnnotatorConfig struct {
	Endpoint string   `koanf:"endpoint"`
	Timeout  Duration `koanf:"timeout"`
}

// CommunityConfig drives community detection.
type CommunityConfig struct {
	// Algorithms names the clustering algorithms to run. Empty means the
	// default single "louvain" run.
	Algorithms []string `koanf:"algorithms"`

	// ForceRun recomputes assignments that already exist per algorithm.
	ForceRun bool `koanf:"force_run"`

	// CleanGraph applies the pre-clustering cleaning pass.
	CleanGraph bool `koanf:"clean_graph"`

	// RemoveEdgeLabels lists edge types dropped by the cleaning pass.
	RemoveEdgeLabels []string `koanf:"remove_edge_labels"`
}

// ExportConfig drives result persistence.
type ExportConfig struct {
	// OutputDir receives one JSON record per project. The same directory
	// serves as the rehydration cache on later runs.
	OutputDir string `koanf:"output_dir"`

	// ExcludeGraph omits the raw dependency graph from exports.
	ExcludeGraph bool `koanf:"exclude_graph"`

	// ExcludeFileContent omits raw file contents from exports.
	ExcludeFileContent bool `koanf:"exclude_file_content"`

	// MinIO optionally mirrors exports to an object store.
	MinIO MinIOConfig `koanf:"minio"`
}

// MinIOConfig configures the object-store export sink.
type MinIOConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey Secret `koanf:"access_key"`
	SecretKey Secret `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// PipelineConfig drives batch execution.
type PipelineConfig struct {
	// Count is how many projects to discover per run.
	Count int `koanf:"count"`

	// Parallelism bounds concurrent per-project workers. 0 uses all
	// available execution units; 1 runs fully sequential.
	Parallelism int `koanf:"parallelism"`

	// MetricsAddr, if set, exposes Prometheus metrics on this address
	// for the duration of the run (e.g. ":9090").
	MetricsAddr string `koanf:"metrics_addr"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.GitHub.MinStars == 0 {
		cfg.GitHub.MinStars = 100
	}
	if cfg.GitHub.Language == "" {
		cfg.GitHub.Language = "java"
	}

	if cfg.Arcan.ToolPath == "" {
		cfg.Arcan.ToolPath = "/opt/arcan"
	}
	if cfg.Arcan.RepositoryPath == "" {
		cfg.Arcan.RepositoryPath = "/var/lib/archminer/repository"
	}
	if cfg.Arcan.OutputPath == "" {
		cfg.Arcan.OutputPath = "/var/lib/archminer/out"
	}
	if cfg.Arcan.LogsPath == "" {
		cfg.Arcan.LogsPath = "/var/lib/archminer/logs"
	}
	if cfg.Arcan.Timeout == 0 {
		cfg.Arcan.Timeout = Duration(30 * time.Minute)
	}

	if cfg.Annotator.Endpoint == "" {
		cfg.Annotator.Endpoint = "http://auto-fl:8000/label/files"
	}
	if cfg.Annotator.Timeout == 0 {
		cfg.Annotator.Timeout = Duration(5 * time.Minute)
	}

	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "/var/lib/archminer/annotated"
	}

	if cfg.Pipeline.Count == 0 {
		cfg.Pipeline.Count = 10
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.GitHub.MinStars < 0 {
		return fmt.Errorf("github.min_stars cannot be negative")
	}
	if c.GitHub.PushedBefore != "" {
		if _, err := time.Parse("2006-01-02", c.GitHub.PushedBefore); err != nil {
			return fmt.Errorf("github.pushed_before must be YYYY-MM-DD: %w", err)
		}
	}
	if c.Pipeline.Count < 0 {
		return fmt.Errorf("pipeline.count cannot be negative")
	}
	if c.Pipeline.Parallelism < 0 {
		return fmt.Errorf("pipeline.parallelism cannot be negative")
	}
	if c.Export.MinIO.Enabled {
		if c.Export.MinIO.Endpoint == "" {
			return fmt.Errorf("export.minio.endpoint required when minio export is enabled")
		}
		if c.Export.MinIO.Bucket == "" {
			return fmt.Errorf("export.minio.bucket required when minio export is enabled")
		}
	}
	return nil
}
